package engine

import (
	"github.com/jdginn/padengine/config"
)

// LEDFeedback is the pad-coloring/transition-effect callback spec.md §6
// names as "consumed by the executor and the mode-change handler". The
// engine manager is the mode-change handler; the scheme itself (which
// physical LEDs exist, how brightness maps to hardware) lives outside the
// core, so this interface only carries the two calls spec.md describes.
type LEDFeedback interface {
	Pad(padID uint8, color string, brightness float64)
	Transition(effect, fromMode, toMode string)
}

// SetLED attaches the LED feedback scheme. Left nil, mode changes simply
// skip feedback.
func (m *Manager) SetLED(led LEDFeedback) { m.led = led }

// applyLEDFeedback dims the outgoing mode's pads to idle brightness and
// raises the incoming mode's pads to active brightness, then fires the
// transition effect callback. Only Note-keyed triggers have a fixed pad
// identity to color; other trigger kinds have nothing to light.
func (m *Manager) applyLEDFeedback(fromMode, toMode, effect string) {
	if m.led == nil {
		return
	}
	if from := m.findMode(fromMode); from != nil {
		for _, id := range notePadIDs(from.Mappings) {
			m.led.Pad(id, from.Color, from.LedIdleBrightness)
		}
	}
	if to := m.findMode(toMode); to != nil {
		for _, id := range notePadIDs(to.Mappings) {
			m.led.Pad(id, to.Color, to.LedActiveBrightness)
		}
	}
	m.led.Transition(effect, fromMode, toMode)
}

func (m *Manager) findMode(name string) *config.Mode {
	for i := range m.cfg.Modes {
		if m.cfg.Modes[i].Name == name {
			return &m.cfg.Modes[i]
		}
	}
	return nil
}

// notePadIDs collects the distinct note numbers a mode's mappings trigger
// off of, the only trigger kinds with a single fixed physical pad.
func notePadIDs(mappings []config.Mapping) []uint8 {
	seen := make(map[uint8]bool)
	var ids []uint8
	for _, mp := range mappings {
		switch mp.Trigger.Type {
		case config.TriggerNote, config.TriggerVelocityRange, config.TriggerLongPress,
			config.TriggerDoubleTap, config.TriggerAftertouch:
			if !seen[mp.Trigger.Note] {
				seen[mp.Trigger.Note] = true
				ids = append(ids, mp.Trigger.Note)
			}
		}
	}
	return ids
}
