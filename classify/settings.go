// Package classify derives higher-order gestures (short/long press, double
// tap, chord, velocity zone, encoder direction, continuous-control zone
// crossings) from the raw event.InputEvent stream, per spec.md §4.2.
package classify

import (
	"time"

	"github.com/jdginn/padengine/event"
)

// Settings carries the classifier's tunable thresholds, derived from a
// Config's AdvancedSettings (already defaulted).
type Settings struct {
	ChordTimeout       time.Duration
	DoubleTapTimeout   time.Duration
	HoldThreshold      time.Duration
	AftertouchThrottle time.Duration
	PitchBendDelta     uint16
	HysteresisGap      uint8
	EncoderCCs         map[uint8]bool
	RelativeEncoderCCs map[uint8]bool
}

// DefaultSettings matches spec.md §4.2's documented defaults.
func DefaultSettings() Settings {
	return Settings{
		ChordTimeout:       100 * time.Millisecond,
		DoubleTapTimeout:   300 * time.Millisecond,
		HoldThreshold:      2000 * time.Millisecond,
		AftertouchThrottle: 50 * time.Millisecond,
		HysteresisGap:      10,
		EncoderCCs:         map[uint8]bool{},
		RelativeEncoderCCs: map[uint8]bool{},
	}
}

// VelocityZone classifies a velocity into the default coarse bands from
// spec.md §4.2.
func VelocityZone(v uint8) event.VelocityZone {
	switch {
	case v <= 40:
		return event.ZoneSoft
	case v <= 80:
		return event.ZoneMedium
	default:
		return event.ZoneHard
	}
}
