package device

import (
	"testing"

	"github.com/jdginn/padengine/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGamepadDecodeButtonPressAndRelease(t *testing.T) {
	g := NewGamepadPort(nil, "pad-1", nil)
	out := make(chan event.InputEvent, 16)

	report := make([]byte, 16)
	for i := 4; i < 10; i++ {
		report[i] = 64 // axes at GamepadPort's initial value, so they emit nothing
	}
	report[0] = 0x01 // bit 0: South
	g.decode(report, out)

	report[0] = 0x00
	g.decode(report, out)

	close(out)
	var got []event.InputEvent
	for ev := range out {
		got = append(got, ev)
	}
	require.Len(t, got, 2)
	assert.Equal(t, event.KindPadPressed, got[0].Kind)
	assert.Equal(t, event.ID(134), got[0].ID)
	assert.Equal(t, event.KindPadReleased, got[1].Kind)
}

func TestGamepadDecodeAppliesStickDeadzone(t *testing.T) {
	g := NewGamepadPort(nil, "pad-1", nil)
	out := make(chan event.InputEvent, 16)

	report := make([]byte, 16)
	for i := 4; i < 10; i++ {
		report[i] = 64 // axes at GamepadPort's initial value, so only LX can change
	}
	report[4] = 66 // within ±0.1*127 ≈ ±12.7 of center 64
	g.decode(report, out)

	report[4] = 120 // well outside deadzone
	g.decode(report, out)

	close(out)
	var got []event.InputEvent
	for ev := range out {
		got = append(got, ev)
	}
	require.Len(t, got, 1) // the first sample collapses to center, a no-op vs initial state
	assert.Equal(t, event.KindEncoderTurned, got[0].Kind)
	assert.Equal(t, uint16(120), got[0].Value)
}

func TestGamepadDecodeTriggerDigitalFallback(t *testing.T) {
	g := NewGamepadPort(nil, "pad-1", nil)
	out := make(chan event.InputEvent, 16)

	report := make([]byte, 16)
	report[8] = 100 // TrigL axis crosses threshold
	g.decode(report, out)

	report[8] = 0
	g.decode(report, out)

	close(out)
	var presses, releases int
	for ev := range out {
		if ev.ID == event.GamepadDigitalTriggerL {
			if ev.Kind == event.KindPadPressed {
				presses++
			} else if ev.Kind == event.KindPadReleased {
				releases++
			}
		}
	}
	assert.Equal(t, 1, presses)
	assert.Equal(t, 1, releases)
}
