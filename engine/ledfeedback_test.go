package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLED struct {
	pads        []padCall
	transitions []transitionCall
}

type padCall struct {
	id         uint8
	color      string
	brightness float64
}

type transitionCall struct {
	effect, from, to string
}

func (f *fakeLED) Pad(padID uint8, color string, brightness float64) {
	f.pads = append(f.pads, padCall{padID, color, brightness})
}

func (f *fakeLED) Transition(effect, fromMode, toMode string) {
	f.transitions = append(f.transitions, transitionCall{effect, fromMode, toMode})
}

func TestChangeModeFiresLEDFeedback(t *testing.T) {
	m, _ := newTestManager()
	led := &fakeLED{}
	m.SetLED(led)

	require.NoError(t, m.ChangeMode(1, true, "wipe"))

	require.Len(t, led.transitions, 1)
	assert.Equal(t, transitionCall{"wipe", "default", "other"}, led.transitions[0])
	// "default" mode has one Note-36 mapping to dim; "other" has none to light.
	require.Len(t, led.pads, 1)
	assert.Equal(t, uint8(36), led.pads[0].id)
}

func TestChangeModeWithoutLEDIsNoop(t *testing.T) {
	m, _ := newTestManager()
	require.NoError(t, m.ChangeMode(1, true, "wipe"))
	assert.Equal(t, "other", m.CurrentMode())
}
