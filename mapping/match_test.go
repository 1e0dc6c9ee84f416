package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jdginn/padengine/config"
	"github.com/jdginn/padengine/event"
)

func TestMatchesVelocityRange(t *testing.T) {
	trig := config.TriggerSpec{Type: config.TriggerVelocityRange, Note: 36, Min: 40, Max: 80}
	assert.True(t, Matches(trig, event.ProcessedEvent{Velocity: 60}))
	assert.False(t, Matches(trig, event.ProcessedEvent{Velocity: 20}))
	assert.False(t, Matches(trig, event.ProcessedEvent{Velocity: 100}))
}

func TestMatchesEncoderDirection(t *testing.T) {
	cw := config.TriggerSpec{Type: config.TriggerEncoderTurn, CC: 1, Direction: "cw"}
	assert.True(t, Matches(cw, event.ProcessedEvent{Direction: event.DirCW}))
	assert.False(t, Matches(cw, event.ProcessedEvent{Direction: event.DirCCW}))

	either := config.TriggerSpec{Type: config.TriggerEncoderTurn, CC: 1}
	assert.True(t, Matches(either, event.ProcessedEvent{Direction: event.DirCCW}))
}

func TestMatchesNoteAlwaysTrue(t *testing.T) {
	trig := config.TriggerSpec{Type: config.TriggerNote, Note: 36}
	assert.True(t, Matches(trig, event.ProcessedEvent{ID: 36}))
}
