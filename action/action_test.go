package action

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdginn/padengine/config"
)

type recordingKeys struct {
	calls [][2][]string
}

func (r *recordingKeys) Press(keys, modifiers []string) error {
	r.calls = append(r.calls, [2][]string{keys, modifiers})
	return nil
}

type recordingMidi struct {
	port  string
	msg   config.MidiMessage
	value uint8
}

func (r *recordingMidi) Send(port string, msg config.MidiMessage, value uint8) error {
	r.port, r.msg, r.value = port, msg, value
	return nil
}

type recordingModes struct {
	lastIndexOrOffset int
	lastRelative      bool
}

func (r *recordingModes) ChangeMode(indexOrOffset int, relative bool, transition string) error {
	r.lastIndexOrOffset, r.lastRelative = indexOrOffset, relative
	return nil
}

func TestExecuteKeystroke(t *testing.T) {
	keys := &recordingKeys{}
	e := &Executor{Keys: keys}
	err := e.Execute(context.Background(), config.Action{Type: config.ActionKeystroke, Keys: []string{"c"}, Modifiers: []string{"cmd"}}, TriggerContext{})
	require.NoError(t, err)
	require.Len(t, keys.calls, 1)
	assert.Equal(t, []string{"c"}, keys.calls[0][0])
}

func TestExecutePausedSuppressesEverythingButModeChange(t *testing.T) {
	keys := &recordingKeys{}
	modes := &recordingModes{}
	e := &Executor{Keys: keys, Modes: modes}
	e.SetPaused(true)

	err := e.Execute(context.Background(), config.Action{Type: config.ActionKeystroke, Keys: []string{"c"}}, TriggerContext{})
	assert.ErrorIs(t, err, ErrPaused)
	assert.Empty(t, keys.calls)

	err = e.Execute(context.Background(), config.Action{Type: config.ActionModeChange, IndexOrOffset: 2}, TriggerContext{})
	require.NoError(t, err)
	assert.Equal(t, 2, modes.lastIndexOrOffset)
}

func TestExecuteSequenceRunsStepsInOrder(t *testing.T) {
	keys := &recordingKeys{}
	e := &Executor{Keys: keys}
	seq := config.Action{
		Type: config.ActionSequence,
		Steps: []config.Action{
			{Type: config.ActionKeystroke, Keys: []string{"a"}},
			{Type: config.ActionKeystroke, Keys: []string{"b"}},
		},
	}
	require.NoError(t, e.Execute(context.Background(), seq, TriggerContext{}))
	require.Len(t, keys.calls, 2)
	assert.Equal(t, []string{"a"}, keys.calls[0][0])
	assert.Equal(t, []string{"b"}, keys.calls[1][0])
}

func TestExecuteRepeat(t *testing.T) {
	keys := &recordingKeys{}
	e := &Executor{Keys: keys}
	rep := config.Action{
		Type:  config.ActionRepeat,
		Count: 3,
		Body:  &config.Action{Type: config.ActionKeystroke, Keys: []string{"x"}},
	}
	require.NoError(t, e.Execute(context.Background(), rep, TriggerContext{}))
	assert.Len(t, keys.calls, 3)
}

func TestExecuteConditionalThenElse(t *testing.T) {
	keys := &recordingKeys{}
	e := &Executor{Keys: keys}
	cond := config.Action{
		Type:      config.ActionConditional,
		Condition: &config.Condition{Type: config.CondModeIs, ModeName: "Mixing"},
		Then:      &config.Action{Type: config.ActionKeystroke, Keys: []string{"then"}},
		Else:      &config.Action{Type: config.ActionKeystroke, Keys: []string{"else"}},
	}

	require.NoError(t, e.Execute(context.Background(), cond, TriggerContext{Mode: "Mixing"}))
	require.NoError(t, e.Execute(context.Background(), cond, TriggerContext{Mode: "Default"}))
	require.Len(t, keys.calls, 2)
	assert.Equal(t, []string{"then"}, keys.calls[0][0])
	assert.Equal(t, []string{"else"}, keys.calls[1][0])
}

func TestExecuteSendMidiAppliesLinearCurve(t *testing.T) {
	midi := &recordingMidi{}
	e := &Executor{Midi: midi}
	a := config.Action{
		Type:    config.ActionSendMidi,
		Port:    "IAC Driver",
		Message: &config.MidiMessage{Kind: "note_on", Channel: 1, Number: 60},
		Curve:   &config.VelocityCurve{Type: config.CurveLinear, InMin: 0, InMax: 127, OutMin: 0, OutMax: 63},
	}
	require.NoError(t, e.Execute(context.Background(), a, TriggerContext{Velocity: 127}))
	assert.Equal(t, uint8(63), midi.value)
	assert.Equal(t, "IAC Driver", midi.port)
}

func TestExecuteSendMidiFixedCurveIgnoresInput(t *testing.T) {
	midi := &recordingMidi{}
	e := &Executor{Midi: midi}
	a := config.Action{
		Type:    config.ActionSendMidi,
		Message: &config.MidiMessage{Kind: "cc", Channel: 1, Number: 7},
		Curve:   &config.VelocityCurve{Type: config.CurveFixed, Fixed: 42},
	}
	require.NoError(t, e.Execute(context.Background(), a, TriggerContext{Velocity: 10}))
	assert.Equal(t, uint8(42), midi.value)
}

func TestExecuteUnknownActionType(t *testing.T) {
	e := &Executor{}
	err := e.Execute(context.Background(), config.Action{Type: "Bogus"}, TriggerContext{})
	assert.ErrorIs(t, err, ErrUnknownActionType)
}

func TestSchemaSetRejectsInvalidParams(t *testing.T) {
	schemas, err := CompileSchemas([]config.PluginSchema{
		{Name: "obs-scene-switch", Schema: `{"type":"object","required":["scene"],"properties":{"scene":{"type":"string"}}}`},
	})
	require.NoError(t, err)

	require.NoError(t, schemas.Validate("obs-scene-switch", map[string]interface{}{"scene": "Main"}))
	assert.Error(t, schemas.Validate("obs-scene-switch", map[string]interface{}{"scene": 5}))
	assert.NoError(t, schemas.Validate("unregistered-plugin", map[string]interface{}{"anything": true}))
}
