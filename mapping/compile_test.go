package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdginn/padengine/config"
	"github.com/jdginn/padengine/event"
)

func TestCompileNoteLookup(t *testing.T) {
	cfg := &config.Config{
		Modes: []config.Mode{{
			Name: "Default",
			Mappings: []config.Mapping{
				{Trigger: config.TriggerSpec{Type: config.TriggerNote, Note: 36}, Action: config.Action{Type: config.ActionKeystroke, Keys: []string{"c"}}},
			},
		}},
	}
	tbl, err := Compile(cfg)
	require.NoError(t, err)

	entries := tbl.Lookup("Default", event.ProcessedEvent{Kind: event.ProcShortPress, ID: 36})
	require.Len(t, entries, 1)
	assert.Equal(t, config.ActionKeystroke, entries[0].Action.Type)

	assert.Empty(t, tbl.Lookup("Default", event.ProcessedEvent{Kind: event.ProcShortPress, ID: 37}))
	assert.Empty(t, tbl.Lookup("OtherMode", event.ProcessedEvent{Kind: event.ProcShortPress, ID: 36}))
}

func TestCompileGlobalMappingAppliesInEveryMode(t *testing.T) {
	cfg := &config.Config{
		Modes: []config.Mode{{Name: "A"}, {Name: "B"}},
		GlobalMappings: []config.Mapping{
			{Trigger: config.TriggerSpec{Type: config.TriggerNote, Note: 10}, Action: config.Action{Type: config.ActionModeChange}},
		},
	}
	tbl, err := Compile(cfg)
	require.NoError(t, err)

	for _, mode := range []string{"A", "B"} {
		entries := tbl.Lookup(mode, event.ProcessedEvent{Kind: event.ProcShortPress, ID: 10})
		require.Len(t, entries, 1)
	}
}

func TestCompileChordLookupDisambiguatesSharedMinMember(t *testing.T) {
	cfg := &config.Config{
		GlobalMappings: []config.Mapping{
			{Trigger: config.TriggerSpec{Type: config.TriggerNoteChord, Members: []uint8{10, 11}}, Action: config.Action{Type: config.ActionKeystroke, Keys: []string{"a"}}},
			{Trigger: config.TriggerSpec{Type: config.TriggerNoteChord, Members: []uint8{10, 12, 13}}, Action: config.Action{Type: config.ActionKeystroke, Keys: []string{"b"}}},
		},
	}
	tbl, err := Compile(cfg)
	require.NoError(t, err)

	entries := tbl.Lookup("", event.ProcessedEvent{Kind: event.ProcChord, ID: 10, Members: []event.ID{10, 11}})
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"a"}, entries[0].Action.Keys)

	entries = tbl.Lookup("", event.ProcessedEvent{Kind: event.ProcChord, ID: 10, Members: []event.ID{10, 12, 13}})
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"b"}, entries[0].Action.Keys)
}

func TestCompileDerivesInterest(t *testing.T) {
	cfg := &config.Config{
		GlobalMappings: []config.Mapping{
			{Trigger: config.TriggerSpec{Type: config.TriggerDoubleTap, Note: 40}, Action: config.Action{Type: config.ActionKeystroke, Keys: []string{"a"}}},
			{Trigger: config.TriggerSpec{Type: config.TriggerAftertouch}, Action: config.Action{Type: config.ActionVolumeControl, Op: "Set"}},
			{Trigger: config.TriggerSpec{Type: config.TriggerNoteChord, Members: []uint8{1, 2}}, Action: config.Action{Type: config.ActionKeystroke, Keys: []string{"x"}}},
		},
	}
	tbl, err := Compile(cfg)
	require.NoError(t, err)

	interest := tbl.Interest()
	assert.True(t, interest.DoubleTap(40))
	assert.False(t, interest.DoubleTap(41))
	assert.True(t, interest.Aftertouch)
	assert.False(t, interest.PitchBend)
	require.Len(t, interest.ChordSets, 1)
	assert.ElementsMatch(t, []event.ID{1, 2}, interest.ChordSets[0])
}

func TestCompileRejectsUnknownTriggerType(t *testing.T) {
	cfg := &config.Config{
		GlobalMappings: []config.Mapping{
			{Trigger: config.TriggerSpec{Type: "Bogus"}, Action: config.Action{Type: config.ActionKeystroke}},
		},
	}
	_, err := Compile(cfg)
	require.Error(t, err)
}

func TestHandleSwapIsVisibleImmediately(t *testing.T) {
	cfg1 := &config.Config{GlobalMappings: []config.Mapping{
		{Trigger: config.TriggerSpec{Type: config.TriggerNote, Note: 1}, Action: config.Action{Type: config.ActionKeystroke, Keys: []string{"a"}}},
	}}
	tbl1, err := Compile(cfg1)
	require.NoError(t, err)
	h := NewHandle(tbl1)

	cfg2 := &config.Config{GlobalMappings: []config.Mapping{
		{Trigger: config.TriggerSpec{Type: config.TriggerNote, Note: 1}, Action: config.Action{Type: config.ActionKeystroke, Keys: []string{"b"}}},
	}}
	tbl2, err := Compile(cfg2)
	require.NoError(t, err)
	h.Store(tbl2)

	entries := h.Load().Lookup("", event.ProcessedEvent{Kind: event.ProcShortPress, ID: 1})
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"b"}, entries[0].Action.Keys)
}
