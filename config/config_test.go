package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `
device_hint = "Maschine Mikro MK3"
auto_connect = true

[advanced_settings]
chord_timeout_ms = 100
double_tap_timeout_ms = 300
hold_threshold_ms = 2000

[[modes]]
name = "Default"
color = "blue"

  [[modes.mappings]]
  description = "Copy"
  trigger = { type = "Note", note = 36 }
  action  = { type = "Keystroke", keys = ["c"], modifiers = ["cmd"] }
`

func TestParseSample(t *testing.T) {
	cfg, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)
	assert.Equal(t, "Maschine Mikro MK3", cfg.DeviceHint)
	assert.True(t, cfg.AutoConnect)
	require.Len(t, cfg.Modes, 1)
	assert.Equal(t, "Default", cfg.Modes[0].Name)
	require.Len(t, cfg.Modes[0].Mappings, 1)
	assert.Equal(t, TriggerNote, cfg.Modes[0].Mappings[0].Trigger.Type)
	assert.EqualValues(t, 36, cfg.Modes[0].Mappings[0].Trigger.Note)
}

func TestParseRejectsUnknownField(t *testing.T) {
	_, err := Parse([]byte(sampleDoc + "\nbogus_top_level_field = 1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")
}

func TestValidateRejectsOverlappingVelocityRanges(t *testing.T) {
	cfg := &Config{
		Modes: []Mode{{
			Name: "Default",
			Mappings: []Mapping{
				{Trigger: TriggerSpec{Type: TriggerVelocityRange, Note: 9, Min: 0, Max: 50}, Action: Action{Type: ActionVolumeControl, Op: "Set"}},
				{Trigger: TriggerSpec{Type: TriggerVelocityRange, Note: 9, Min: 40, Max: 80}, Action: Action{Type: ActionVolumeControl, Op: "Set"}},
			},
		}},
	}
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlap")
}

func TestValidateAcceptsNonOverlappingVelocityRanges(t *testing.T) {
	cfg := &Config{
		Modes: []Mode{{
			Name: "Default",
			Mappings: []Mapping{
				{Trigger: TriggerSpec{Type: TriggerVelocityRange, Note: 9, Min: 0, Max: 40}, Action: Action{Type: ActionVolumeControl, Op: "Set"}},
				{Trigger: TriggerSpec{Type: TriggerVelocityRange, Note: 9, Min: 41, Max: 80}, Action: Action{Type: ActionVolumeControl, Op: "Set"}},
				{Trigger: TriggerSpec{Type: TriggerVelocityRange, Note: 9, Min: 81, Max: 127}, Action: Action{Type: ActionVolumeControl, Op: "Set"}},
			},
		}},
	}
	assert.NoError(t, Validate(cfg))
}

func TestValidateRejectsChordWithOneMember(t *testing.T) {
	cfg := &Config{
		GlobalMappings: []Mapping{
			{Trigger: TriggerSpec{Type: TriggerNoteChord, Members: []uint8{36}}, Action: Action{Type: ActionKeystroke, Keys: []string{"a"}}},
		},
	}
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chord")
}

func TestValidateRejectsShellWithNullByte(t *testing.T) {
	cfg := &Config{
		GlobalMappings: []Mapping{
			{Trigger: TriggerSpec{Type: TriggerNote, Note: 1}, Action: Action{Type: ActionShell, Command: "echo\x00pwned"}},
		},
	}
	err := Validate(cfg)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "null byte"))
}

func TestValidateRejectsModeIsUnknownMode(t *testing.T) {
	cfg := &Config{
		GlobalMappings: []Mapping{
			{Trigger: TriggerSpec{Type: TriggerNote, Note: 1}, Action: Action{
				Type:      ActionConditional,
				Condition: &Condition{Type: CondModeIs, ModeName: "Ghost"},
				Then:      &Action{Type: ActionKeystroke, Keys: []string{"a"}},
			}},
		},
	}
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateRejectsRelativeEncoderCCNotInEncoderCCs(t *testing.T) {
	cfg := &Config{
		AdvancedSettings: AdvancedSettings{
			EncoderCCs:         []uint8{20},
			RelativeEncoderCCs: []uint8{21},
		},
	}
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoder_ccs")
}

func TestValidateAcceptsRelativeEncoderCCSubset(t *testing.T) {
	cfg := &Config{
		AdvancedSettings: AdvancedSettings{
			EncoderCCs:         []uint8{20, 21},
			RelativeEncoderCCs: []uint8{21},
		},
	}
	require.NoError(t, Validate(cfg))
}
