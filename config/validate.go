package config

import (
	"fmt"
	"strings"
)

// ValidationError reports the first rule broken during Validate, with enough
// context to surface as a structured control-plane error (spec.md §4.8,
// error code family 2xxx).
type ValidationError struct {
	Rule string
	Msg  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation (%s): %s", e.Rule, e.Msg)
}

func fail(rule, format string, args ...interface{}) error {
	return &ValidationError{Rule: rule, Msg: fmt.Sprintf(format, args...)}
}

// Validate checks every invariant spec.md §4.6 names. It does not mutate cfg.
func Validate(cfg *Config) error {
	modeNames := make(map[string]bool, len(cfg.Modes))
	for _, m := range cfg.Modes {
		if m.Name == "" {
			return fail("mode-name", "mode has empty name")
		}
		if modeNames[m.Name] {
			return fail("mode-name", "duplicate mode name %q", m.Name)
		}
		modeNames[m.Name] = true
	}

	if err := validateMappingSet(cfg.GlobalMappings, modeNames, len(cfg.Modes)); err != nil {
		return err
	}
	for _, m := range cfg.Modes {
		if err := validateMappingSet(m.Mappings, modeNames, len(cfg.Modes)); err != nil {
			return err
		}
	}

	// Velocity ranges on the same note, across global+mode scope together,
	// must not overlap (spec.md §4.2 "Velocity zone").
	byNote := make(map[uint8][][2]uint8)
	collectVelocityRanges(cfg.GlobalMappings, byNote)
	for _, m := range cfg.Modes {
		collectVelocityRanges(m.Mappings, byNote)
	}
	for note, ranges := range byNote {
		if err := checkNonOverlapping(note, ranges); err != nil {
			return err
		}
	}

	for _, ps := range cfg.PluginSchemas {
		if ps.Name == "" {
			return fail("plugin-schema", "plugin schema missing name")
		}
	}

	if err := validateAdvancedSettings(cfg.AdvancedSettings); err != nil {
		return err
	}

	return nil
}

func validateAdvancedSettings(a AdvancedSettings) error {
	isEncoder := make(map[uint8]bool, len(a.EncoderCCs))
	for _, cc := range a.EncoderCCs {
		if !inMIDIRange(cc) {
			return fail("encoder-cc-range", "encoder_ccs entry %d out of range 0..127", cc)
		}
		isEncoder[cc] = true
	}
	for _, cc := range a.RelativeEncoderCCs {
		if !inMIDIRange(cc) {
			return fail("encoder-cc-range", "relative_encoder_ccs entry %d out of range 0..127", cc)
		}
		if !isEncoder[cc] {
			return fail("encoder-cc-subset", "relative_encoder_ccs entry %d is not also listed in encoder_ccs", cc)
		}
	}
	return nil
}

func validateMappingSet(mappings []Mapping, modeNames map[string]bool, modeCount int) error {
	for i := range mappings {
		if err := validateTrigger(mappings[i].Trigger); err != nil {
			return err
		}
		if err := validateAction(mappings[i].Action, modeNames, modeCount, 0); err != nil {
			return err
		}
	}
	return nil
}

func validateTrigger(t TriggerSpec) error {
	switch t.Type {
	case TriggerNote, TriggerLongPress, TriggerDoubleTap, TriggerAftertouch:
		if !inMIDIRange(t.Note) {
			return fail("trigger-range", "%s trigger note %d out of MIDI range 0..127", t.Type, t.Note)
		}
	case TriggerVelocityRange:
		if !inMIDIRange(t.Note) {
			return fail("trigger-range", "VelocityRange note %d out of MIDI range", t.Note)
		}
		if t.Min > t.Max {
			return fail("velocity-range", "min %d greater than max %d for note %d", t.Min, t.Max, t.Note)
		}
	case TriggerNoteChord:
		if err := validateChordMembers(t.Members, true); err != nil {
			return err
		}
	case TriggerGamepadButtonChord:
		if err := validateChordMembers(t.Members, false); err != nil {
			return err
		}
	case TriggerCC:
		if !inMIDIRange(t.CC) {
			return fail("trigger-range", "CC %d out of range 0..127", t.CC)
		}
	case TriggerEncoderTurn:
		if !inMIDIRange(t.CC) {
			return fail("trigger-range", "EncoderTurn cc %d out of range 0..127", t.CC)
		}
		if t.Direction != "" && t.Direction != "cw" && t.Direction != "ccw" {
			return fail("trigger-direction", "invalid direction %q", t.Direction)
		}
	case TriggerPitchBend:
		// no id to range-check
	case TriggerGamepadButton:
		if t.Button < 128 || t.Button > 144 {
			return fail("trigger-range", "gamepad button %d out of range 128..144", t.Button)
		}
	case TriggerGamepadAnalogStick:
		if t.Axis != "x" && t.Axis != "y" {
			return fail("trigger-axis", "invalid gamepad stick axis %q", t.Axis)
		}
		if t.Side != "" && t.Side != "l" && t.Side != "r" {
			return fail("trigger-side", "invalid gamepad stick side %q", t.Side)
		}
	case TriggerGamepadTrigger:
		if t.Side != "l" && t.Side != "r" {
			return fail("trigger-side", "invalid gamepad trigger side %q", t.Side)
		}
	default:
		return fail("trigger-type", "unknown trigger type %q", t.Type)
	}
	return nil
}

func inMIDIRange(v uint8) bool { return v <= 127 }

func validateChordMembers(members []uint8, midi bool) error {
	if len(members) < 2 {
		return fail("chord-size", "chord must have at least 2 members, got %d", len(members))
	}
	seen := make(map[uint8]bool, len(members))
	for _, m := range members {
		if seen[m] {
			return fail("chord-unique", "chord member %d repeated", m)
		}
		seen[m] = true
		if midi && !inMIDIRange(m) {
			return fail("chord-range", "chord member %d out of MIDI range", m)
		}
		if !midi && (m < 128 || m > 144) {
			return fail("chord-range", "chord member %d out of gamepad button range", m)
		}
	}
	return nil
}

func collectVelocityRanges(mappings []Mapping, byNote map[uint8][][2]uint8) {
	for _, m := range mappings {
		if m.Trigger.Type == TriggerVelocityRange {
			byNote[m.Trigger.Note] = append(byNote[m.Trigger.Note], [2]uint8{m.Trigger.Min, m.Trigger.Max})
		}
	}
}

func checkNonOverlapping(note uint8, ranges [][2]uint8) error {
	for i := 0; i < len(ranges); i++ {
		for j := i + 1; j < len(ranges); j++ {
			a, b := ranges[i], ranges[j]
			if a[0] <= b[1] && b[0] <= a[1] {
				return fail("velocity-overlap", "note %d has overlapping velocity ranges [%d,%d] and [%d,%d]",
					note, a[0], a[1], b[0], b[1])
			}
		}
	}
	return nil
}

const maxShellLen = 4096

func validateShellSafety(s, field string) error {
	if strings.ContainsRune(s, 0) {
		return fail("shell-safety", "%s contains a null byte", field)
	}
	if len(s) > maxShellLen {
		return fail("shell-safety", "%s exceeds %d bytes", field, maxShellLen)
	}
	return nil
}

// validateAction walks the recursive Action tree, enforcing ModeChange index
// bounds, the Shell/Launch safety check, and Conditional/Condition validity.
// depth guards against pathological nesting in a hand-edited config.
func validateAction(a Action, modeNames map[string]bool, modeCount int, depth int) error {
	if depth > 32 {
		return fail("action-depth", "action nesting exceeds 32 levels")
	}
	switch a.Type {
	case ActionKeystroke, ActionText, ActionVolumeControl, ActionMouseClick, ActionSendMidi:
		// no recursive structure to check beyond basic field sanity
	case ActionLaunch:
		if err := validateShellSafety(a.App, "Launch.app"); err != nil {
			return err
		}
	case ActionShell:
		if err := validateShellSafety(a.Command, "Shell.command"); err != nil {
			return err
		}
		for _, arg := range a.Args {
			if err := validateShellSafety(arg, "Shell.args"); err != nil {
				return err
			}
		}
	case ActionModeChange:
		if !a.Relative {
			if modeCount > 0 && (a.IndexOrOffset < 0 || a.IndexOrOffset >= modeCount) {
				// spec.md §4.5 says absolute index is clamped at execution time,
				// not rejected here; only reject if there are no modes at all.
			}
			if modeCount == 0 {
				return fail("mode-change", "ModeChange with no modes configured")
			}
		}
	case ActionPlugin:
		if a.PluginName == "" {
			return fail("plugin-name", "Plugin action missing name")
		}
	case ActionSequence:
		for i := range a.Steps {
			if err := validateAction(a.Steps[i], modeNames, modeCount, depth+1); err != nil {
				return err
			}
		}
	case ActionDelay:
		if a.DelayMS < 0 {
			return fail("delay", "negative delay_ms")
		}
	case ActionRepeat:
		if a.Count < 0 {
			return fail("repeat-count", "negative repeat count")
		}
		if a.Body == nil {
			return fail("repeat-body", "Repeat action missing body")
		}
		if err := validateAction(*a.Body, modeNames, modeCount, depth+1); err != nil {
			return err
		}
	case ActionConditional:
		if a.Condition == nil {
			return fail("conditional", "Conditional action missing condition")
		}
		if err := validateCondition(*a.Condition, modeNames); err != nil {
			return err
		}
		if a.Then == nil {
			return fail("conditional", "Conditional action missing then branch")
		}
		if err := validateAction(*a.Then, modeNames, modeCount, depth+1); err != nil {
			return err
		}
		if a.Else != nil {
			if err := validateAction(*a.Else, modeNames, modeCount, depth+1); err != nil {
				return err
			}
		}
	default:
		return fail("action-type", "unknown action type %q", a.Type)
	}
	return nil
}

func validateCondition(c Condition, modeNames map[string]bool) error {
	switch c.Type {
	case CondAlways, CondNever, CondAppRunning, CondAppFrontmost, CondModifierHeld:
	case CondTimeRange:
		if c.Start == "" || c.End == "" {
			return fail("time-range", "TimeRange missing start or end")
		}
	case CondDayOfWeek:
		if len(c.Days) == 0 {
			return fail("day-of-week", "DayOfWeek with no days")
		}
	case CondModeIs:
		if !modeNames[c.ModeName] {
			return fail("mode-is", "ModeIs references unknown mode %q", c.ModeName)
		}
	case CondAnd, CondOr:
		for _, sub := range c.Sub {
			if err := validateCondition(sub, modeNames); err != nil {
				return err
			}
		}
	case CondNot:
		if c.Not == nil {
			return fail("not", "Not condition missing operand")
		}
		if err := validateCondition(*c.Not, modeNames); err != nil {
			return err
		}
	default:
		return fail("condition-type", "unknown condition type %q", c.Type)
	}
	return nil
}
