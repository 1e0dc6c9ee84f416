// Package config defines the document schema described in spec.md §3 and §6,
// parses it from TOML, and validates it into a form the mapping engine can
// compile. Unknown fields are rejected per spec.md §6; this is the in-scope
// replacement for the TOML parser's schema (the parser itself is an external
// collaborator per spec.md §1).
package config

// TriggerKind enumerates the TriggerSpec variants from spec.md §3.
type TriggerKind string

const (
	TriggerNote              TriggerKind = "Note"
	TriggerVelocityRange     TriggerKind = "VelocityRange"
	TriggerLongPress         TriggerKind = "LongPress"
	TriggerDoubleTap         TriggerKind = "DoubleTap"
	TriggerNoteChord         TriggerKind = "NoteChord"
	TriggerCC                TriggerKind = "CC"
	TriggerEncoderTurn       TriggerKind = "EncoderTurn"
	TriggerAftertouch        TriggerKind = "Aftertouch"
	TriggerPitchBend         TriggerKind = "PitchBend"
	TriggerGamepadButton     TriggerKind = "GamepadButton"
	TriggerGamepadButtonChord TriggerKind = "GamepadButtonChord"
	TriggerGamepadAnalogStick TriggerKind = "GamepadAnalogStick"
	TriggerGamepadTrigger    TriggerKind = "GamepadTrigger"
)

// TriggerSpec is the declarative precondition attached to a Mapping. Fields
// are interpreted according to Type; fields a given Type does not use are
// ignored, and Validate does not reject them.
type TriggerSpec struct {
	Type TriggerKind `toml:"type"`

	Note    uint8   `toml:"note,omitempty"`
	Members []uint8 `toml:"members,omitempty"`

	Min uint8 `toml:"min,omitempty"`
	Max uint8 `toml:"max,omitempty"`

	HoldMS int64 `toml:"hold_ms,omitempty"`

	CC      uint8 `toml:"cc,omitempty"`
	Channel uint8 `toml:"channel,omitempty"`

	// Direction is "cw", "ccw", or "" (either) for EncoderTurn /
	// GamepadAnalogStick.
	Direction string `toml:"direction,omitempty"`

	Button uint8 `toml:"button,omitempty"`

	// Axis is "x" or "y" for GamepadAnalogStick.
	Axis string `toml:"axis,omitempty"`

	// Side is "l" or "r" for GamepadTrigger, and selects which stick for
	// GamepadAnalogStick (combined with Axis for which of its two axes).
	Side string `toml:"side,omitempty"`
}

// ActionKind enumerates the Action variants from spec.md §3.
type ActionKind string

const (
	ActionKeystroke     ActionKind = "Keystroke"
	ActionText          ActionKind = "Text"
	ActionLaunch        ActionKind = "Launch"
	ActionShell         ActionKind = "Shell"
	ActionVolumeControl ActionKind = "VolumeControl"
	ActionMouseClick    ActionKind = "MouseClick"
	ActionModeChange    ActionKind = "ModeChange"
	ActionSendMidi      ActionKind = "SendMidi"
	ActionPlugin        ActionKind = "Plugin"
	ActionSequence      ActionKind = "Sequence"
	ActionDelay         ActionKind = "Delay"
	ActionRepeat        ActionKind = "Repeat"
	ActionConditional   ActionKind = "Conditional"
)

// CurveKind enumerates SendMidi's velocity-curve transform.
type CurveKind string

const (
	CurveFixed       CurveKind = "Fixed"
	CurvePassThrough CurveKind = "PassThrough"
	CurveLinear      CurveKind = "Linear"
	CurveCurve       CurveKind = "Curve"
)

// VelocityCurve transforms the variable velocity/CC-value field of a
// SendMidi action's active trigger context.
type VelocityCurve struct {
	Type                 CurveKind `toml:"type"`
	Fixed                uint8     `toml:"fixed,omitempty"`
	InMin                uint8     `toml:"in_min,omitempty"`
	InMax                uint8     `toml:"in_max,omitempty"`
	OutMin               uint8     `toml:"out_min,omitempty"`
	OutMax               uint8     `toml:"out_max,omitempty"`
	Gamma                float64   `toml:"gamma,omitempty"`
}

// MidiMessage is the SendMidi action's outbound message template.
type MidiMessage struct {
	// Kind is one of "note_on", "note_off", "cc", "pitch_bend", "aftertouch".
	Kind    string `toml:"kind"`
	Channel uint8  `toml:"channel"`
	Number  uint8  `toml:"number,omitempty"` // note or CC number
	Value   uint8  `toml:"value,omitempty"`  // static value, overridden by Curve if present
}

// Action is the recursive tagged union of effects a mapping can produce.
type Action struct {
	Type ActionKind `toml:"type"`

	// Keystroke
	Keys      []string `toml:"keys,omitempty"`
	Modifiers []string `toml:"modifiers,omitempty"`

	// Text
	Text string `toml:"text,omitempty"`

	// Launch
	App string `toml:"app,omitempty"`

	// Shell
	Command string   `toml:"command,omitempty"`
	Args    []string `toml:"args,omitempty"`

	// VolumeControl
	Op     string `toml:"op,omitempty"`
	Amount *int   `toml:"amount,omitempty"`

	// MouseClick
	Button string `toml:"button,omitempty"`
	X      *int   `toml:"x,omitempty"`
	Y      *int   `toml:"y,omitempty"`

	// ModeChange
	IndexOrOffset int    `toml:"index_or_offset,omitempty"`
	Relative      bool   `toml:"relative,omitempty"`
	Transition    string `toml:"transition,omitempty"`

	// SendMidi
	Port    string         `toml:"port,omitempty"`
	Message *MidiMessage   `toml:"message,omitempty"`
	Curve   *VelocityCurve `toml:"curve,omitempty"`

	// Plugin
	PluginName string                 `toml:"name,omitempty"`
	ActionID   string                 `toml:"action_id,omitempty"`
	Params     map[string]interface{} `toml:"params,omitempty"`

	// Sequence
	Steps []Action `toml:"steps,omitempty"`

	// Delay / inter-step spacing override, also used by Repeat
	DelayMS int64 `toml:"delay_ms,omitempty"`

	// Repeat
	Count int     `toml:"count,omitempty"`
	Body  *Action `toml:"body,omitempty"`

	// Conditional
	Condition *Condition `toml:"condition,omitempty"`
	Then      *Action    `toml:"then,omitempty"`
	Else      *Action    `toml:"else,omitempty"`
}

// ConditionKind enumerates the Condition variants from spec.md §3.
type ConditionKind string

const (
	CondAlways       ConditionKind = "Always"
	CondNever        ConditionKind = "Never"
	CondTimeRange    ConditionKind = "TimeRange"
	CondDayOfWeek    ConditionKind = "DayOfWeek"
	CondAppRunning   ConditionKind = "AppRunning"
	CondAppFrontmost ConditionKind = "AppFrontmost"
	CondModeIs       ConditionKind = "ModeIs"
	CondModifierHeld ConditionKind = "ModifierHeld"
	CondAnd          ConditionKind = "And"
	CondOr           ConditionKind = "Or"
	CondNot          ConditionKind = "Not"
)

// Condition is the recursive logical gate attached to an action.
type Condition struct {
	Type ConditionKind `toml:"type"`

	Start      string   `toml:"start,omitempty"` // TimeRange, "HH:MM"
	End        string   `toml:"end,omitempty"`   // TimeRange, "HH:MM"
	Days       []string `toml:"days,omitempty"`  // DayOfWeek

	App      string `toml:"app,omitempty"`       // AppRunning / AppFrontmost
	ModeName string `toml:"mode,omitempty"`      // ModeIs
	Modifier string `toml:"modifier,omitempty"`  // ModifierHeld

	Sub []Condition `toml:"conditions,omitempty"` // And / Or
	Not *Condition  `toml:"not,omitempty"`
}

// Mapping binds one trigger to one action.
type Mapping struct {
	Description string      `toml:"description,omitempty"`
	Trigger     TriggerSpec `toml:"trigger"`
	Action      Action      `toml:"action"`
}

// Mode is a named, ordered collection of mappings.
type Mode struct {
	Name                 string    `toml:"name"`
	Color                string    `toml:"color,omitempty"`
	LedIdleBrightness    float64   `toml:"led_idle_brightness,omitempty"`
	LedActiveBrightness  float64   `toml:"led_active_brightness,omitempty"`
	Mappings             []Mapping `toml:"mappings,omitempty"`
}

// AdvancedSettings carries the classifier's tunable thresholds.
type AdvancedSettings struct {
	ChordTimeoutMS       int64 `toml:"chord_timeout_ms,omitempty"`
	DoubleTapTimeoutMS   int64 `toml:"double_tap_timeout_ms,omitempty"`
	HoldThresholdMS      int64 `toml:"hold_threshold_ms,omitempty"`
	AftertouchThrottleMS int64 `toml:"aftertouch_throttle_ms,omitempty"`
	PitchBendDelta       int64 `toml:"pitch_bend_delta,omitempty"`
	HysteresisGap        int64 `toml:"hysteresis_gap,omitempty"`
	PanicHotkey          string `toml:"panic_hotkey,omitempty"`

	// EncoderCCs lists every CC number that is a rotary encoder rather than a
	// plain fader/knob CC: these still pass through as raw ControlChange for
	// CC triggers, but are additionally classified into EncoderStep events
	// (spec.md §4.1, §4.2).
	EncoderCCs []uint8 `toml:"encoder_ccs,omitempty"`

	// RelativeEncoderCCs is the subset of EncoderCCs whose controller reports
	// 2s-complement relative deltas (0x01-0x3F CW, 0x41-0x7F CCW) rather than
	// an absolute 0..127 position. CCs in EncoderCCs but not here are treated
	// as absolute, with direction derived from value-delta.
	RelativeEncoderCCs []uint8 `toml:"relative_encoder_ccs,omitempty"`
}

// Defaults fills in the recommended defaults from spec.md §4.2 for any
// zero-valued field.
func (a AdvancedSettings) Defaults() AdvancedSettings {
	if a.ChordTimeoutMS == 0 {
		a.ChordTimeoutMS = 100
	}
	if a.DoubleTapTimeoutMS == 0 {
		a.DoubleTapTimeoutMS = 300
	}
	if a.HoldThresholdMS == 0 {
		a.HoldThresholdMS = 2000
	}
	if a.AftertouchThrottleMS == 0 {
		a.AftertouchThrottleMS = 50
	}
	if a.HysteresisGap == 0 {
		a.HysteresisGap = 10
	}
	return a
}

// PluginSchema is an optional per-plugin JSON Schema (draft understood by
// santhosh-tekuri/jsonschema) used to validate Plugin.Params before dispatch.
type PluginSchema struct {
	Name   string `toml:"name"`
	Schema string `toml:"schema"`
}

// Config is the root configuration document.
type Config struct {
	// DeviceHint is the substring match (device.MatchHint) used to pick the
	// MIDI controller to bind, when more than one is connected.
	DeviceHint string `toml:"device_hint,omitempty"`
	// GamepadHint is passed to the gamepad opener like DeviceHint, but the
	// opener in cmd/padengine does not match on it: it opens the first HID
	// device enumerated, whatever the hint says.
	GamepadHint string `toml:"gamepad_hint,omitempty"`
	AutoConnect bool   `toml:"auto_connect"`

	// PluginSandboxDir roots every Plugin action's executable artifact
	// (spec.md §6's plugin sandbox host "filesystem under a sandbox dir"
	// capability). Defaulted by cmd/padengine if left empty.
	PluginSandboxDir string `toml:"plugin_sandbox_dir,omitempty"`

	AdvancedSettings AdvancedSettings `toml:"advanced_settings,omitempty"`

	Modes          []Mode    `toml:"modes,omitempty"`
	GlobalMappings []Mapping `toml:"global_mappings,omitempty"`

	PluginSchemas []PluginSchema `toml:"plugin_schemas,omitempty"`
}
