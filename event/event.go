// Package event defines the normalized input event type that every ingress
// source (MIDI or HID gamepad) converts into, and the single u8 identifier
// namespace those events share.
package event

import "fmt"

// ID is an element identifier in the shared 0..=255 namespace.
//
// 0..=127 are MIDI note/CC numbers. 128..=144 are gamepad buttons.
// 128..=133 double as gamepad analog axes (sticks x/y, triggers) reported
// through EncoderTurned rather than PadPressed/PadReleased. 145..=255 are
// reserved.
type ID uint8

const (
	MinMIDI = ID(0)
	MaxMIDI = ID(127)

	MinGamepadButton = ID(128)
	MaxGamepadButton = ID(144)

	GamepadStickLX   = ID(128)
	GamepadStickLY   = ID(129)
	GamepadStickRX   = ID(130)
	GamepadStickRY   = ID(131)
	GamepadTriggerL  = ID(132)
	GamepadTriggerR  = ID(133)
	MaxGamepadAnalog = ID(133)

	GamepadDigitalTriggerL = ID(143)
	GamepadDigitalTriggerR = ID(144)

	MinReserved = ID(145)
)

// IsMIDI reports whether id falls in the MIDI note/CC partition.
func (id ID) IsMIDI() bool { return id <= MaxMIDI }

// IsGamepad reports whether id falls in the gamepad button or analog-axis
// partition.
func (id ID) IsGamepad() bool { return id >= MinGamepadButton && id <= MaxGamepadButton }

// Kind tags which variant of InputEvent a value holds.
type Kind int

const (
	KindPadPressed Kind = iota
	KindPadReleased
	KindEncoderTurned
	KindPolyPressure
	KindAftertouch
	KindPitchBend
	KindProgramChange
	KindControlChange
)

func (k Kind) String() string {
	switch k {
	case KindPadPressed:
		return "PadPressed"
	case KindPadReleased:
		return "PadReleased"
	case KindEncoderTurned:
		return "EncoderTurned"
	case KindPolyPressure:
		return "PolyPressure"
	case KindAftertouch:
		return "Aftertouch"
	case KindPitchBend:
		return "PitchBend"
	case KindProgramChange:
		return "ProgramChange"
	case KindControlChange:
		return "ControlChange"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// InputEvent is the normalized, immutable carrier for a single physical
// input occurrence. Exactly one of the fields named after a Kind is
// meaningful for a given event; Kind says which.
type InputEvent struct {
	Kind Kind
	ID   ID
	T    int64 // monotonic nanoseconds

	Velocity  uint8  // PadPressed: 0..=127
	Value     uint16 // EncoderTurned (0..=127), ControlChange (0..=127), PitchBend (0..=16383)
	Pressure  uint8  // PolyPressure, Aftertouch
	Program   uint8  // ProgramChange
	CC        uint8  // ControlChange controller number
	FromGUID  string // device identity this event originated from
}

func PadPressed(id ID, velocity uint8, t int64, guid string) InputEvent {
	return InputEvent{Kind: KindPadPressed, ID: id, Velocity: velocity, T: t, FromGUID: guid}
}

func PadReleased(id ID, t int64, guid string) InputEvent {
	return InputEvent{Kind: KindPadReleased, ID: id, T: t, FromGUID: guid}
}

func EncoderTurned(id ID, value uint8, t int64, guid string) InputEvent {
	return InputEvent{Kind: KindEncoderTurned, ID: id, Value: uint16(value), T: t, FromGUID: guid}
}

func ControlChange(cc, value uint8, t int64, guid string) InputEvent {
	return InputEvent{Kind: KindControlChange, ID: ID(cc), CC: cc, Value: uint16(value), T: t, FromGUID: guid}
}

func PitchBend(value uint16, t int64, guid string) InputEvent {
	return InputEvent{Kind: KindPitchBend, Value: value, T: t, FromGUID: guid}
}

func Aftertouch(pressure uint8, t int64, guid string) InputEvent {
	return InputEvent{Kind: KindAftertouch, Pressure: pressure, T: t, FromGUID: guid}
}

func PolyPressure(id ID, pressure uint8, t int64, guid string) InputEvent {
	return InputEvent{Kind: KindPolyPressure, ID: id, Pressure: pressure, T: t, FromGUID: guid}
}

func ProgramChange(program uint8, t int64, guid string) InputEvent {
	return InputEvent{Kind: KindProgramChange, Program: program, T: t, FromGUID: guid}
}
