package mapping

import (
	"github.com/jdginn/padengine/config"
	"github.com/jdginn/padengine/event"
)

// Matches re-checks a candidate Entry's Trigger against the ProcessedEvent
// that produced it, for the parts of a TriggerSpec the (Kind, ID) bucket key
// can't already disambiguate (spec.md §4.3: "the caller evaluates each in
// order and takes the first whose Trigger selector ... passes"). Most
// trigger kinds are fully disambiguated by the bucket key alone and always
// match here; VelocityRange and the directional encoder/analog triggers
// need this second check.
func Matches(t config.TriggerSpec, pe event.ProcessedEvent) bool {
	switch t.Type {
	case config.TriggerVelocityRange:
		return pe.Velocity >= t.Min && pe.Velocity <= t.Max

	case config.TriggerEncoderTurn, config.TriggerGamepadAnalogStick, config.TriggerGamepadTrigger:
		return matchesDirection(t.Direction, pe.Direction)

	default:
		return true
	}
}

func matchesDirection(want string, got event.Direction) bool {
	switch want {
	case "":
		return true
	case "cw":
		return got == event.DirCW
	case "ccw":
		return got == event.DirCCW
	default:
		return false
	}
}
