package mapping

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/jdginn/padengine/config"
	"github.com/jdginn/padengine/event"
)

// Compile turns a validated config.Config into a Table plus the
// event.Interest the classifier needs, per spec.md §4.3's compiled-lookup
// design and §9's continuous-signal/double-tap opt-in.
func Compile(cfg *config.Config) (*Table, error) {
	interest := event.NewInterest()

	var globalEntries []Entry
	for _, m := range cfg.GlobalMappings {
		e, err := compileEntry("", m)
		if err != nil {
			return nil, err
		}
		recordInterest(interest, m.Trigger)
		globalEntries = append(globalEntries, e)
	}

	byMode := make(map[string][]bucket, len(cfg.Modes))
	modeNames := make([]string, 0, len(cfg.Modes))
	for _, mode := range cfg.Modes {
		modeNames = append(modeNames, mode.Name)
		var entries []Entry
		for _, m := range mode.Mappings {
			e, err := compileEntry(mode.Name, m)
			if err != nil {
				return nil, fmt.Errorf("mode %q: %w", mode.Name, err)
			}
			recordInterest(interest, m.Trigger)
			entries = append(entries, e)
		}
		byMode[mode.Name] = bucketize(entries)
	}

	interest.ChordSets = lo.UniqBy(interest.ChordSets, func(members []event.ID) string {
		sorted := append([]event.ID(nil), members...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		return fmt.Sprint(sorted)
	})

	return &Table{
		byMode:   byMode,
		global:   bucketize(globalEntries),
		modes:    modeNames,
		interest: interest,
	}, nil
}

func bucketize(entries []Entry) []bucket {
	grouped := lo.GroupBy(entries, func(e Entry) Key { return keyFor(e.Trigger) })
	keys := lo.Keys(grouped)
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		return keys[i].ID < keys[j].ID
	})
	out := make([]bucket, 0, len(keys))
	for _, k := range keys {
		out = append(out, bucket{key: k, entries: grouped[k]})
	}
	return out
}

func compileEntry(mode string, m config.Mapping) (Entry, error) {
	if _, err := keyForChecked(m.Trigger); err != nil {
		return Entry{}, err
	}
	return Entry{Mode: mode, Description: m.Description, Trigger: m.Trigger, Action: m.Action}, nil
}

// keyForChecked validates that the trigger type is one this compiler knows
// how to bucket, returning the same Key keyFor would.
func keyForChecked(t config.TriggerSpec) (Key, error) {
	switch t.Type {
	case config.TriggerNote, config.TriggerVelocityRange, config.TriggerLongPress,
		config.TriggerDoubleTap, config.TriggerNoteChord, config.TriggerCC,
		config.TriggerEncoderTurn, config.TriggerAftertouch, config.TriggerPitchBend,
		config.TriggerGamepadButton, config.TriggerGamepadButtonChord,
		config.TriggerGamepadAnalogStick, config.TriggerGamepadTrigger:
		return keyFor(t), nil
	default:
		return Key{}, fmt.Errorf("unknown trigger type %q", t.Type)
	}
}

// keyFor maps a trigger to the ProcessedEvent bucket it is matched against.
// This is the compiler's half of the contract with classify's emission
// rules: every (Kind, ID) pair here must match what the classifier actually
// stamps on the corresponding ProcessedEvent.
func keyFor(t config.TriggerSpec) Key {
	switch t.Type {
	case config.TriggerNote:
		return Key{Kind: event.ProcShortPress, ID: event.ID(t.Note)}
	case config.TriggerVelocityRange:
		return Key{Kind: event.ProcVelocityZone, ID: event.ID(t.Note)}
	case config.TriggerLongPress:
		return Key{Kind: event.ProcLongPress, ID: event.ID(t.Note)}
	case config.TriggerDoubleTap:
		return Key{Kind: event.ProcDoubleTap, ID: event.ID(t.Note)}
	case config.TriggerNoteChord:
		return Key{Kind: event.ProcChord, ID: minID(t.Members)}
	case config.TriggerCC:
		return Key{Kind: event.ProcRawControlChange, ID: event.ID(t.CC)}
	case config.TriggerEncoderTurn:
		return Key{Kind: event.ProcEncoderStep, ID: event.ID(t.CC)}
	case config.TriggerAftertouch:
		return Key{Kind: event.ProcAftertouchZone, ID: 0}
	case config.TriggerPitchBend:
		return Key{Kind: event.ProcPitchBendZone, ID: 0}
	case config.TriggerGamepadButton:
		return Key{Kind: event.ProcShortPress, ID: event.ID(t.Button)}
	case config.TriggerGamepadButtonChord:
		return Key{Kind: event.ProcChord, ID: minID(t.Members)}
	case config.TriggerGamepadAnalogStick:
		id := event.GamepadStickLX
		switch {
		case t.Side == "r" && t.Axis == "y":
			id = event.GamepadStickRY
		case t.Side == "r":
			id = event.GamepadStickRX
		case t.Axis == "y":
			id = event.GamepadStickLY
		}
		return Key{Kind: event.ProcEncoderStep, ID: id}
	case config.TriggerGamepadTrigger:
		id := event.GamepadTriggerL
		if t.Side == "r" {
			id = event.GamepadTriggerR
		}
		return Key{Kind: event.ProcEncoderStep, ID: id}
	default:
		return Key{}
	}
}

func minID(members []uint8) event.ID {
	min := event.ID(255)
	for _, m := range members {
		if event.ID(m) < min {
			min = event.ID(m)
		}
	}
	return min
}

func recordInterest(interest *event.Interest, t config.TriggerSpec) {
	switch t.Type {
	case config.TriggerDoubleTap:
		interest.DoubleTapIDs[event.ID(t.Note)] = true
	case config.TriggerNoteChord, config.TriggerGamepadButtonChord:
		members := make([]event.ID, len(t.Members))
		for i, m := range t.Members {
			members[i] = event.ID(m)
		}
		interest.ChordSets = append(interest.ChordSets, members)
	case config.TriggerAftertouch:
		interest.Aftertouch = true
	case config.TriggerPitchBend:
		interest.PitchBend = true
	}
}
