package event

// Interest is computed by the mapping compiler from a Config and tells the
// classifier which continuous-control zone crossings and which per-id
// debounce behaviors are actually consumed by at least one mapping. This
// resolves the "continuous-value throttling vs explicit zones" open
// question in spec.md §9: a ProcessedEvent for Aftertouch/PitchBend is
// emitted only when the matching Aftertouch/PitchBend flag is set, and ShortPress is
// debounced only for ids with a DoubleTap mapping.
type Interest struct {
	// DoubleTapIDs are element ids that have at least one DoubleTap mapping;
	// ShortPress for these ids is held for double_tap_timeout_ms before
	// emission (spec.md §4.2).
	DoubleTapIDs map[ID]bool

	// Aftertouch/PitchBend are global flags: true iff any mapping anywhere
	// consumes that continuous signal (a mapping on AftertouchZone,
	// PitchBendZone, or the raw passthrough).
	Aftertouch bool
	PitchBend  bool

	// ChordSets lists every configured chord's member set (both NoteChord and
	// GamepadButtonChord), used by the classifier to know which press
	// combinations to accumulate into a chord window.
	ChordSets [][]ID
}

// NewInterest returns an empty Interest with its maps initialized.
func NewInterest() *Interest {
	return &Interest{DoubleTapIDs: make(map[ID]bool)}
}

// DoubleTap reports whether id has a DoubleTap mapping.
func (i *Interest) DoubleTap(id ID) bool {
	if i == nil {
		return false
	}
	return i.DoubleTapIDs[id]
}
