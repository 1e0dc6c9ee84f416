package event

// ProcessedKind tags which variant of ProcessedEvent a value holds.
type ProcessedKind int

const (
	ProcShortPress ProcessedKind = iota
	ProcLongPress
	ProcDoubleTap
	ProcVelocityZone
	ProcChord
	ProcEncoderStep
	ProcCCThreshold
	ProcAftertouchZone
	ProcPitchBendZone
	ProcRawControlChange
	ProcRawPitchBend
	ProcRawAftertouch
)

// VelocityZone names the coarse zone a press velocity falls into when no
// explicit [min,max] range is being matched (spec.md §4.2 default
// breakpoints). Explicit VelocityRange triggers match directly against the
// raw Velocity field on a ProcVelocityZone event instead of this zone.
type VelocityZone int

const (
	ZoneSoft VelocityZone = iota
	ZoneMedium
	ZoneHard
)

// Direction is the resolved turn direction of an encoder or analog stick.
type Direction int

const (
	DirCW Direction = iota
	DirCCW
)

// ProcessedEvent is the classifier's output: a derived gesture or a raw
// passthrough for mappings that want unclassified signal.
type ProcessedEvent struct {
	Kind ProcessedKind
	ID   ID
	T    int64

	Velocity   uint8        // ShortPress raw velocity, VelocityZone raw press velocity
	DurationMS int64        // LongPress
	Zone       VelocityZone // VelocityZone (coarse), AftertouchZone, PitchBendZone
	Members    []ID         // Chord, ordered set of participating ids
	Direction  Direction    // EncoderStep
	CC         uint8        // CCThreshold, RawControlChange
	Value      uint16       // CCThreshold/RawControlChange/RawPitchBend value, PitchBendZone raw value
	Pressure   uint8        // AftertouchZone, RawAftertouch

	FromGUID string
}
