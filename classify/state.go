package classify

import (
	"time"

	"github.com/jdginn/padengine/event"
)

// elementState is the per-element bookkeeping described in spec.md §4.2:
// a press timestamp, last-tap timestamp, pending long-press timer, pending
// chord-member membership, last-seen value, and a hysteresis band.
type elementState struct {
	id event.ID

	pressed   bool
	pressT    int64
	velocity  uint8
	guid      string
	holdTimer *time.Timer
	longFired bool

	lastTapT   int64
	hasLastTap bool

	inChord      bool // currently buffered as part of an open chord window
	releasedDur  int64 // not set: a release while inChord is resolved at once by retractFromChord
	chordReleaseT int64

	lastEncoderValue uint8
	hasEncoderValue  bool

	lastZone    event.VelocityZone
	hasZone     bool
	lastContVal uint16
	lastEmitT   int64
}

// chordWindow tracks one in-flight chord accumulation window (spec.md §4.2
// "Chord"). Membership order is press order, matching the ordered-set the
// Chord ProcessedEvent carries.
type chordWindow struct {
	candidate []event.ID // configured chord this window is trying to match
	pressed   []event.ID // press order so far
	timer     *time.Timer
	firstT    int64
}
