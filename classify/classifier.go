package classify

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jdginn/padengine/event"
)

// timerKind tags an internally generated timer-firing message, fed back
// into the classifier's single processing loop so no lock is needed around
// element state (spec.md §5: "suspension points: only at queue send/receive,
// at timer waits").
type timerKind int

const (
	timerHold timerKind = iota
	timerDoubleTapFlush
	timerChordClose
)

type timerMsg struct {
	kind    timerKind
	id      event.ID
	chordID int
}

// Classifier converts event.InputEvent into event.ProcessedEvent per
// spec.md §4.2.
type Classifier struct {
	settings atomic.Pointer[Settings]
	interest atomic.Pointer[event.Interest]

	// states/chords/nextChord are touched only from the goroutine running
	// Run, so no lock guards them (spec.md §5: classification state is
	// serialized onto a single goroutine instead of mutex-protected).
	states    map[event.ID]*elementState
	chords    map[int]*chordWindow
	nextChord int

	timerCh chan timerMsg
}

// NewClassifier returns a Classifier with the given initial settings.
func NewClassifier(s Settings) *Classifier {
	c := &Classifier{
		states: make(map[event.ID]*elementState),
		chords: make(map[int]*chordWindow),
	}
	c.settings.Store(&s)
	c.interest.Store(event.NewInterest())
	return c
}

// SetSettings atomically swaps the classifier's thresholds, used during a
// config reload (spec.md §4.7).
func (c *Classifier) SetSettings(s Settings) { c.settings.Store(&s) }

// SetInterest atomically swaps the compiler-computed interest set, used
// during a config reload so the classifier knows which continuous-zone
// crossings and which ids' double-tap debounce are actually consumed.
func (c *Classifier) SetInterest(i *event.Interest) {
	if i == nil {
		i = event.NewInterest()
	}
	c.interest.Store(i)
}

func (c *Classifier) cfg() Settings       { return *c.settings.Load() }
func (c *Classifier) want() *event.Interest { return c.interest.Load() }

// Run drains in until the context is cancelled or in is closed, emitting
// derived events to out. It is meant to run on its own dedicated goroutine
// (spec.md §5).
func (c *Classifier) Run(ctx context.Context, in <-chan event.InputEvent, out chan<- event.ProcessedEvent) {
	c.timerCh = make(chan timerMsg, 256)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-in:
			if !ok {
				return
			}
			c.handleInput(ev, out)
		case tm := <-c.timerCh:
			c.handleTimer(tm, out)
		}
	}
}

func (c *Classifier) afterFunc(d time.Duration, msg timerMsg) *time.Timer {
	return time.AfterFunc(d, func() {
		select {
		case c.timerCh <- msg:
		default:
			// backpressure: a saturated timer channel means the loop is
			// behind; dropping a stale timer firing is preferable to
			// blocking the timer goroutine.
		}
	})
}

// handleTimer processes a fired hold, double-tap-flush, or chord-close timer.
// All three run on the single classifier goroutine, so they observe the same
// serialized elementState/chordWindow maps as handleInput (spec.md §5).
func (c *Classifier) handleTimer(tm timerMsg, out chan<- event.ProcessedEvent) {
	switch tm.kind {
	case timerHold:
		st, ok := c.states[tm.id]
		if !ok || !st.pressed || st.inChord {
			return
		}
		st.longFired = true
		emit(out, event.ProcessedEvent{
			Kind: event.ProcLongPress, ID: tm.id, T: time.Now().UnixNano(),
			DurationMS: c.cfg().HoldThreshold.Milliseconds(), FromGUID: st.guid,
		})

	case timerDoubleTapFlush:
		st, ok := c.states[tm.id]
		if !ok || !st.hasLastTap {
			return
		}
		st.hasLastTap = false
		emit(out, event.ProcessedEvent{
			Kind: event.ProcShortPress, ID: tm.id, T: st.lastTapT,
			Velocity: st.velocity, FromGUID: st.guid,
		})

	case timerChordClose:
		w, ok := c.chords[tm.chordID]
		if !ok {
			return
		}
		delete(c.chords, tm.chordID)
		now := time.Now().UnixNano()
		for _, id := range w.pressed {
			st, ok := c.states[id]
			if !ok {
				continue
			}
			st.inChord = false
			elapsed := now - st.pressT
			remaining := c.cfg().HoldThreshold.Nanoseconds() - elapsed
			if remaining <= 0 {
				st.longFired = true
				emit(out, event.ProcessedEvent{
					Kind: event.ProcLongPress, ID: id, T: now,
					DurationMS: elapsed / int64(time.Millisecond), FromGUID: st.guid,
				})
				continue
			}
			st.holdTimer = c.afterFunc(time.Duration(remaining), timerMsg{kind: timerHold, id: id})
			emit(out, event.ProcessedEvent{
				Kind: event.ProcVelocityZone, ID: id, T: st.pressT,
				Velocity: st.velocity, Zone: VelocityZone(st.velocity), FromGUID: st.guid,
			})
		}
	}
}

func (c *Classifier) getOrCreate(id event.ID) *elementState {
	s, ok := c.states[id]
	if !ok {
		s = &elementState{id: id}
		c.states[id] = s
	}
	return s
}

func emit(out chan<- event.ProcessedEvent, pe event.ProcessedEvent) {
	select {
	case out <- pe:
	default:
		// the mapping engine's consumer is expected to keep up; a full
		// channel here would mean the whole pipeline is overloaded, in
		// which case dropping a gesture is preferable to blocking ingress
		// (spec.md §5 backpressure policy).
	}
}

func (c *Classifier) handleInput(ev event.InputEvent, out chan<- event.ProcessedEvent) {
	switch ev.Kind {
	case event.KindPadPressed:
		c.handlePress(ev, out)
	case event.KindPadReleased:
		c.handleRelease(ev, out)
	case event.KindEncoderTurned:
		c.handleEncoder(ev, out)
	case event.KindControlChange:
		c.handleCC(ev, out)
	case event.KindAftertouch:
		c.handleAftertouch(ev, out)
	case event.KindPitchBend:
		c.handlePitchBend(ev, out)
	case event.KindPolyPressure:
		// passthrough; no gesture derivation specified beyond raw relay
	case event.KindProgramChange:
		// passthrough
	}
}

// --- chord bookkeeping helpers ---

func (c *Classifier) chordCandidatesFor(id event.ID) [][]event.ID {
	var out [][]event.ID
	for _, set := range c.want().ChordSets {
		if containsID(set, id) {
			out = append(out, set)
		}
	}
	return out
}

func containsID(s []event.ID, id event.ID) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(s []event.ID, id event.ID) []event.ID {
	out := s[:0]
	for _, v := range s {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func setsEqualUnordered(a, b []event.ID) bool {
	if len(a) != len(b) {
		return false
	}
	count := map[event.ID]int{}
	for _, v := range a {
		count[v]++
	}
	for _, v := range b {
		count[v]--
	}
	for _, n := range count {
		if n != 0 {
			return false
		}
	}
	return true
}

// --- press / release ---

func (c *Classifier) handlePress(ev event.InputEvent, out chan<- event.ProcessedEvent) {
	cfg := c.cfg()
	st := c.getOrCreate(ev.ID)
	st.pressed = true
	st.pressT = ev.T
	st.velocity = ev.Velocity
	st.guid = ev.FromGUID
	st.longFired = false

	if candidates := c.chordCandidatesFor(ev.ID); len(candidates) > 0 {
		for _, cand := range candidates {
			for key, w := range c.chords {
				if setsEqualUnordered(w.candidate, cand) && !containsID(w.pressed, ev.ID) {
					w.pressed = append(w.pressed, ev.ID)
					st.inChord = true
					if len(w.pressed) == len(w.candidate) {
						c.resolveChordComplete(key, w, ev.T, out)
					}
					return
				}
			}
		}
		// No window open yet for any candidate set containing this id: open
		// one on the first candidate and wait out chord_timeout_ms for the
		// rest of the combination (spec.md §4.2 "Chord").
		cand := candidates[0]
		key := c.nextChord
		c.nextChord++
		w := &chordWindow{candidate: cand, pressed: []event.ID{ev.ID}, firstT: ev.T}
		w.timer = c.afterFunc(cfg.ChordTimeout, timerMsg{kind: timerChordClose, chordID: key})
		c.chords[key] = w
		st.inChord = true
		return
	}

	// Not part of any configured chord: start the long-press timer and
	// classify the press velocity immediately (spec.md §4.2: velocity zone
	// is resolved at press time, not at release).
	st.holdTimer = c.afterFunc(cfg.HoldThreshold, timerMsg{kind: timerHold, id: ev.ID})
	emit(out, event.ProcessedEvent{
		Kind: event.ProcVelocityZone, ID: ev.ID, T: ev.T,
		Velocity: ev.Velocity, Zone: VelocityZone(ev.Velocity), FromGUID: ev.FromGUID,
	})
}

// resolveChordComplete fires when every configured member of a chord window
// has pressed within chord_timeout_ms. It suppresses each member's
// individual short/long press entirely (spec.md §4.2, §9).
func (c *Classifier) resolveChordComplete(key int, w *chordWindow, t int64, out chan<- event.ProcessedEvent) {
	w.timer.Stop()
	delete(c.chords, key)

	members := append([]event.ID(nil), w.pressed...)
	for _, id := range members {
		if s, ok := c.states[id]; ok {
			if s.holdTimer != nil {
				s.holdTimer.Stop()
			}
			s.inChord = false
			s.pressed = false
		}
	}
	// Keyed on the lowest member id so the compiled mapping table can bucket
	// chord entries the same way it buckets single-element triggers; the
	// mapping lookup then filters the bucket down to the exact member set.
	keyID := members[0]
	for _, id := range members {
		if id < keyID {
			keyID = id
		}
	}
	emit(out, event.ProcessedEvent{Kind: event.ProcChord, ID: keyID, T: t, Members: members})
}

func (c *Classifier) handleRelease(ev event.InputEvent, out chan<- event.ProcessedEvent) {
	st, ok := c.states[ev.ID]
	if !ok || !st.pressed {
		return // stray release: either unmapped id or already consumed by a resolved chord
	}

	if st.inChord {
		c.retractFromChord(ev.ID, ev.T, out)
		return
	}

	if st.holdTimer != nil {
		st.holdTimer.Stop()
	}
	st.pressed = false

	if st.longFired {
		return // already reported on the hold timer; release itself is silent
	}

	c.emitPressOutcome(ev.ID, ev.T, out)
}

// retractFromChord handles a release that arrives for a press currently
// buffered inside an open chord window, before the window either completed
// or timed out. The element is pulled back out of the candidate set and
// retroactively classified as an ordinary short/long press (spec.md §9's
// chord resolution open question).
func (c *Classifier) retractFromChord(id event.ID, t int64, out chan<- event.ProcessedEvent) {
	st := c.states[id]
	for key, w := range c.chords {
		if containsID(w.pressed, id) {
			w.pressed = removeID(w.pressed, id)
			if len(w.pressed) == 0 {
				w.timer.Stop()
				delete(c.chords, key)
			}
			break
		}
	}
	st.inChord = false
	st.pressed = false

	dur := t - st.pressT
	if dur >= c.cfg().HoldThreshold.Nanoseconds() {
		emit(out, event.ProcessedEvent{
			Kind: event.ProcLongPress, ID: id, T: t,
			DurationMS: dur / int64(time.Millisecond), FromGUID: st.guid,
		})
		return
	}

	emit(out, event.ProcessedEvent{
		Kind: event.ProcVelocityZone, ID: id, T: st.pressT,
		Velocity: st.velocity, Zone: VelocityZone(st.velocity), FromGUID: st.guid,
	})
	c.emitPressOutcome(id, t, out)
}

// emitPressOutcome emits ShortPress, applying double-tap debounce when the
// compiled mapping set cares about double taps for id (spec.md §9).
func (c *Classifier) emitPressOutcome(id event.ID, t int64, out chan<- event.ProcessedEvent) {
	st := c.states[id]

	if !c.want().DoubleTap(id) {
		emit(out, event.ProcessedEvent{Kind: event.ProcShortPress, ID: id, T: t, Velocity: st.velocity, FromGUID: st.guid})
		return
	}

	if st.hasLastTap && t-st.lastTapT <= c.cfg().DoubleTapTimeout.Nanoseconds() {
		st.hasLastTap = false
		emit(out, event.ProcessedEvent{Kind: event.ProcDoubleTap, ID: id, T: t, Velocity: st.velocity, FromGUID: st.guid})
		return
	}

	st.hasLastTap = true
	st.lastTapT = t
	c.afterFunc(c.cfg().DoubleTapTimeout, timerMsg{kind: timerDoubleTapFlush, id: id})
}

// --- encoder / continuous control ---

func (c *Classifier) handleEncoder(ev event.InputEvent, out chan<- event.ProcessedEvent) {
	cfg := c.cfg()
	st := c.getOrCreate(ev.ID)
	value := uint8(ev.Value)

	if cfg.RelativeEncoderCCs[uint8(ev.ID)] {
		if value == 0 || value == 64 {
			return
		}
		dir := event.DirCW
		if value > 64 {
			dir = event.DirCCW
		}
		emit(out, event.ProcessedEvent{Kind: event.ProcEncoderStep, ID: ev.ID, T: ev.T, Direction: dir, FromGUID: ev.FromGUID})
		return
	}

	if !st.hasEncoderValue {
		st.hasEncoderValue = true
		st.lastEncoderValue = value
		return
	}
	if value == st.lastEncoderValue {
		return
	}
	dir := event.DirCW
	if value < st.lastEncoderValue {
		dir = event.DirCCW
	}
	st.lastEncoderValue = value
	emit(out, event.ProcessedEvent{Kind: event.ProcEncoderStep, ID: ev.ID, T: ev.T, Direction: dir, FromGUID: ev.FromGUID})
}

// handleCC always relays the raw controller change, and additionally
// derives an EncoderStep when the controller number is configured as a
// rotary encoder (spec.md §4.1): the same physical twist serves both a raw
// CC trigger and an EncoderTurn trigger.
func (c *Classifier) handleCC(ev event.InputEvent, out chan<- event.ProcessedEvent) {
	emit(out, event.ProcessedEvent{
		Kind: event.ProcRawControlChange, ID: ev.ID, T: ev.T,
		CC: ev.CC, Value: ev.Value, FromGUID: ev.FromGUID,
	})
	if c.cfg().EncoderCCs[ev.CC] {
		c.handleEncoder(ev, out)
	}
}

const (
	aftertouchStateID event.ID = event.MinReserved
	pitchBendStateID  event.ID = event.MinReserved + 1
)

func absDiffU8(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

func absDiffU16(a, b uint16) uint16 {
	if a > b {
		return a - b
	}
	return b - a
}

func (c *Classifier) handleAftertouch(ev event.InputEvent, out chan<- event.ProcessedEvent) {
	if !c.want().Aftertouch {
		return
	}
	cfg := c.cfg()
	st := c.getOrCreate(aftertouchStateID)

	if st.hasZone && absDiffU8(ev.Pressure, uint8(st.lastContVal)) < cfg.HysteresisGap {
		return
	}
	if st.hasZone && ev.T-st.lastEmitT < cfg.AftertouchThrottle.Nanoseconds() {
		return
	}

	st.hasZone = true
	st.lastContVal = uint16(ev.Pressure)
	st.lastEmitT = ev.T

	emit(out, event.ProcessedEvent{
		Kind: event.ProcAftertouchZone, T: ev.T,
		Pressure: ev.Pressure, Zone: VelocityZone(ev.Pressure), FromGUID: ev.FromGUID,
	})
}

func (c *Classifier) handlePitchBend(ev event.InputEvent, out chan<- event.ProcessedEvent) {
	if !c.want().PitchBend {
		return
	}
	cfg := c.cfg()
	st := c.getOrCreate(pitchBendStateID)

	delta := cfg.PitchBendDelta
	if delta == 0 {
		delta = 256
	}
	if st.hasZone && absDiffU16(ev.Value, st.lastContVal) < delta {
		return
	}

	st.hasZone = true
	st.lastContVal = ev.Value
	st.lastEmitT = ev.T

	// 14-bit pitch bend range (0..16383) mapped onto the same three-band
	// scheme as velocity, centered at 8192.
	zone := event.ZoneMedium
	switch {
	case ev.Value < 5461:
		zone = event.ZoneSoft
	case ev.Value > 10922:
		zone = event.ZoneHard
	}

	emit(out, event.ProcessedEvent{
		Kind: event.ProcPitchBendZone, T: ev.T,
		Value: ev.Value, Zone: zone, FromGUID: ev.FromGUID,
	})
}
