package classify

import (
	"context"
	"testing"
	"time"

	"github.com/jdginn/padengine/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastSettings shrinks every timeout so tests don't need to wait out the
// spec.md §4.2 defaults.
func fastSettings() Settings {
	return Settings{
		ChordTimeout:       20 * time.Millisecond,
		DoubleTapTimeout:   30 * time.Millisecond,
		HoldThreshold:      30 * time.Millisecond,
		AftertouchThrottle:  5 * time.Millisecond,
		PitchBendDelta:     256,
		HysteresisGap:      5,
		EncoderCCs:         map[uint8]bool{},
		RelativeEncoderCCs: map[uint8]bool{},
	}
}

func startClassifier(t *testing.T, s Settings, interest *event.Interest) (chan event.InputEvent, chan event.ProcessedEvent) {
	t.Helper()
	c := NewClassifier(s)
	if interest != nil {
		c.SetInterest(interest)
	}
	in := make(chan event.InputEvent, 32)
	out := make(chan event.ProcessedEvent, 32)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go c.Run(ctx, in, out)
	return in, out
}

func drain(t *testing.T, out <-chan event.ProcessedEvent, window time.Duration) []event.ProcessedEvent {
	t.Helper()
	deadline := time.After(window)
	var got []event.ProcessedEvent
	for {
		select {
		case pe := <-out:
			got = append(got, pe)
		case <-deadline:
			return got
		}
	}
}

func kinds(evs []event.ProcessedEvent) []event.ProcessedKind {
	out := make([]event.ProcessedKind, len(evs))
	for i, e := range evs {
		out[i] = e.Kind
	}
	return out
}

func TestShortPressEmitsVelocityZoneThenShortPress(t *testing.T) {
	assert := assert.New(t)
	in, out := startClassifier(t, fastSettings(), nil)

	now := time.Now().UnixNano()
	in <- event.PadPressed(60, 90, now, "dev1")
	in <- event.PadReleased(60, now+5_000_000, "dev1")

	got := drain(t, out, 60*time.Millisecond)
	require.Len(t, got, 2)
	assert.Equal(event.ProcVelocityZone, got[0].Kind)
	assert.Equal(uint8(90), got[0].Velocity)
	assert.Equal(event.ZoneHard, got[0].Zone)
	assert.Equal(event.ProcShortPress, got[1].Kind)
	assert.Equal(event.ID(60), got[1].ID)
}

func TestLongPressFiresOnHoldTimeoutAndSuppressesShortPress(t *testing.T) {
	assert := assert.New(t)
	s := fastSettings()
	in, out := startClassifier(t, s, nil)

	now := time.Now().UnixNano()
	in <- event.PadPressed(61, 100, now, "dev1")

	got := drain(t, out, 80*time.Millisecond)
	require.Len(t, got, 2) // VelocityZone at press, LongPress from the hold timer
	assert.Equal(event.ProcLongPress, got[len(got)-1].Kind)

	// A release arriving after the long press fired must not emit anything.
	in <- event.PadReleased(61, time.Now().UnixNano(), "dev1")
	extra := drain(t, out, 20*time.Millisecond)
	assert.Empty(extra)
}

func TestDoubleTapDebounced(t *testing.T) {
	assert := assert.New(t)
	s := fastSettings()
	interest := event.NewInterest()
	interest.DoubleTapIDs[62] = true
	in, out := startClassifier(t, s, interest)

	now := time.Now().UnixNano()
	in <- event.PadPressed(62, 80, now, "dev1")
	in <- event.PadReleased(62, now+1_000_000, "dev1")
	in <- event.PadPressed(62, 80, now+5_000_000, "dev1")
	in <- event.PadReleased(62, now+6_000_000, "dev1")

	got := drain(t, out, 60*time.Millisecond)
	var doubleTaps, shortPresses int
	for _, pe := range got {
		switch pe.Kind {
		case event.ProcDoubleTap:
			doubleTaps++
		case event.ProcShortPress:
			shortPresses++
		}
	}
	assert.Equal(1, doubleTaps)
	assert.Equal(0, shortPresses)
}

func TestDoubleTapFlushesAsShortPressWhenNoSecondTap(t *testing.T) {
	assert := assert.New(t)
	s := fastSettings()
	interest := event.NewInterest()
	interest.DoubleTapIDs[63] = true
	in, out := startClassifier(t, s, interest)

	now := time.Now().UnixNano()
	in <- event.PadPressed(63, 70, now, "dev1")
	in <- event.PadReleased(63, now+1_000_000, "dev1")

	got := drain(t, out, 80*time.Millisecond)
	var shortPresses, doubleTaps int
	for _, pe := range got {
		switch pe.Kind {
		case event.ProcShortPress:
			shortPresses++
		case event.ProcDoubleTap:
			doubleTaps++
		}
	}
	assert.Equal(1, shortPresses)
	assert.Equal(0, doubleTaps)
}

func TestChordResolvesAndSuppressesIndividualPresses(t *testing.T) {
	assert := assert.New(t)
	s := fastSettings()
	interest := event.NewInterest()
	interest.ChordSets = [][]event.ID{{64, 65}}
	in, out := startClassifier(t, s, interest)

	now := time.Now().UnixNano()
	in <- event.PadPressed(64, 100, now, "dev1")
	in <- event.PadPressed(65, 100, now+2_000_000, "dev1")
	in <- event.PadReleased(64, now+10_000_000, "dev1")
	in <- event.PadReleased(65, now+10_000_000, "dev1")

	got := drain(t, out, 60*time.Millisecond)
	require.Len(t, got, 1)
	assert.Equal(event.ProcChord, got[0].Kind)
	assert.ElementsMatch([]event.ID{64, 65}, got[0].Members)
}

func TestChordMemberReleasedEarlyFallsBackToIndividualPress(t *testing.T) {
	assert := assert.New(t)
	s := fastSettings()
	interest := event.NewInterest()
	interest.ChordSets = [][]event.ID{{66, 67}}
	in, out := startClassifier(t, s, interest)

	now := time.Now().UnixNano()
	in <- event.PadPressed(66, 100, now, "dev1")
	// 66 releases before 67 ever presses: the chord window never completes
	// for 66, so it must retroactively resolve as its own short press.
	in <- event.PadReleased(66, now+1_000_000, "dev1")

	got := drain(t, out, 60*time.Millisecond)
	var sawShortPress bool
	for _, pe := range got {
		if pe.Kind == event.ProcShortPress && pe.ID == 66 {
			sawShortPress = true
		}
		assert.NotEqual(event.ProcChord, pe.Kind)
	}
	assert.True(sawShortPress)
}

func TestEncoderAbsoluteDirection(t *testing.T) {
	assert := assert.New(t)
	in, out := startClassifier(t, fastSettings(), nil)

	in <- event.EncoderTurned(20, 10, time.Now().UnixNano(), "dev1")
	in <- event.EncoderTurned(20, 20, time.Now().UnixNano(), "dev1")
	in <- event.EncoderTurned(20, 15, time.Now().UnixNano(), "dev1")

	got := drain(t, out, 30*time.Millisecond)
	require.Len(t, got, 2) // first sample just seeds lastEncoderValue
	assert.Equal(event.DirCW, got[0].Direction)
	assert.Equal(event.DirCCW, got[1].Direction)
}

func TestEncoderRelativeDirection(t *testing.T) {
	assert := assert.New(t)
	s := fastSettings()
	s.RelativeEncoderCCs[21] = true
	in, out := startClassifier(t, s, nil)

	in <- event.EncoderTurned(21, 1, time.Now().UnixNano(), "dev1")
	in <- event.EncoderTurned(21, 127, time.Now().UnixNano(), "dev1")
	in <- event.EncoderTurned(21, 64, time.Now().UnixNano(), "dev1") // no-op center value

	got := drain(t, out, 30*time.Millisecond)
	require.Len(t, got, 2)
	assert.Equal(event.DirCW, got[0].Direction)
	assert.Equal(event.DirCCW, got[1].Direction)
}

func TestAftertouchGatedByInterest(t *testing.T) {
	assert := assert.New(t)
	s := fastSettings()
	in, out := startClassifier(t, s, nil) // Aftertouch interest left false

	in <- event.Aftertouch(100, time.Now().UnixNano(), "dev1")
	got := drain(t, out, 20*time.Millisecond)
	assert.Empty(got)

	interest := event.NewInterest()
	interest.Aftertouch = true
	in2, out2 := startClassifier(t, s, interest)
	in2 <- event.Aftertouch(100, time.Now().UnixNano(), "dev1")
	got2 := drain(t, out2, 20*time.Millisecond)
	require.Len(t, got2, 1)
	assert.Equal(event.ProcAftertouchZone, got2[0].Kind)
	assert.Equal(uint8(100), got2[0].Pressure)
}

func TestControlChangeAlsoDerivesEncoderStepWhenConfigured(t *testing.T) {
	assert := assert.New(t)
	s := fastSettings()
	s.EncoderCCs[22] = true
	in, out := startClassifier(t, s, nil)

	in <- event.ControlChange(22, 10, time.Now().UnixNano(), "dev1")
	in <- event.ControlChange(22, 20, time.Now().UnixNano(), "dev1")

	got := drain(t, out, 30*time.Millisecond)
	var sawEncoderStep, sawRaw int
	for _, pe := range got {
		switch pe.Kind {
		case event.ProcEncoderStep:
			sawEncoderStep++
		case event.ProcRawControlChange:
			sawRaw++
		}
	}
	assert.Equal(1, sawEncoderStep) // first CC only seeds lastEncoderValue
	assert.Equal(2, sawRaw)
}

func TestRawControlChangeAlwaysPassesThrough(t *testing.T) {
	assert := assert.New(t)
	in, out := startClassifier(t, fastSettings(), nil)

	in <- event.ControlChange(7, 64, time.Now().UnixNano(), "dev1")
	got := drain(t, out, 20*time.Millisecond)
	require.Len(t, got, 1)
	assert.Equal(event.ProcRawControlChange, got[0].Kind)
	assert.Equal(uint8(7), got[0].CC)
	assert.Equal(uint16(64), got[0].Value)
}
