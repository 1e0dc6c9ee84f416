package stats

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordEventIncrementsCounter(t *testing.T) {
	s := New()
	s.RecordEvent()
	s.RecordEvent()
	assert.EqualValues(t, 2, s.Snapshot().EventsProcessed)
}

func TestRecordErrorBoundsRing(t *testing.T) {
	s := New()
	for i := 0; i < maxRecentErrors+10; i++ {
		s.RecordError("test", errors.New("boom"))
	}
	snap := s.Snapshot()
	assert.EqualValues(t, maxRecentErrors+10, snap.Errors)
	require.Len(t, snap.RecentErrors, maxRecentErrors)
}

func TestRecordErrorKeepsNewestLast(t *testing.T) {
	s := New()
	s.RecordError("first", errors.New("one"))
	s.RecordError("second", errors.New("two"))
	recent := s.RecentErrors()
	require.Len(t, recent, 2)
	assert.Equal(t, "two", recent[len(recent)-1].Message)
}
