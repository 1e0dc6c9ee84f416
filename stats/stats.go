// Package stats implements spec.md §3's EngineStatistics: monotonic
// counters plus a bounded ring of recent errors, lifetime = process.
// Grounded on the teacher's logging package's per-category independence
// (one concern, one small owned piece of state) generalized from log
// levels to counters.
package stats

import (
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/atomic"
)

// maxRecentErrors bounds the error ring spec.md §3 requires; older entries
// are dropped as new ones arrive.
const maxRecentErrors = 50

// RecordedError is one entry in the recent-error ring.
type RecordedError struct {
	At      time.Time
	Kind    string
	Message string
}

// Statistics is the engine manager's single owned instance, read by the
// control socket's Status command and serialized into the state snapshot.
type Statistics struct {
	EventsProcessed atomic.Int64
	Reloads         atomic.Int64
	Errors          atomic.Int64

	mu     sync.Mutex
	recent []RecordedError
}

func New() *Statistics {
	return &Statistics{}
}

// RecordEvent increments the events-processed counter (spec.md §4.7
// "collect statistics").
func (s *Statistics) RecordEvent() {
	s.EventsProcessed.Inc()
}

// RecordReload increments the reload counter.
func (s *Statistics) RecordReload() {
	s.Reloads.Inc()
}

// RecordError increments the error counter and appends to the bounded
// recent-error ring, trimmed to the newest maxRecentErrors entries.
func (s *Statistics) RecordError(kind string, err error) {
	s.Errors.Inc()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = append(s.recent, RecordedError{At: time.Now(), Kind: kind, Message: err.Error()})
	// lo.Subset with a negative offset keeps the trailing N elements,
	// exactly the "bounded ring" spec.md §3 calls for without hand-rolling
	// a circular index.
	s.recent = lo.Subset(s.recent, -maxRecentErrors, maxRecentErrors)
}

// RecentErrors returns a copy of the current error ring, newest last.
func (s *Statistics) RecentErrors() []RecordedError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedError(nil), s.recent...)
}

// Snapshot is the plain-data view persisted by the state package.
type Snapshot struct {
	EventsProcessed int64           `json:"eventsProcessed"`
	Reloads         int64           `json:"reloads"`
	Errors          int64           `json:"errors"`
	RecentErrors    []RecordedError `json:"recentErrors,omitempty"`
}

func (s *Statistics) Snapshot() Snapshot {
	return Snapshot{
		EventsProcessed: s.EventsProcessed.Load(),
		Reloads:         s.Reloads.Load(),
		Errors:          s.Errors.Load(),
		RecentErrors:    s.RecentErrors(),
	}
}
