package mapping

import "go.uber.org/atomic"

// Handle is the lock-free, atomically-swappable reference to the live
// compiled Table. The dispatch loop reads it on every ProcessedEvent; a
// reload builds a brand new Table and swaps it in with a single store, so
// in-flight lookups never observe a half-built table (spec.md §4.7).
type Handle struct {
	v atomic.Value
}

// NewHandle wraps an initial Table.
func NewHandle(t *Table) *Handle {
	h := &Handle{}
	h.v.Store(t)
	return h
}

// Load returns the currently active Table.
func (h *Handle) Load() *Table {
	return h.v.Load().(*Table)
}

// Store atomically installs a newly compiled Table.
func (h *Handle) Store(t *Table) {
	h.v.Store(t)
}
