package engine

import (
	"time"

	"github.com/jdginn/padengine/logging"
	"github.com/jdginn/padengine/state"
)

// SetSnapshotPath attaches the recovery-snapshot file this Manager saves to
// on shutdown and loads from on startup (spec.md §6's "state snapshot
// file"). Left empty, snapshotting is skipped entirely.
func (m *Manager) SetSnapshotPath(path string) { m.snapshotPath = path }

// LoadSnapshot reads any prior snapshot, logging (not failing startup) on a
// quarantined or missing file — spec.md §6 says a bad snapshot is
// quarantined, not that it blocks the engine from starting.
func (m *Manager) LoadSnapshot() *state.Snapshot {
	if m.snapshotPath == "" {
		return nil
	}
	log := logging.Get(logging.STATE)
	snap, err := state.Load(m.snapshotPath)
	if err != nil {
		log.Warn("startup snapshot unusable", "err", err)
		return nil
	}
	if snap != nil {
		log.Info("loaded startup snapshot", "lifecycleState", snap.LifecycleState, "savedAt", snap.SavedAt)
	}
	return snap
}

// SaveSnapshot persists the engine's current recovery state. Called on
// graceful shutdown and, by cmd/padengine, best-effort on a fatal error
// before exit (spec.md §7's "on termination the snapshot handler runs
// best-effort").
func (m *Manager) SaveSnapshot() {
	if m.snapshotPath == "" {
		return
	}
	m.mu.RLock()
	snap := state.Snapshot{
		SavedAt:         time.Now(),
		LifecycleState:  m.state.String(),
		ConnectedDevice: m.connectedDeviceLocked(),
		Statistics:      m.stats.Snapshot(),
	}
	m.mu.RUnlock()

	if err := state.Save(m.snapshotPath, snap); err != nil {
		logging.Get(logging.STATE).Warn("could not write snapshot", "err", err)
	}
}
