// Package state persists the engine's recovery snapshot (spec.md §6: "a
// user-local JSON file written atomically (temp-file + fsync + rename)
// with an embedded integrity checksum. It contains last lifecycle state,
// connected device identity, accumulated statistics, and recent errors.
// On startup, a present-but-invalid snapshot is quarantined, not
// applied."). No pack repo persists an atomic-checksummed snapshot file;
// the temp-file+fsync+rename sequence and the quarantine-on-invalid
// behavior are built directly from that spec text using only os/io/crypto
// stdlib primitives, since no third-party atomic-file-write or checksum
// library appears anywhere in _examples.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jdginn/padengine/logging"
	"github.com/jdginn/padengine/stats"
)

// Snapshot is the persisted recovery document.
type Snapshot struct {
	SavedAt         time.Time       `json:"savedAt"`
	LifecycleState  string          `json:"lifecycleState"`
	ConnectedDevice string          `json:"connectedDevice,omitempty"`
	Statistics      stats.Snapshot  `json:"statistics"`
}

// envelope wraps a Snapshot with the checksum covering its exact encoded
// bytes, so any bit-flip or partial write on disk is detected rather than
// silently applied.
type envelope struct {
	Checksum string          `json:"checksum"`
	Payload  json.RawMessage `json:"payload"`
}

// checksum returns the hex-encoded SHA-256 of payload, spec.md §6's
// "embedded integrity checksum".
func checksum(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Save serializes snap and atomically replaces the file at path: write to
// a sibling temp file, fsync it, then rename over the destination — the
// rename is atomic on every platform this module targets, so a reader
// never observes a half-written file.
func Save(path string, snap Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("state: marshal snapshot: %w", err)
	}
	env := envelope{Checksum: checksum(payload), Payload: payload}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("state: marshal envelope: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("state: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("state: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("state: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("state: fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("state: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("state: rename into place: %w", err)
	}
	return nil
}

// ErrQuarantined reports that path existed but failed its checksum or
// decode; Load leaves the bad file in place under a .quarantined suffix
// rather than deleting it, for post-mortem inspection.
type ErrQuarantined struct {
	Path   string
	Reason error
}

func (e *ErrQuarantined) Error() string {
	return fmt.Sprintf("state: snapshot %s quarantined: %v", e.Path, e.Reason)
}

func (e *ErrQuarantined) Unwrap() error { return e.Reason }

// Load reads and validates the snapshot at path. A missing file returns
// (nil, nil) — there is simply no prior snapshot yet. A present-but-invalid
// file is renamed aside (quarantined) and returns ErrQuarantined; the
// caller proceeds as if no snapshot existed rather than applying
// corrupted state (spec.md §6's "quarantined, not applied").
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("state: read %s: %w", path, err)
	}

	snap, verr := verify(data)
	if verr == nil {
		return snap, nil
	}

	quarantinePath := path + ".quarantined"
	if rerr := os.Rename(path, quarantinePath); rerr != nil {
		logging.Get(logging.STATE).Warn("could not quarantine invalid snapshot", "path", path, "err", rerr)
	} else {
		logging.Get(logging.STATE).Warn("quarantined invalid snapshot", "path", path, "quarantined_to", quarantinePath, "reason", verr)
	}
	return nil, &ErrQuarantined{Path: path, Reason: verr}
}

func verify(data []byte) (*Snapshot, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Checksum != checksum(env.Payload) {
		return nil, fmt.Errorf("checksum mismatch")
	}
	var snap Snapshot
	if err := json.Unmarshal(env.Payload, &snap); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &snap, nil
}
