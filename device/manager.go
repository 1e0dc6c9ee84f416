package device

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jdginn/padengine/event"
	"github.com/jdginn/padengine/logging"
)

// Status mirrors the engine's coarse view of one managed device's health.
type Status int

const (
	StatusConnected Status = iota
	StatusReconnecting
	StatusDegraded
)

func (s Status) String() string {
	switch s {
	case StatusConnected:
		return "Connected"
	case StatusReconnecting:
		return "Reconnecting"
	case StatusDegraded:
		return "Degraded"
	default:
		return "Unknown"
	}
}

// backoffSchedule is spec.md §4.1's reconnection schedule: give up after
// the sixth attempt.
var backoffSchedule = []time.Duration{
	1 * time.Second, 2 * time.Second, 4 * time.Second,
	8 * time.Second, 16 * time.Second, 30 * time.Second,
}

// Port is anything Manager can (re)open and run to ingest InputEvents.
type Port interface {
	Run(ctx context.Context, out chan<- event.InputEvent) error
}

// Opener (re)establishes a Port, e.g. by re-enumerating and opening a MIDI
// or HID handle. Returning an error triggers the next backoff step.
type Opener func() (Port, error)

// Manager owns one physical device's connect/reconnect lifecycle, per
// spec.md §4.1 ("never block the ingress thread more than a few
// milliseconds" — reconnection runs on its own goroutine while Status is
// readable without blocking the classifier).
type Manager struct {
	name string
	open Opener

	mu     sync.RWMutex
	status Status

	// held tracks elements currently believed pressed, updated by the engine
	// as it taps the raw ingress stream, so a reconnect can emit synthetic
	// releases for exactly the stuck ones (spec.md §4.1).
	held map[event.ID]bool

	// attempt counts consecutive failed (re)connect attempts, indexing into
	// backoffSchedule; reset to 0 on every successful connect.
	attempt int

	// runCancel cancels the current connected port's Run, if any, letting
	// ForceReconnect drop a live connection without waiting for it to fail
	// on its own (control socket's SetDevice rebind).
	runCancel context.CancelFunc

	// current is the Port presently running, if connected; egress callers
	// (e.g. cmd/padengine's SendMidi router) read it through Current rather
	// than opening a second, parallel connection of their own.
	current Port
}

// Current returns the Port presently connected, or nil while disconnected
// or reconnecting.
func (m *Manager) Current() Port {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func NewManager(name string, open Opener) *Manager {
	return &Manager{name: name, open: open, held: make(map[event.ID]bool)}
}

// Name returns the device's configured name, used for ListDevices/SetDevice
// reporting over the control socket.
func (m *Manager) Name() string { return m.name }

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
}

// MarkHeld/MarkReleased let the engine keep the manager's view of
// currently-pressed elements in sync with the classifier, so a reconnect
// knows what to synthetically release.
func (m *Manager) MarkHeld(id event.ID) {
	m.mu.Lock()
	m.held[id] = true
	m.mu.Unlock()
}

func (m *Manager) MarkReleased(id event.ID) {
	m.mu.Lock()
	delete(m.held, id)
	m.mu.Unlock()
}

// Run keeps the device connected, emitting InputEvents on out, until ctx is
// cancelled. It never returns until ctx is done (or permanently Degraded),
// since reconnection loops for the life of the engine.
func (m *Manager) Run(ctx context.Context, out chan<- event.InputEvent) {
	log := logging.Get(logging.DEVICE)

	for {
		if ctx.Err() != nil {
			return
		}

		port, err := m.open()
		if err != nil {
			log.Warn("device open failed", "device", m.name, "err", err)
			if !m.backoffAndRetry(ctx) {
				m.setStatus(StatusDegraded)
				log.Error("device gave up reconnecting", "device", m.name)
				return
			}
			continue
		}

		m.mu.Lock()
		m.attempt = 0
		m.current = port
		m.mu.Unlock()
		m.setStatus(StatusConnected)
		m.emitSyntheticReleases(out)
		log.Info("device connected", "device", m.name)

		runCtx, cancel := context.WithCancel(ctx)
		m.mu.Lock()
		m.runCancel = cancel
		m.mu.Unlock()
		err = port.Run(runCtx, out)
		cancel()
		m.mu.Lock()
		m.runCancel = nil
		m.current = nil
		m.mu.Unlock()
		if ctx.Err() != nil {
			return
		}

		log.Warn("device disconnected", "device", m.name, "err", err)
		m.setStatus(StatusReconnecting)
		if !m.backoffAndRetry(ctx) {
			m.setStatus(StatusDegraded)
			log.Error("device gave up reconnecting", "device", m.name)
			return
		}
	}
}

// backoffAndRetry waits through the next step in backoffSchedule, or
// reports false once all six attempts are exhausted.
func (m *Manager) backoffAndRetry(ctx context.Context) bool {
	m.setStatus(StatusReconnecting)

	m.mu.Lock()
	idx := m.attempt
	m.attempt++
	m.mu.Unlock()

	if idx >= len(backoffSchedule) {
		return false
	}

	select {
	case <-ctx.Done():
		return false
	case <-time.After(backoffSchedule[idx]):
	}
	return true
}

// emitSyntheticReleases fires a PadReleased for every element the engine
// last reported as held, preventing a stuck-note state across a reconnect.
func (m *Manager) emitSyntheticReleases(out chan<- event.InputEvent) {
	m.mu.Lock()
	ids := make([]event.ID, 0, len(m.held))
	for id := range m.held {
		ids = append(ids, id)
	}
	m.held = make(map[event.ID]bool)
	m.mu.Unlock()

	now := time.Now().UnixNano()
	for _, id := range ids {
		select {
		case out <- event.PadReleased(id, now, m.name):
		default:
		}
	}
}

// ForceReconnect drops the current connection, if any, causing Run to
// immediately begin its reconnect/backoff path. A no-op if not currently
// connected.
func (m *Manager) ForceReconnect() {
	m.mu.Lock()
	cancel := m.runCancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// MatchHint reports whether a device name satisfies a user-supplied
// substring hint (spec.md §4.1's "substring match on name"), case
// insensitive.
func MatchHint(name, hint string) bool {
	if hint == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(hint))
}

// ErrNoDeviceFound is returned by an Opener when no device matches a hint
// and auto-connect to the first available device is disabled.
var ErrNoDeviceFound = fmt.Errorf("no matching device found")

// PinnedOpener wraps an enumerate-and-open function with a hint that can
// be overridden at runtime, so the control socket's SetDevice command can
// rebind a live Manager to a specific port without tearing it down
// (spec.md §4.8: SetDevice "override[s] device_hint auto-selection").
type PinnedOpener struct {
	mu   sync.RWMutex
	hint string
	open func(hint string) (Port, error)
}

// NewPinnedOpener wraps open, initially using configuredHint (the
// device_hint from config) until SetPreferred overrides it.
func NewPinnedOpener(configuredHint string, open func(hint string) (Port, error)) *PinnedOpener {
	return &PinnedOpener{hint: configuredHint, open: open}
}

// SetPreferred overrides the hint used on the next (re)connect attempt.
func (p *PinnedOpener) SetPreferred(hint string) {
	p.mu.Lock()
	p.hint = hint
	p.mu.Unlock()
}

// Current reports the hint currently in effect.
func (p *PinnedOpener) Current() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.hint
}

// Open implements Opener.
func (p *PinnedOpener) Open() (Port, error) {
	return p.open(p.Current())
}
