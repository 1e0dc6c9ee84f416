// Package engine owns the lifecycle state machine, the compiled mapping
// table, and the control-socket front end that together make up the
// running service (spec.md §4.7). There is no single teacher file this
// package adapts: the teacher's main.go wires a fixed device/DAW binding
// with no lifecycle, reload, or control plane at all. Manager is built
// directly from spec.md §4.7's responsibility list, in the teacher's
// general idiom of an explicit collaborator-holding struct — the same
// shape action.Executor uses for its own collaborators.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jdginn/padengine/action"
	"github.com/jdginn/padengine/classify"
	"github.com/jdginn/padengine/config"
	"github.com/jdginn/padengine/configwatch"
	"github.com/jdginn/padengine/control"
	"github.com/jdginn/padengine/device"
	"github.com/jdginn/padengine/event"
	"github.com/jdginn/padengine/logging"
	"github.com/jdginn/padengine/mapping"
	"github.com/jdginn/padengine/stats"
)

// inputQueueSize bounds the raw and processed event channels so a stalled
// downstream stage applies backpressure instead of growing without limit.
const inputQueueSize = 1024

// deviceStatusPoll is how often monitorDevices re-checks device.Manager
// status to drive the Degraded/Reconnecting lifecycle transitions.
const deviceStatusPoll = 250 * time.Millisecond

// Devices groups the device managers the engine supervises, plus the
// pinned openers backing them so SetDevice can rebind a running Manager.
// Either slot may be left nil if that input modality isn't configured.
type Devices struct {
	MIDI       *device.Manager
	MIDIOpener *device.PinnedOpener

	Gamepad       *device.Manager
	GamepadOpener *device.PinnedOpener
}

// Manager is the engine manager spec.md §4.7 describes: it owns the
// lifecycle State, the atomically-swapped mapping.Handle, the classifier
// and executor, the device managers, the config watcher, the control
// socket, and the statistics collector.
type Manager struct {
	mu          sync.RWMutex
	state       State
	startedAt   time.Time
	configPath  string
	cfg         *config.Config
	currentMode string

	table      *mapping.Handle
	classifier *classify.Classifier
	executor   *action.Executor
	devices    Devices
	watcher    *configwatch.Watcher
	socket     *control.Server
	stats      *stats.Statistics
	led        LEDFeedback
	snapshotPath string

	eventCh     chan event.InputEvent
	processedCh chan event.ProcessedEvent

	cancel context.CancelFunc
}

// NewManager compiles the initial config into a mapping table, wires it
// into classifier and executor, and returns a Manager in StateInit. The
// caller (cmd/padengine) owns constructing executor's platform
// collaborators and devices' Openers before calling this.
func NewManager(configPath string, cfg *config.Config, executor *action.Executor, classifier *classify.Classifier, devices Devices) (*Manager, error) {
	table, err := mapping.Compile(cfg)
	if err != nil {
		return nil, fmt.Errorf("engine: compiling initial config: %w", err)
	}

	m := &Manager{
		state:       StateInit,
		configPath:  configPath,
		cfg:         cfg,
		table:       mapping.NewHandle(table),
		classifier:  classifier,
		executor:    executor,
		devices:     devices,
		stats:       stats.New(),
		eventCh:     make(chan event.InputEvent, inputQueueSize),
		processedCh: make(chan event.ProcessedEvent, inputQueueSize),
	}

	classifier.SetSettings(settingsFromConfig(cfg))
	classifier.SetInterest(table.Interest())
	if modes := table.Modes(); len(modes) > 0 {
		m.currentMode = modes[0]
	}
	executor.Modes = m

	return m, nil
}

// SetSocket attaches the control socket this Manager backs. Kept separate
// from NewManager because control.NewServer needs a live Backend, and
// Manager is that Backend.
func (m *Manager) SetSocket(s *control.Server) { m.socket = s }

// SetWatcher attaches the config-file watcher driving automatic reloads.
func (m *Manager) SetWatcher(w *configwatch.Watcher) { m.watcher = w }

func settingsFromConfig(cfg *config.Config) classify.Settings {
	a := cfg.AdvancedSettings
	encoderCCs := make(map[uint8]bool, len(a.EncoderCCs))
	for _, cc := range a.EncoderCCs {
		encoderCCs[cc] = true
	}
	relativeCCs := make(map[uint8]bool, len(a.RelativeEncoderCCs))
	for _, cc := range a.RelativeEncoderCCs {
		relativeCCs[cc] = true
	}
	return classify.Settings{
		ChordTimeout:       time.Duration(a.ChordTimeoutMS) * time.Millisecond,
		DoubleTapTimeout:   time.Duration(a.DoubleTapTimeoutMS) * time.Millisecond,
		HoldThreshold:      time.Duration(a.HoldThresholdMS) * time.Millisecond,
		AftertouchThrottle: time.Duration(a.AftertouchThrottleMS) * time.Millisecond,
		PitchBendDelta:     uint16(a.PitchBendDelta),
		HysteresisGap:      uint8(a.HysteresisGap),
		EncoderCCs:         encoderCCs,
		RelativeEncoderCCs: relativeCCs,
	}
}

// State reports the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// transition moves the lifecycle forward, rejecting any edge not in
// legalTransitions.
func (m *Manager) transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !canTransition(m.state, to) {
		return &ErrIllegalTransition{From: m.state, To: to}
	}
	log := logging.Get(logging.ENGINE)
	log.Info("lifecycle transition", "from", m.state, "to", to)
	m.state = to
	return nil
}

// Run starts every subsystem goroutine and blocks until ctx is cancelled or
// Stop is called, then drives the Stopping/Stopped shutdown sequence before returning.
func (m *Manager) Run(ctx context.Context) error {
	log := logging.Get(logging.ENGINE)

	if err := m.transition(StateStarting); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancel = cancel
	m.startedAt = time.Now()
	m.mu.Unlock()

	var wg sync.WaitGroup
	runGoroutine := func(f func()) {
		wg.Add(1)
		go func() { defer wg.Done(); f() }()
	}

	if m.devices.MIDI != nil {
		runGoroutine(func() { m.runDevice(runCtx, m.devices.MIDI) })
	}
	if m.devices.Gamepad != nil {
		runGoroutine(func() { m.runDevice(runCtx, m.devices.Gamepad) })
	}
	runGoroutine(func() { m.classifier.Run(runCtx, m.eventCh, m.processedCh) })
	runGoroutine(func() { m.dispatchLoop(runCtx) })
	runGoroutine(func() { m.monitorDevices(runCtx) })

	if m.watcher != nil {
		runGoroutine(func() { m.watcher.Run(runCtx) })
		runGoroutine(func() { m.watchLoop(runCtx) })
	}
	if m.socket != nil {
		runGoroutine(func() {
			if err := m.socket.Run(runCtx); err != nil {
				log.Error("control socket exited", "err", err)
			}
		})
	}

	if err := m.transition(StateRunning); err != nil {
		return err
	}
	log.Info("engine running")

	<-runCtx.Done()
	m.runShutdown()
	wg.Wait()
	return nil
}

// runDevice drives one device.Manager, tapping its raw event stream to
// keep the manager's held-element bookkeeping in sync before forwarding
// each event to the classifier.
func (m *Manager) runDevice(ctx context.Context, dm *device.Manager) {
	raw := make(chan event.InputEvent, inputQueueSize)
	go dm.Run(ctx, raw)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-raw:
			if !ok {
				return
			}
			switch ev.Kind {
			case event.KindPadPressed:
				dm.MarkHeld(ev.ID)
			case event.KindPadReleased:
				dm.MarkReleased(ev.ID)
			}
			select {
			case m.eventCh <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

// watchLoop reloads the config every time the watcher signals a settled
// change (spec.md §4.3's automatic-reload path).
func (m *Manager) watchLoop(ctx context.Context) {
	log := logging.Get(logging.ENGINE)
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.watcher.Changed:
			if _, err := m.Reload(ctx); err != nil {
				log.Warn("automatic reload failed", "err", err)
			}
		}
	}
}

// monitorDevices drives the Degraded/Reconnecting lifecycle transitions
// from device.Manager status, per spec.md §4.1's "device errors drive the
// Degraded/Reconnecting lifecycle".
func (m *Manager) monitorDevices(ctx context.Context) {
	log := logging.Get(logging.ENGINE)
	ticker := time.NewTicker(deviceStatusPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			switch m.worstDeviceStatus() {
			case device.StatusReconnecting:
				if m.State() == StateRunning {
					if err := m.transition(StateDegraded); err == nil {
						if err := m.transition(StateReconnecting); err != nil {
							log.Warn("could not enter reconnecting", "err", err)
						}
					}
				}
			case device.StatusDegraded:
				if m.State() == StateReconnecting {
					if err := m.transition(StateDegraded); err != nil {
						log.Warn("could not record device gave up", "err", err)
					}
				}
			case device.StatusConnected:
				if m.State() == StateReconnecting {
					if err := m.transition(StateRunning); err != nil {
						log.Warn("could not return to running", "err", err)
					}
				}
			}
		}
	}
}

func (m *Manager) worstDeviceStatus() device.Status {
	worst := device.StatusConnected
	consider := func(d *device.Manager) {
		if d == nil {
			return
		}
		switch d.Status() {
		case device.StatusDegraded:
			worst = device.StatusDegraded
		case device.StatusReconnecting:
			if worst != device.StatusDegraded {
				worst = device.StatusReconnecting
			}
		}
	}
	consider(m.devices.MIDI)
	consider(m.devices.Gamepad)
	return worst
}

// runShutdown drives Running|Degraded -> Stopping -> Stopped, per spec.md
// §4.7: stop accepting new work, let in-flight actions drain up to a short
// grace period, then finish.
func (m *Manager) runShutdown() {
	log := logging.Get(logging.ENGINE)
	if err := m.transition(StateStopping); err != nil {
		log.Warn("shutdown requested from unexpected state", "err", err)
	}
	if m.cancel != nil {
		m.cancel()
	}
	time.Sleep(shutdownGrace)
	m.SaveSnapshot()
	if err := m.transition(StateStopped); err != nil {
		log.Warn("could not reach stopped", "err", err)
	}
	log.Info("engine stopped")
}

// shutdownGrace is the short drain window spec.md §4.7 allows in-flight
// actions before shutdown proceeds regardless.
const shutdownGrace = 1 * time.Second

// ChangeMode implements action.ModeChanger: Manager owns current-mode
// state, so it is its own collaborator for ModeChange actions.
func (m *Manager) ChangeMode(indexOrOffset int, relative bool, transition string) error {
	modes := m.table.Load().Modes()
	if len(modes) == 0 {
		return fmt.Errorf("engine: mode change requested with no modes configured")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := indexOfMode(modes, m.currentMode)
	if relative {
		idx = ((idx+indexOrOffset)%len(modes) + len(modes)) % len(modes)
	} else {
		idx = indexOrOffset
		if idx < 0 {
			idx = 0
		}
		if idx >= len(modes) {
			idx = len(modes) - 1
		}
	}
	from := m.currentMode
	m.currentMode = modes[idx]
	to := m.currentMode
	m.applyLEDFeedback(from, to, transition)
	return nil
}

func indexOfMode(modes []string, name string) int {
	for i, n := range modes {
		if n == name {
			return i
		}
	}
	return 0
}

// CurrentMode reports the active mode's name, used by the dispatch loop
// for both Lookup and TriggerContext.
func (m *Manager) CurrentMode() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentMode
}
