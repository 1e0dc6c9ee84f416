package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/jdginn/padengine/config"
	"github.com/jdginn/padengine/control"
	"github.com/jdginn/padengine/device"
	"github.com/jdginn/padengine/mapping"
)

// Manager implements control.Backend directly: spec.md §4.7 names the
// control socket as one of the engine manager's own responsibilities, not
// a separate component's.
var _ control.Backend = (*Manager)(nil)

func (m *Manager) Status(ctx context.Context) (control.StatusReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var uptime int64
	if !m.startedAt.IsZero() {
		uptime = int64(time.Since(m.startedAt).Seconds())
	}
	return control.StatusReport{
		State:           m.state.String(),
		Paused:          m.executor.Paused(),
		ConnectedDevice: m.connectedDeviceLocked(),
		CurrentMode:     m.currentMode,
		UptimeSeconds:   uptime,
	}, nil
}

// connectedDeviceLocked reports the name of whichever device is currently
// connected, preferring MIDI; callers must hold m.mu.
func (m *Manager) connectedDeviceLocked() string {
	if m.devices.MIDI != nil && m.devices.MIDI.Status() == device.StatusConnected {
		return m.devices.MIDI.Name()
	}
	if m.devices.Gamepad != nil && m.devices.Gamepad.Status() == device.StatusConnected {
		return m.devices.Gamepad.Name()
	}
	return ""
}

func (m *Manager) ValidateConfig(ctx context.Context, path string) (control.ValidateReport, error) {
	if path == "" {
		m.mu.RLock()
		path = m.configPath
		m.mu.RUnlock()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return control.ValidateReport{Valid: false, Error: err.Error()}, nil
	}
	if _, err := mapping.Compile(cfg); err != nil {
		return control.ValidateReport{Valid: false, Error: err.Error()}, nil
	}
	return control.ValidateReport{Valid: true}, nil
}

func (m *Manager) Stop(ctx context.Context) error {
	m.mu.RLock()
	cancel := m.cancel
	m.mu.RUnlock()
	if cancel == nil {
		return fmt.Errorf("engine: stop requested before engine started")
	}
	cancel()
	return nil
}

func (m *Manager) ListDevices(ctx context.Context) ([]control.DeviceReport, error) {
	var out []control.DeviceReport
	if m.devices.MIDI != nil {
		out = append(out, deviceReport(m.devices.MIDI, m.devices.MIDIOpener))
	}
	if m.devices.Gamepad != nil {
		out = append(out, deviceReport(m.devices.Gamepad, m.devices.GamepadOpener))
	}
	return out, nil
}

func deviceReport(d *device.Manager, opener *device.PinnedOpener) control.DeviceReport {
	port := ""
	if opener != nil {
		port = opener.Current()
	}
	return control.DeviceReport{Name: d.Name(), Port: port, Status: d.Status().String()}
}

func (m *Manager) SetDevice(ctx context.Context, port string) error {
	if m.devices.MIDIOpener != nil {
		m.devices.MIDIOpener.SetPreferred(port)
		m.devices.MIDI.ForceReconnect()
		return nil
	}
	if m.devices.GamepadOpener != nil {
		m.devices.GamepadOpener.SetPreferred(port)
		m.devices.Gamepad.ForceReconnect()
		return nil
	}
	return fmt.Errorf("engine: no rebindable device configured")
}

func (m *Manager) GetDevice(ctx context.Context) (control.DeviceReport, error) {
	reports, _ := m.ListDevices(ctx)
	for _, r := range reports {
		if r.Status == device.StatusConnected.String() {
			return r, nil
		}
	}
	if len(reports) > 0 {
		return reports[0], nil
	}
	return control.DeviceReport{}, fmt.Errorf("engine: no device configured")
}

func (m *Manager) ListModes(ctx context.Context) ([]string, error) {
	return m.table.Load().Modes(), nil
}

func (m *Manager) SetMode(ctx context.Context, name string) error {
	modes := m.table.Load().Modes()
	if !containsMode(modes, name) {
		return fmt.Errorf("engine: unknown mode %q", name)
	}
	m.mu.Lock()
	m.currentMode = name
	m.mu.Unlock()
	return nil
}

func (m *Manager) GetCurrentMode(ctx context.Context) (string, error) {
	return m.CurrentMode(), nil
}
