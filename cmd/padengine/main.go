// Command padengine is the service entry point: it loads a config file,
// opens the configured MIDI controller and/or HID gamepad, wires the
// platform-specific collaborators, and runs engine.Manager until a signal
// or a control-socket Stop asks it to shut down. Grounded on the teacher's
// main.go for MIDI driver registration (the blank rtmididrv import and
// midi.CloseDriver/FindInPort/FindOutPort idiom); the Reaper/X-Touch
// wiring that filled the rest of that file has no place here, replaced by
// this module's own device/engine/platform graph.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	midi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver

	"github.com/jdginn/padengine/action"
	"github.com/jdginn/padengine/classify"
	"github.com/jdginn/padengine/config"
	"github.com/jdginn/padengine/configwatch"
	"github.com/jdginn/padengine/control"
	"github.com/jdginn/padengine/device"
	"github.com/jdginn/padengine/engine"
	"github.com/jdginn/padengine/logging"
	"github.com/jdginn/padengine/platform"
)

func main() {
	configPath := flag.String("config", "padengine.toml", "path to the configuration file")
	sandboxDir := flag.String("plugin-dir", "", "directory plugin executables are invoked from (overrides plugin_sandbox_dir)")
	flag.Parse()

	log := logging.Get(logging.META)

	m, err := run(*configPath, *sandboxDir)
	if err != nil {
		log.Error("padengine exiting", "err", err)
		if m != nil {
			m.SaveSnapshot()
		}
		os.Exit(1)
	}
}

// run builds the full collaborator graph and blocks in Manager.Run until a
// signal or control-socket Stop unwinds it. The returned *engine.Manager is
// non-nil as soon as it exists, even if a later step fails, so main can take
// a best-effort emergency snapshot on the way out.
func run(configPath, sandboxDirFlag string) (*engine.Manager, error) {
	defer midi.CloseDriver()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	sandboxDir := sandboxDirFlag
	if sandboxDir == "" {
		sandboxDir = cfg.PluginSandboxDir
	}
	if sandboxDir == "" {
		sandboxDir = filepath.Join(filepath.Dir(configPath), "plugins")
	}

	appQuery := platform.NewAppQuery()
	modQuery := platform.NewModifierQuery()

	schemas, err := action.CompileSchemas(cfg.PluginSchemas)
	if err != nil {
		return nil, fmt.Errorf("compile plugin schemas: %w", err)
	}

	executor := &action.Executor{
		Keys:      platform.NewInputSynth(),
		Mouse:     platform.NewInputSynth(),
		Text:      platform.NewInputSynth(),
		Launch:    platform.NewInputSynth(),
		Plugins:   platform.NewSandbox(sandboxDir, nil),
		Schemas:   schemas,
		Apps:      appQuery,
		Modifiers: modQuery,
	}
	// Volume is assigned only on success: a nil *platform.VolumeController
	// stored in the VolumeController interface field would compare non-nil,
	// defeating Executor's "collaborator not wired" nil check.
	if volume, err := platform.NewVolumeController(); err != nil {
		logging.Get(logging.PLATFORM).Warn("volume control unavailable", "err", err)
	} else {
		executor.Volume = volume
	}

	classifier := classify.NewClassifier(classify.Settings{})

	devices := buildDevices(cfg)

	m, err := engine.NewManager(configPath, cfg, executor, classifier, devices)
	if err != nil {
		return nil, fmt.Errorf("construct engine manager: %w", err)
	}
	executor.Midi = newMidiRouter(devices)

	sockPath, err := control.ResolveSocketPath()
	if err != nil {
		return m, fmt.Errorf("resolve control socket path: %w", err)
	}
	server, err := control.NewServer(sockPath, m)
	if err != nil {
		return m, fmt.Errorf("start control socket: %w", err)
	}
	m.SetSocket(server)

	watcher, err := configwatch.New(configPath)
	if err != nil {
		return m, fmt.Errorf("watch config file: %w", err)
	}
	m.SetWatcher(watcher)

	m.SetLED(platform.NewLoggingLED())
	m.SetSnapshotPath(filepath.Join(filepath.Dir(sockPath), "snapshot.json"))
	m.LoadSnapshot()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.AdvancedSettings.PanicHotkey != "" {
		hk, err := platform.NewPanicHotkey(cfg.AdvancedSettings.PanicHotkey)
		if err != nil {
			logging.Get(logging.PLATFORM).Warn("panic hotkey not registered", "err", err)
		} else {
			go hk.Start(ctx, func() { executor.SetPaused(!executor.Paused()) })
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return m, m.Run(ctx)
}

// buildDevices sets up the MIDI controller and HID gamepad managers as
// engine.Devices, each behind a device.PinnedOpener so the control socket's
// SetDevice command can rebind them without restarting the process.
func buildDevices(cfg *config.Config) engine.Devices {
	var devices engine.Devices

	// Devices are never opened here: device.Manager.Run owns the
	// open/backoff/reconnect loop, so startup never blocks on a controller
	// being plugged in.
	midiOpener := device.NewPinnedOpener(cfg.DeviceHint, openMidiPort)
	devices.MIDI = device.NewManager("midi", midiOpener.Open)
	devices.MIDIOpener = midiOpener

	gamepadOpener := device.NewPinnedOpener(cfg.GamepadHint, openGamepadPort)
	devices.Gamepad = device.NewManager("gamepad", gamepadOpener.Open)
	devices.GamepadOpener = gamepadOpener

	return devices
}

func openMidiPort(hint string) (device.Port, error) {
	in, err := midi.FindInPort(hint)
	if err != nil {
		return nil, fmt.Errorf("find MIDI in port %q: %w", hint, err)
	}
	out, err := midi.FindOutPort(hint)
	if err != nil {
		return nil, fmt.Errorf("find MIDI out port %q: %w", hint, err)
	}
	return device.NewMidiPort(in, out, in.String()), nil
}

func openGamepadPort(hint string) (device.Port, error) {
	dev, guid, err := device.OpenGamepad(0, 0)
	if err != nil {
		return nil, err
	}
	return device.NewGamepadPort(dev, guid, nil), nil
}

// midiRouter implements action.MidiSender by forwarding to whichever
// device.MidiPort device.Manager currently has open, rather than opening a
// second, independent connection of its own.
type midiRouter struct {
	mgr *device.Manager
}

func newMidiRouter(devices engine.Devices) *midiRouter {
	return &midiRouter{mgr: devices.MIDI}
}

func (r *midiRouter) Send(port string, msg config.MidiMessage, value uint8) error {
	if r.mgr == nil {
		return fmt.Errorf("padengine: no MIDI device configured, cannot SendMidi")
	}
	p := r.mgr.Current()
	if p == nil {
		return fmt.Errorf("padengine: SendMidi: MIDI device not connected")
	}
	mp, ok := p.(*device.MidiPort)
	if !ok {
		return fmt.Errorf("padengine: SendMidi: connected port is not a MidiPort")
	}
	return mp.Send(port, msg, value)
}
