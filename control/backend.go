package control

import "context"

// Backend is the engine manager's side of the control socket (spec.md §4.8
// names the commands; the engine manager is their sole implementor, per
// spec.md §4.7's "own ... the control socket" ownership statement). Defined
// here rather than in package engine so this package has no dependency on
// it — the engine package implements Backend and owns the Server instead.
type Backend interface {
	// Status reports the current lifecycle state, pause flag, connected
	// device, and active mode.
	Status(ctx context.Context) (StatusReport, error)

	// Reload re-reads and re-validates the config file last loaded from
	// disk and, on success, atomically swaps the compiled mapping table.
	Reload(ctx context.Context) (ReloadReport, error)

	// ValidateConfig parses and validates a config document without
	// applying it. An empty path validates the currently loaded file.
	ValidateConfig(ctx context.Context, path string) (ValidateReport, error)

	// Stop begins graceful shutdown (spec.md §4.7's Stopping transition).
	// It returns once shutdown has been initiated, not once it completes.
	Stop(ctx context.Context) error

	// ListDevices reports every device the device manager currently knows
	// about, connected or not.
	ListDevices(ctx context.Context) ([]DeviceReport, error)

	// SetDevice rebinds the device manager to a specific port/GUID,
	// overriding device_hint auto-selection.
	SetDevice(ctx context.Context, port string) error

	// GetDevice reports the currently bound device, if any.
	GetDevice(ctx context.Context) (DeviceReport, error)

	// ListModes lists configured mode names in declaration order.
	ListModes(ctx context.Context) ([]string, error)

	// SetMode switches the active mode by name.
	SetMode(ctx context.Context, name string) error

	// GetCurrentMode reports the active mode's name.
	GetCurrentMode(ctx context.Context) (string, error)
}

// StatusReport is Status's response payload.
type StatusReport struct {
	State           string `json:"state"`
	Paused          bool   `json:"paused"`
	ConnectedDevice string `json:"connectedDevice,omitempty"`
	CurrentMode     string `json:"currentMode,omitempty"`
	UptimeSeconds   int64  `json:"uptimeSeconds"`
}

// ReloadReport is Reload's response payload. Grade is the performance
// grading spec.md's reload procedure assigns (A..F) based on how long the
// reload took to apply.
type ReloadReport struct {
	Grade      string `json:"grade"`
	DurationMS int64  `json:"durationMs"`
	ModeCount  int    `json:"modeCount"`
}

// ValidateReport is ValidateConfig's response payload.
type ValidateReport struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// DeviceReport describes one device the device manager tracks.
type DeviceReport struct {
	Name   string `json:"name"`
	Port   string `json:"port"`
	Status string `json:"status"`
}
