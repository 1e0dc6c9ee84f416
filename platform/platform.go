// Package platform supplies the OS-specific collaborators spec.md §6 lists
// as "consumed, not implemented" by the core: input synthesis, app/process
// queries, volume control, panic-hotkey capture, and the plugin sandbox
// host. cmd/padengine wires these into action.Executor, condition.Context,
// and engine.Manager; no other package in this module imports platform.
package platform

import "os/exec"

// newCommand is the one place this package shells out to an external
// program directly (Launch's per-OS "open" command); no pack library
// wraps process spawning itself, only process *querying* (gopsutil).
func newCommand(name string, args ...string) *exec.Cmd {
	return exec.Command(name, args...)
}
