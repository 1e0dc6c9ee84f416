//go:build windows

package platform

import (
	"context"
	"os/exec"

	"github.com/jdginn/padengine/logging"
)

// command runs the plugin directly: Windows has no POSIX ulimit and a real
// per-process memory cap there needs a Job Object, which needs raw
// syscalls this module doesn't otherwise carry for a narrow plugin-host
// feature. Wall-clock is still enforced via ctx; memory is not.
func (s *Sandbox) command(ctx context.Context, binPath string) *exec.Cmd {
	logging.Get(logging.PLATFORM).Warn("plugin memory limit not enforced on windows", "plugin", binPath)
	return exec.CommandContext(ctx, binPath)
}
