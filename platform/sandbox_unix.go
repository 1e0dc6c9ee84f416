//go:build linux || darwin

package platform

import (
	"context"
	"fmt"
	"os/exec"
)

// command wraps binPath in a shell invocation applying POSIX ulimit -v (the
// virtual-memory rlimit, in KB) before exec'ing the plugin, the closest
// portable approximation to spec.md §6's "memory (≤128 MiB)" cap without a
// cgroups/container dependency this module doesn't otherwise need.
func (s *Sandbox) command(ctx context.Context, binPath string) *exec.Cmd {
	script := fmt.Sprintf("ulimit -v %d; exec %q", memoryLimitKB, binPath)
	return exec.CommandContext(ctx, "/bin/sh", "-c", script)
}
