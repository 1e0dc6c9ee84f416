//go:build !windows

package control

import (
	"fmt"
	"os"
	"syscall"
)

// checkOwnedByCurrentUser rejects a runtime directory created by a
// different user, closing the multi-user /tmp race spec.md §6 guards
// against. Grounded on other_examples' gamepad_linux.go pattern of a
// GOOS-suffixed file holding the platform-specific half of a feature,
// generalized here from HID report parsing to ownership checks.
func checkOwnedByCurrentUser(dir string, info os.FileInfo) error {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fmt.Errorf("cannot determine owner of %s", dir)
	}
	if int(stat.Uid) != os.Getuid() {
		return fmt.Errorf("%s is owned by uid %d, not the current user", dir, stat.Uid)
	}
	return nil
}
