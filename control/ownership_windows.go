//go:build windows

package control

import "os"

// checkOwnedByCurrentUser is a no-op on Windows: ownership there is
// expressed through ACLs, not a POSIX uid, and %APPDATA% is already
// per-user by construction.
func checkOwnedByCurrentUser(dir string, info os.FileInfo) error {
	return nil
}
