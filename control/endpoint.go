package control

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appDirName = "padengine"

// ResolveSocketPath implements spec.md §6's control-socket endpoint
// selection order: $XDG_RUNTIME_DIR/<app>/control.sock when the runtime
// directory is set, otherwise <user data dir>/<app>/run/control.sock.
// Grounded on Xcruser-MidiDaemon's pkg/utils/platform.go GetConfigDir,
// generalized from a config directory to a private runtime directory with
// an ownership/mode check layered on top (spec.md §6's "must be owned by
// the current user and mode rwx------").
func ResolveSocketPath() (string, error) {
	dir, err := runtimeDir()
	if err != nil {
		return "", fmt.Errorf("control: resolving runtime dir: %w", err)
	}
	if err := ensurePrivateDir(dir); err != nil {
		return "", fmt.Errorf("control: %s failed ownership/mode check: %w", dir, err)
	}
	return filepath.Join(dir, "control.sock"), nil
}

func runtimeDir() (string, error) {
	if xdg := os.Getenv("XDG_RUNTIME_DIR"); xdg != "" {
		return filepath.Join(xdg, appDirName), nil
	}
	base, err := userDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appDirName, "run"), nil
}

// userDataDir mirrors Xcruser-MidiDaemon's per-OS switch (GetConfigDir),
// generalized to the data-dir equivalent on each platform since spec.md §6
// calls for a "user data dir", not a config dir.
func userDataDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("%%APPDATA%% not set")
		}
		return appData, nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support"), nil
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share"), nil
	}
}

const privateDirMode = 0o700

// ensurePrivateDir creates dir with mode 0700 if absent. If dir already
// exists, it must be owned by the current user and carry exactly mode
// 0700; spec.md §6 says startup aborts rather than loosening an existing
// directory's permissions.
func ensurePrivateDir(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return os.MkdirAll(dir, privateDirMode)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists and is not a directory", dir)
	}
	if info.Mode().Perm() != privateDirMode {
		return fmt.Errorf("mode is %v, expected rwx------", info.Mode().Perm())
	}
	return checkOwnedByCurrentUser(dir, info)
}
