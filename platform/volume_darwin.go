//go:build darwin

package platform

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// VolumeController implements action.VolumeController through macOS's own
// AppleScript "set volume" verb (spec.md §6 names "macOS scripting"
// explicitly as one of the volume-control backends). No pack repo carries
// a CoreAudio binding, and shelling out to osascript is the backend
// spec.md itself names, so this is a justified stdlib os/exec use rather
// than a dropped dependency.
type VolumeController struct{}

func NewVolumeController() (*VolumeController, error) { return &VolumeController{}, nil }

const osascriptTimeout = 2 * time.Second

func (VolumeController) Set(amount int) error {
	return runOsascript(fmt.Sprintf("set volume output volume %d", clampPercent(amount)))
}

func (v VolumeController) Adjust(delta int) error {
	current, err := v.currentVolume()
	if err != nil {
		return err
	}
	return v.Set(clampPercent(current + delta))
}

func (VolumeController) Mute() error {
	return runOsascript("set volume with output muted")
}

func (VolumeController) Unmute() error {
	return runOsascript("set volume without output muted")
}

func (v VolumeController) ToggleMute() error {
	muted, err := v.isMuted()
	if err != nil {
		return err
	}
	if muted {
		return v.Unmute()
	}
	return v.Mute()
}

func (VolumeController) currentVolume() (int, error) {
	out, err := outputOsascript("output volume of (get volume settings)")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, fmt.Errorf("platform: parse volume settings output: %w", err)
	}
	return n, nil
}

func (VolumeController) isMuted() (bool, error) {
	out, err := outputOsascript("output muted of (get volume settings)")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) == "true", nil
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func runOsascript(script string) error {
	ctx, cancel := context.WithTimeout(context.Background(), osascriptTimeout)
	defer cancel()
	if err := exec.CommandContext(ctx, "osascript", "-e", script).Run(); err != nil {
		return fmt.Errorf("platform: osascript %q: %w", script, err)
	}
	return nil
}

func outputOsascript(script string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), osascriptTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, "osascript", "-e", script).Output()
	if err != nil {
		return "", fmt.Errorf("platform: osascript %q: %w", script, err)
	}
	return string(out), nil
}
