//go:build !linux && !windows && !darwin

package platform

import "github.com/jdginn/padengine/logging"

// VolumeController is a logging-only stand-in on platforms this module has
// no wired backend for (spec.md §6 lists PipeWire/ALSA alongside PulseAudio
// for Linux; this repo wires PulseAudio only — PipeWire's Pulse
// compatibility layer covers the common case, and a bare-ALSA backend has
// no corpus library to ground it on).
type VolumeController struct{}

func NewVolumeController() (*VolumeController, error) { return &VolumeController{}, nil }

func (VolumeController) Set(amount int) error    { return warnUnsupported("Set", amount) }
func (VolumeController) Adjust(delta int) error  { return warnUnsupported("Adjust", delta) }
func (VolumeController) Mute() error             { return warnUnsupported("Mute", nil) }
func (VolumeController) Unmute() error           { return warnUnsupported("Unmute", nil) }
func (VolumeController) ToggleMute() error       { return warnUnsupported("ToggleMute", nil) }

func warnUnsupported(op string, arg any) error {
	logging.Get(logging.PLATFORM).Warn("volume control not wired on this platform", "op", op, "arg", arg)
	return nil
}
