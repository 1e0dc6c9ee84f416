//go:build linux

package platform

import (
	"fmt"

	"github.com/the-jonsey/pulseaudio"

	"github.com/jdginn/padengine/logging"
)

// VolumeController implements action.VolumeController against the default
// PulseAudio sink, using github.com/the-jonsey/pulseaudio (no pack repo
// carries a PulseAudio client; this is an ecosystem pick over shelling out
// to pactl, consistent with spec.md §6 naming "PulseAudio" explicitly as
// one of the volume-control backends).
type VolumeController struct {
	client *pulseaudio.Client
}

// NewVolumeController connects to the user's PulseAudio daemon over its
// default Unix socket.
func NewVolumeController() (*VolumeController, error) {
	client, err := pulseaudio.NewClient()
	if err != nil {
		return nil, fmt.Errorf("platform: connect to pulseaudio: %w", err)
	}
	return &VolumeController{client: client}, nil
}

func (v *VolumeController) Set(amount int) error {
	return v.client.SetVolume(clampVolume(amount))
}

func (v *VolumeController) Adjust(delta int) error {
	current, err := v.client.Volume()
	if err != nil {
		return fmt.Errorf("platform: read current volume: %w", err)
	}
	return v.client.SetVolume(clampVolume(int(current*100) + delta))
}

func (v *VolumeController) Mute() error { return v.client.SetMute(true) }

func (v *VolumeController) Unmute() error { return v.client.SetMute(false) }

func (v *VolumeController) ToggleMute() error {
	muted, err := v.client.Mute()
	if err != nil {
		logging.Get(logging.PLATFORM).Warn("could not read mute state, toggling blind", "err", err)
	}
	return v.client.SetMute(!muted)
}

func clampVolume(percent int) float32 {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return float32(percent) / 100.0
}
