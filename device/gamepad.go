package device

import (
	"context"
	"fmt"
	"time"

	"github.com/karalabe/hid"

	"github.com/jdginn/padengine/event"
	"github.com/jdginn/padengine/logging"
)

// gamepadPollInterval is the idle-retry interval after a short HID report
// read; report reads otherwise block on device input.
const gamepadPollInterval = 20 * time.Millisecond

// analogDeadzone is the ±0.1-of-full-scale deadzone from spec.md §4.1.
const analogDeadzone = 0.1

// ButtonMap assigns a raw HID report bit index to the shared event.ID a
// button occupies in the 128..=144 partition. The zero value covers the
// common 8BitDo/Xbox-style layout; callers may override for other pads.
type ButtonMap map[int]event.ID

// DefaultButtonMap is the standard layout: South/East/West/North face
// buttons, D-pad and the left bumper. Callers needing stick-click,
// start/select/guide, or a second bumper bit pass a custom ButtonMap built
// from their device's HID report descriptor. The two analog-trigger
// digital fallbacks (ids 143/144) are derived from the trigger axis value,
// not from this map.
func DefaultButtonMap() ButtonMap {
	return ButtonMap{
		0: 134, // South
		1: 135, // East
		2: 136, // West
		3: 137, // North
		4: 138, // D-pad up
		5: 139, // D-pad down
		6: 140, // D-pad left
		7: 141, // D-pad right
		8: 142, // L1
	}
}

// GamepadPort reads raw HID input reports from one opened device and
// translates them into event.InputEvent, grounded on the poll/deadzone
// structure of other_examples' GLFW gamepad listener, using
// github.com/karalabe/hid instead of a windowing library since this engine
// never owns a GUI surface.
type GamepadPort struct {
	dev     *hid.Device
	guid    string
	buttons ButtonMap

	lastButtons uint32
	lastAxes    [6]uint8 // LX, LY, RX, RY, TrigL, TrigR, normalized 0..=127
	trigHeld    [2]bool  // digital fallback latch for TrigL/TrigR
}

func NewGamepadPort(dev *hid.Device, guid string, buttons ButtonMap) *GamepadPort {
	if buttons == nil {
		buttons = DefaultButtonMap()
	}
	g := &GamepadPort{dev: dev, guid: guid, buttons: buttons}
	for i := range g.lastAxes {
		g.lastAxes[i] = 64
	}
	return g
}

// OpenGamepad enumerates HID devices and opens the first one matching
// vendorID/productID. With both zero it opens the first HID device
// enumerated; it does not check that the device is a gamepad.
func OpenGamepad(vendorID, productID uint16) (*hid.Device, string, error) {
	infos := hid.Enumerate(vendorID, productID)
	if len(infos) == 0 {
		return nil, "", fmt.Errorf("no matching HID gamepad found")
	}
	info := infos[0]
	dev, err := info.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open HID device %s: %w", info.Path, err)
	}
	guid := fmt.Sprintf("hid:%04x:%04x:%s", info.VendorID, info.ProductID, info.Path)
	return dev, guid, nil
}

// Run polls the device until ctx is cancelled, decoding each report diff
// against the last-seen state so only changed buttons/axes emit events.
func (g *GamepadPort) Run(ctx context.Context, out chan<- event.InputEvent) error {
	log := logging.Get(logging.DEVICE)
	report := make([]byte, 64)

	for {
		select {
		case <-ctx.Done():
			return g.dev.Close()
		default:
		}

		n, err := g.dev.Read(report)
		if err != nil {
			log.Warn("gamepad read failed", "err", err)
			return err
		}
		if n < 8 {
			time.Sleep(gamepadPollInterval)
			continue
		}
		g.decode(report[:n], out)
	}
}

func (g *GamepadPort) decode(report []byte, out chan<- event.InputEvent) {
	now := time.Now().UnixNano()
	send := func(ev event.InputEvent) {
		select {
		case out <- ev:
		default:
		}
	}

	// Conventional layout: bytes[0..3] little-endian button bitmap,
	// bytes[4..9] the six analog axes (LX,LY,RX,RY,TrigL,TrigR).
	var buttons uint32
	for i := 0; i < 4 && i < len(report); i++ {
		buttons |= uint32(report[i]) << (8 * i)
	}

	for bit, id := range g.buttons {
		was := g.lastButtons&(1<<uint(bit)) != 0
		is := buttons&(1<<uint(bit)) != 0
		if is == was {
			continue
		}
		if is {
			send(event.PadPressed(id, 100, now, g.guid))
		} else {
			send(event.PadReleased(id, now, g.guid))
		}
	}
	g.lastButtons = buttons

	axisIDs := [6]event.ID{
		event.GamepadStickLX, event.GamepadStickLY,
		event.GamepadStickRX, event.GamepadStickRY,
		event.GamepadTriggerL, event.GamepadTriggerR,
	}
	for i, id := range axisIDs {
		off := 4 + i
		if off >= len(report) {
			break
		}
		v := report[off]
		if i < 4 {
			v = applyDeadzone(v)
		}
		if v == g.lastAxes[i] {
			continue
		}
		g.lastAxes[i] = v
		send(event.EncoderTurned(id, v, now, g.guid))

		if i >= 4 {
			g.handleDigitalTriggerFallback(i-4, v, now, send)
		}
	}
}

func (g *GamepadPort) handleDigitalTriggerFallback(side int, value uint8, now int64, send func(event.InputEvent)) {
	const threshold = 40 // spec.md's "configured threshold" default
	id := event.GamepadDigitalTriggerL
	if side == 1 {
		id = event.GamepadDigitalTriggerR
	}
	held := g.trigHeld[side]
	if value >= threshold && !held {
		g.trigHeld[side] = true
		send(event.PadPressed(id, value, now, g.guid))
	} else if value < threshold && held {
		g.trigHeld[side] = false
		send(event.PadReleased(id, now, g.guid))
	}
}

// applyDeadzone maps a raw 0..=127 stick axis to 64 (center) when within
// analogDeadzone of center, per spec.md §4.1.
func applyDeadzone(raw uint8) uint8 {
	const center = 64
	delta := int(raw) - center
	if delta < 0 {
		delta = -delta
	}
	if float64(delta)/127.0 <= analogDeadzone {
		return center
	}
	return raw
}
