// Package device adapts physical MIDI and HID gamepad hardware into the
// normalized event.InputEvent stream, and carries SendMidi egress back out
// (spec.md §4.1). Grounded on the teacher's devices package, which wraps
// gitlab.com/gomidi/midi/v2 the same way.
package device

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	midi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/jdginn/padengine/config"
	"github.com/jdginn/padengine/event"
	"github.com/jdginn/padengine/logging"
)

// MidiPort is one opened MIDI input/output pair, identified by GUID for the
// event.InputEvent.FromGUID / multi-device routing described in spec.md §4.1.
type MidiPort struct {
	in   drivers.In
	out  drivers.Out
	guid string
}

// NewMidiPort wraps an opened or openable drivers.In/drivers.Out pair. Tests
// substitute a mock implementing both interfaces (see device/devicetesting).
func NewMidiPort(in drivers.In, out drivers.Out, guid string) *MidiPort {
	return &MidiPort{in: in, out: out, guid: guid}
}

func (p *MidiPort) GUID() string { return p.guid }

// Run opens the port and relays every incoming message as an
// event.InputEvent until ctx is cancelled.
func (p *MidiPort) Run(ctx context.Context, out chan<- event.InputEvent) error {
	log := logging.Get(logging.DEVICE)

	if err := p.in.Open(); err != nil {
		return fmt.Errorf("open MIDI in %q: %w", p.in.String(), err)
	}
	if err := p.out.Open(); err != nil {
		return fmt.Errorf("open MIDI out %q: %w", p.out.String(), err)
	}
	log.Info("MIDI port opened", "in", p.in.String(), "out", p.out.String(), "guid", p.guid)

	stop, err := midi.ListenTo(p.in, func(msg midi.Message, _ int32) {
		now := time.Now().UnixNano()
		p.dispatch(msg, now, out, log)
	}, midi.UseSysEx())
	if err != nil {
		p.in.Close()
		p.out.Close()
		return fmt.Errorf("listen on %q: %w", p.in.String(), err)
	}

	<-ctx.Done()
	stop()
	p.in.Close()
	p.out.Close()
	return nil
}

func (p *MidiPort) dispatch(msg midi.Message, now int64, out chan<- event.InputEvent, log *slog.Logger) {
	send := func(ev event.InputEvent) {
		select {
		case out <- ev:
		default:
			log.Warn("input event dropped: ingress channel full")
		}
	}

	switch msg.Type() {
	case midi.NoteOnMsg:
		var channel, key, vel uint8
		if !msg.GetNoteOn(&channel, &key, &vel) {
			return
		}
		if vel == 0 {
			send(event.PadReleased(event.ID(key), now, p.guid))
			return
		}
		send(event.PadPressed(event.ID(key), vel, now, p.guid))

	case midi.NoteOffMsg:
		var channel, key, vel uint8
		if !msg.GetNoteOff(&channel, &key, &vel) {
			return
		}
		send(event.PadReleased(event.ID(key), now, p.guid))

	case midi.ControlChangeMsg:
		var channel, cc, val uint8
		if !msg.GetControlChange(&channel, &cc, &val) {
			return
		}
		send(event.ControlChange(cc, val, now, p.guid))

	case midi.PitchBendMsg:
		var channel uint8
		var relative int16
		var absolute uint16
		if !msg.GetPitchBend(&channel, &relative, &absolute) {
			return
		}
		send(event.PitchBend(absolute, now, p.guid))

	case midi.AfterTouchMsg:
		var channel, pressure uint8
		if !msg.GetAfterTouch(&channel, &pressure) {
			return
		}
		send(event.Aftertouch(pressure, now, p.guid))

	case midi.PolyAfterTouchMsg:
		var channel, key, pressure uint8
		if !msg.GetPolyAfterTouch(&channel, &key, &pressure) {
			return
		}
		send(event.PolyPressure(event.ID(key), pressure, now, p.guid))

	case midi.ProgramChangeMsg:
		var channel, program uint8
		if !msg.GetProgramChange(&channel, &program) {
			return
		}
		send(event.ProgramChange(program, now, p.guid))
	}
}

// Send transmits a SendMidi action's resolved message, implementing
// action.MidiSender. port is currently advisory (this MidiPort is already
// bound to one physical output); it is validated against the port's own
// identity so a misconfigured action fails loudly instead of silently
// going to the wrong device.
func (p *MidiPort) Send(port string, msg config.MidiMessage, value uint8) error {
	if port != "" && port != p.guid {
		return fmt.Errorf("SendMidi targets port %q but this is %q", port, p.guid)
	}
	var out []byte
	switch msg.Kind {
	case "note_on":
		out = midi.NoteOn(msg.Channel, msg.Number, value)
	case "note_off":
		out = midi.NoteOff(msg.Channel, msg.Number)
	case "cc":
		out = midi.ControlChange(msg.Channel, msg.Number, value)
	case "pitch_bend":
		out = midi.Pitchbend(msg.Channel, int16(value)-64)
	case "aftertouch":
		out = midi.AfterTouch(msg.Channel, value)
	default:
		return fmt.Errorf("unknown SendMidi message kind %q", msg.Kind)
	}
	return p.out.Send(out)
}
