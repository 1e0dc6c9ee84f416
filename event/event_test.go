package event

import "testing"

func TestIDRangePartition(t *testing.T) {
	for id := ID(0); id <= MaxMIDI; id++ {
		if !id.IsMIDI() {
			t.Fatalf("id %d should be MIDI", id)
		}
		if id.IsGamepad() {
			t.Fatalf("id %d should not be gamepad", id)
		}
	}
	for id := MinGamepadButton; id <= MaxGamepadButton; id++ {
		if !id.IsGamepad() {
			t.Fatalf("id %d should be gamepad", id)
		}
		if id.IsMIDI() {
			t.Fatalf("id %d should not be MIDI", id)
		}
	}
}

func TestKindString(t *testing.T) {
	if KindPadPressed.String() != "PadPressed" {
		t.Fatalf("unexpected string: %s", KindPadPressed.String())
	}
}
