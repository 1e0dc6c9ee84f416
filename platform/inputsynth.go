package platform

import (
	"fmt"
	"runtime"

	"github.com/jdginn/padengine/logging"
)

// InputSynth implements action.KeySynth, action.MouseSynth, action.TextTyper,
// and action.Launcher. spec.md §6 scopes keystroke/mouse/text synthesis and
// app launching as platform abstractions "consumed, not implemented here",
// and no cross-platform synthesis library appears anywhere in the example
// corpus (no robotgo-equivalent). Grounded on Xcruser-MidiDaemon's
// KeyboardController split (internal/actions/key_combination.go), which hits
// the same gap and resolves it the same way: a per-OS stub that logs the
// call it would make and returns nil, with the real OS call left as a named
// TODO rather than invented.
type InputSynth struct {
	log func(msg string, args ...any)
}

// NewInputSynth returns an InputSynth whose Press, Click and Type log the
// call at the platform category's Info level instead of performing it;
// Launch does run the platform's open command.
func NewInputSynth() *InputSynth {
	l := logging.Get(logging.PLATFORM)
	return &InputSynth{log: l.Info}
}

// Press implements action.KeySynth.
func (s *InputSynth) Press(keys, modifiers []string) error {
	s.log("keystroke synthesis not wired on this platform", "os", runtime.GOOS, "keys", keys, "modifiers", modifiers)
	// TODO: darwin needs CGEventCreateKeyboardEvent, linux needs an X11/uinput
	// backend, windows needs SendInput — none available without a C toolchain
	// dependency this module does not carry.
	return nil
}

// Click implements action.MouseSynth.
func (s *InputSynth) Click(button string, x, y *int) error {
	s.log("mouse synthesis not wired on this platform", "os", runtime.GOOS, "button", button, "x", x, "y", y)
	return nil
}

// Type implements action.TextTyper.
func (s *InputSynth) Type(text string) error {
	s.log("text typing not wired on this platform", "os", runtime.GOOS, "len", len(text))
	return nil
}

// Launch implements action.Launcher by shelling out to the platform's own
// "open this thing" command, which every mainstream OS ships and which
// needs no synthesis library at all.
func (s *InputSynth) Launch(app string) error {
	switch runtime.GOOS {
	case "darwin":
		return runDetached("open", "-a", app)
	case "windows":
		return runDetached("cmd", "/C", "start", "", app)
	default:
		return runDetached("xdg-open", app)
	}
}

// ModifierQuery implements condition.ModifierQuery. Like keystroke synthesis,
// reading the live OS modifier-key state has no cross-platform library in
// the corpus, so held modifiers always read as not-held; a ModifierHeld
// condition degrades to "never true" until a real backend is wired.
type ModifierQuery struct{ log func(msg string, args ...any) }

func NewModifierQuery() *ModifierQuery {
	l := logging.Get(logging.PLATFORM)
	return &ModifierQuery{log: l.Warn}
}

func (m *ModifierQuery) Held(name string) bool {
	m.log("modifier key query not wired on this platform, reporting not-held", "modifier", name)
	return false
}

func runDetached(name string, args ...string) error {
	cmd := newCommand(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("platform: launch %s: %w", name, err)
	}
	return nil
}
