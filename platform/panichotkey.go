package platform

import (
	"context"
	"fmt"
	"strings"

	"golang.design/x/hotkey"

	"github.com/jdginn/padengine/logging"
)

// PanicHotkey registers advanced_settings.panic_hotkey as a system-wide
// shortcut via golang.design/x/hotkey (no pack repo registers a global OS
// hotkey at all; this is an ecosystem pick for that gap). spec.md §4.5
// ties the panic hotkey to action.Executor.SetPaused, toggling the
// "suppress every action except ModeChange" state.
type PanicHotkey struct {
	hk *hotkey.Hotkey
}

// ParseHotkey turns a "ctrl+shift+p" style spec into golang.design/x/hotkey's
// modifier/key pair. Unknown tokens are rejected rather than silently
// dropped, since a typo'd panic hotkey that never fires is worse than a
// startup error.
func ParseHotkey(spec string) ([]hotkey.Modifier, hotkey.Key, error) {
	parts := strings.Split(spec, "+")
	if len(parts) < 2 {
		return nil, 0, fmt.Errorf("platform: panic_hotkey %q needs at least one modifier and one key", spec)
	}

	var mods []hotkey.Modifier
	for _, tok := range parts[:len(parts)-1] {
		mod, ok := modifierByName(strings.ToLower(strings.TrimSpace(tok)))
		if !ok {
			return nil, 0, fmt.Errorf("platform: panic_hotkey %q: unknown modifier %q", spec, tok)
		}
		mods = append(mods, mod)
	}

	key, ok := keyByName(strings.ToLower(strings.TrimSpace(parts[len(parts)-1])))
	if !ok {
		return nil, 0, fmt.Errorf("platform: panic_hotkey %q: unknown key %q", spec, parts[len(parts)-1])
	}
	return mods, key, nil
}

func modifierByName(name string) (hotkey.Modifier, bool) {
	switch name {
	case "ctrl", "control":
		return hotkey.ModCtrl, true
	case "shift":
		return hotkey.ModShift, true
	case "alt", "option":
		return hotkey.ModOption, true
	case "cmd", "super", "win", "meta":
		return hotkey.ModCmd, true
	default:
		return 0, false
	}
}

func keyByName(name string) (hotkey.Key, bool) {
	if len(name) == 1 {
		switch {
		case name[0] >= 'a' && name[0] <= 'z':
			return hotkey.Key(hotkey.KeyA + rune(name[0]) - 'a'), true
		case name[0] >= '0' && name[0] <= '9':
			return hotkey.Key(hotkey.Key0 + rune(name[0]) - '0'), true
		}
	}
	switch name {
	case "space":
		return hotkey.KeySpace, true
	case "escape", "esc":
		return hotkey.KeyEscape, true
	default:
		return 0, false
	}
}

// NewPanicHotkey registers spec as a global hotkey. Callers must run this
// (and Start) from the platform's main-thread goroutine on macOS, which
// requires CGO-level event loop participation the hotkey package manages
// internally via golang.design/x/mainthread.
func NewPanicHotkey(spec string) (*PanicHotkey, error) {
	mods, key, err := ParseHotkey(spec)
	if err != nil {
		return nil, err
	}
	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return nil, fmt.Errorf("platform: register panic hotkey %q: %w", spec, err)
	}
	return &PanicHotkey{hk: hk}, nil
}

// Start blocks, invoking onTrigger every time the hotkey fires, until ctx
// is cancelled, then unregisters.
func (p *PanicHotkey) Start(ctx context.Context, onTrigger func()) {
	log := logging.Get(logging.PLATFORM)
	defer p.hk.Unregister()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.hk.Keydown():
			log.Info("panic hotkey fired")
			onTrigger()
		}
	}
}
