// Package action executes the config.Action tree produced by a matched
// mapping (spec.md §4.5). Keystroke/mouse/text synthesis, app launching, and
// frontmost/process queries are platform-supplied collaborators; this
// package only defines the interfaces it needs from them (spec.md §6).
package action

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"time"

	"go.uber.org/atomic"

	"github.com/jdginn/padengine/condition"
	"github.com/jdginn/padengine/config"
	"github.com/jdginn/padengine/logging"
)

// KeySynth, MouseSynth, and TextTyper are the platform input-synthesis
// collaborators. Launcher starts an application by name or bundle id.
type KeySynth interface {
	Press(keys, modifiers []string) error
}

type MouseSynth interface {
	Click(button string, x, y *int) error
}

type TextTyper interface {
	Type(text string) error
}

type Launcher interface {
	Launch(app string) error
}

// VolumeController abstracts the platform mixer (spec.md §4.5's
// VolumeControl action).
type VolumeController interface {
	Set(amount int) error
	Adjust(delta int) error
	Mute() error
	Unmute() error
	ToggleMute() error
}

// MidiSender transmits a SendMidi action's message, with value already
// resolved through its VelocityCurve.
type MidiSender interface {
	Send(port string, msg config.MidiMessage, value uint8) error
}

// ModeChanger applies a ModeChange action (spec.md §4.6 wires this back to
// the mode manager/engine).
type ModeChanger interface {
	ChangeMode(indexOrOffset int, relative bool, transition string) error
}

// PluginRegistry dispatches a Plugin action to externally-registered code
// (spec.md §4.5's Plugin is the module's extension point).
type PluginRegistry interface {
	Invoke(name, actionID string, params map[string]interface{}) error
}

// TriggerContext carries the dynamic value from the ProcessedEvent that
// triggered this action tree, consumed by SendMidi's curve and
// VolumeControl's relative adjustments.
type TriggerContext struct {
	Velocity uint8
	CCValue  uint16
	Mode     string
}

// Executor runs a compiled Action against its configured collaborators.
type Executor struct {
	Keys      KeySynth
	Mouse     MouseSynth
	Text      TextTyper
	Launch    Launcher
	Volume    VolumeController
	Midi      MidiSender
	Modes     ModeChanger
	Plugins   PluginRegistry
	Schemas   *SchemaSet
	Apps      condition.AppQuery
	Modifiers condition.ModifierQuery
	Now       func() time.Time

	paused atomic.Bool
}

// SetPaused implements the global pause toggle (e.g. the panic hotkey):
// every action except ModeChange becomes a no-op while paused (spec.md
// §4.5).
func (e *Executor) SetPaused(p bool) { e.paused.Store(p) }

func (e *Executor) Paused() bool { return e.paused.Load() }

var ErrPaused = errors.New("action suppressed: engine is paused")
var ErrUnknownActionType = errors.New("unknown action type")

// Execute dispatches a to its concrete handler, recursing into Sequence,
// Repeat, and Conditional sub-actions. Every call re-checks the pause flag
// so a ModeChange nested anywhere in a tree still fires while paused.
func (e *Executor) Execute(ctx context.Context, a config.Action, tctx TriggerContext) error {
	switch a.Type {
	case config.ActionModeChange, config.ActionSequence, config.ActionRepeat, config.ActionConditional:
		// containers recurse; each nested step applies the pause check itself
	default:
		if e.paused.Load() {
			return ErrPaused
		}
	}

	log := logging.Get(logging.ACTION)

	switch a.Type {
	case config.ActionKeystroke:
		if e.Keys == nil {
			return nil
		}
		return e.Keys.Press(a.Keys, a.Modifiers)

	case config.ActionText:
		if e.Text == nil {
			return nil
		}
		return e.Text.Type(a.Text)

	case config.ActionLaunch:
		if e.Launch == nil {
			return nil
		}
		return e.Launch.Launch(a.App)

	case config.ActionShell:
		cmd := exec.CommandContext(ctx, a.Command, a.Args...)
		if err := cmd.Run(); err != nil {
			log.Warn("shell action failed", "command", a.Command, "error", err)
			return fmt.Errorf("shell %q: %w", a.Command, err)
		}
		return nil

	case config.ActionVolumeControl:
		if e.Volume == nil {
			return nil
		}
		return e.execVolume(a)

	case config.ActionMouseClick:
		if e.Mouse == nil {
			return nil
		}
		return e.Mouse.Click(a.Button, a.X, a.Y)

	case config.ActionModeChange:
		if e.Modes == nil {
			return nil
		}
		return e.Modes.ChangeMode(a.IndexOrOffset, a.Relative, a.Transition)

	case config.ActionSendMidi:
		if e.Midi == nil || a.Message == nil {
			return nil
		}
		value := applyCurve(a.Curve, tctx)
		return e.Midi.Send(a.Port, *a.Message, value)

	case config.ActionPlugin:
		return e.execPlugin(a)

	case config.ActionSequence:
		for i, step := range a.Steps {
			if err := e.Execute(ctx, step, tctx); err != nil && !errors.Is(err, ErrPaused) {
				return fmt.Errorf("sequence step %d: %w", i, err)
			}
			if a.DelayMS > 0 && i < len(a.Steps)-1 {
				if err := sleepCtx(ctx, time.Duration(a.DelayMS)*time.Millisecond); err != nil {
					return err
				}
			}
		}
		return nil

	case config.ActionDelay:
		return sleepCtx(ctx, time.Duration(a.DelayMS)*time.Millisecond)

	case config.ActionRepeat:
		if a.Body == nil {
			return nil
		}
		for i := 0; i < a.Count; i++ {
			if err := e.Execute(ctx, *a.Body, tctx); err != nil && !errors.Is(err, ErrPaused) {
				return fmt.Errorf("repeat iteration %d: %w", i, err)
			}
			if a.DelayMS > 0 && i < a.Count-1 {
				if err := sleepCtx(ctx, time.Duration(a.DelayMS)*time.Millisecond); err != nil {
					return err
				}
			}
		}
		return nil

	case config.ActionConditional:
		ctxEval := condition.Context{Now: e.Now, Mode: tctx.Mode, Apps: e.Apps, Modifiers: e.Modifiers}
		if condition.Evaluate(a.Condition, ctxEval) {
			if a.Then == nil {
				return nil
			}
			return e.Execute(ctx, *a.Then, tctx)
		}
		if a.Else == nil {
			return nil
		}
		return e.Execute(ctx, *a.Else, tctx)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownActionType, a.Type)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (e *Executor) execVolume(a config.Action) error {
	switch a.Op {
	case "Set":
		if a.Amount == nil {
			return fmt.Errorf("VolumeControl Set requires amount")
		}
		return e.Volume.Set(*a.Amount)
	case "Adjust":
		if a.Amount == nil {
			return fmt.Errorf("VolumeControl Adjust requires amount")
		}
		return e.Volume.Adjust(*a.Amount)
	case "Mute":
		return e.Volume.Mute()
	case "Unmute":
		return e.Volume.Unmute()
	case "ToggleMute":
		return e.Volume.ToggleMute()
	default:
		return fmt.Errorf("unknown VolumeControl op %q", a.Op)
	}
}

func (e *Executor) execPlugin(a config.Action) error {
	if e.Plugins == nil {
		return nil
	}
	if e.Schemas != nil {
		if err := e.Schemas.Validate(a.PluginName, a.Params); err != nil {
			return fmt.Errorf("plugin %q params: %w", a.PluginName, err)
		}
	}
	return e.Plugins.Invoke(a.PluginName, a.ActionID, a.Params)
}

// applyCurve resolves a SendMidi action's outbound value from the trigger's
// dynamic input, per spec.md §4.5's four curve kinds.
func applyCurve(c *config.VelocityCurve, tctx TriggerContext) uint8 {
	input := tctx.Velocity
	if tctx.CCValue > 0 {
		input = uint8(tctx.CCValue)
	}
	if c == nil {
		return input
	}
	switch c.Type {
	case config.CurveFixed:
		return c.Fixed
	case config.CurvePassThrough:
		return input
	case config.CurveLinear:
		return scaleLinear(input, c.InMin, c.InMax, c.OutMin, c.OutMax)
	case config.CurveCurve:
		return scaleGamma(input, c.InMin, c.InMax, c.OutMin, c.OutMax, c.Gamma)
	default:
		return input
	}
}

func scaleLinear(v, inMin, inMax, outMin, outMax uint8) uint8 {
	if inMax <= inMin {
		return outMin
	}
	t := float64(clamp(v, inMin, inMax)-inMin) / float64(inMax-inMin)
	return outMin + uint8(t*float64(outMax-outMin))
}

func scaleGamma(v, inMin, inMax, outMin, outMax uint8, gamma float64) uint8 {
	if inMax <= inMin {
		return outMin
	}
	if gamma <= 0 {
		gamma = 1
	}
	t := float64(clamp(v, inMin, inMax)-inMin) / float64(inMax-inMin)
	t = math.Pow(t, gamma)
	return outMin + uint8(t*float64(outMax-outMin))
}

func clamp(v, lo, hi uint8) uint8 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
