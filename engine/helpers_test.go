package engine

import (
	"context"
	"time"

	"github.com/jdginn/padengine/action"
	"github.com/jdginn/padengine/classify"
	"github.com/jdginn/padengine/config"
	"github.com/jdginn/padengine/device"
	"github.com/jdginn/padengine/event"
)

// fakeKeySynth records every Press call, for asserting an action fired.
type fakeKeySynth struct {
	calls [][]string
}

func (f *fakeKeySynth) Press(keys, modifiers []string) error {
	f.calls = append(f.calls, keys)
	return nil
}

func twoModeConfig() *config.Config {
	return &config.Config{
		Modes: []config.Mode{
			{
				Name: "default",
				Mappings: []config.Mapping{
					{
						Description: "falls through to global",
						Trigger:     config.TriggerSpec{Type: config.TriggerNote, Note: 36},
						Action: config.Action{
							Type:      config.ActionConditional,
							Condition: &config.Condition{Type: config.CondModeIs, ModeName: "nomatch"},
							Then:      &config.Action{Type: config.ActionKeystroke, Keys: []string{"never-fires"}},
						},
					},
				},
			},
			{Name: "other"},
		},
		GlobalMappings: []config.Mapping{
			{
				Description: "global fallback",
				Trigger:     config.TriggerSpec{Type: config.TriggerNote, Note: 36},
				Action:      config.Action{Type: config.ActionKeystroke, Keys: []string{"a"}},
			},
		},
	}
}

func newTestManager() (*Manager, *fakeKeySynth) {
	keys := &fakeKeySynth{}
	executor := &action.Executor{Keys: keys, Now: time.Now}
	classifier := classify.NewClassifier(classify.DefaultSettings())
	m, err := NewManager("/tmp/does-not-matter.toml", twoModeConfig(), executor, classifier, Devices{})
	if err != nil {
		panic(err)
	}
	return m, keys
}

// noopPort never emits anything and blocks until ctx is cancelled, standing
// in for a real MIDI/HID connection in device-manager tests.
type noopPort struct{}

func (noopPort) Run(ctx context.Context, out chan<- event.InputEvent) error {
	<-ctx.Done()
	return ctx.Err()
}

func alwaysOpen() (device.Port, error) { return noopPort{}, nil }
