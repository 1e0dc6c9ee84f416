package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/jdginn/padengine/config"
	"github.com/jdginn/padengine/control"
	"github.com/jdginn/padengine/logging"
	"github.com/jdginn/padengine/mapping"
)

// Reload procedure (spec.md §4.7):
//  1. Running -> Reloading.
//  2. Load and validate the config file at configPath. On failure, return
//     the error and transition back to Running unchanged.
//  3. Compile the new mapping table (pure, no I/O, can't fail after
//     validation already succeeded).
//  4. Atomically swap the table handle.
//  5. Reloading -> Running. Record duration and a performance grade.
func (m *Manager) Reload(ctx context.Context) (control.ReloadReport, error) {
	log := logging.Get(logging.ENGINE)
	start := time.Now()

	if err := m.transition(StateReloading); err != nil {
		return control.ReloadReport{}, err
	}

	m.mu.RLock()
	path := m.configPath
	m.mu.RUnlock()

	cfg, err := config.Load(path)
	if err != nil {
		if backErr := m.transition(StateRunning); backErr != nil {
			log.Error("could not return to running after failed reload", "err", backErr)
		}
		return control.ReloadReport{}, fmt.Errorf("engine: reload: %w", err)
	}

	table, err := mapping.Compile(cfg)
	if err != nil {
		if backErr := m.transition(StateRunning); backErr != nil {
			log.Error("could not return to running after failed reload", "err", backErr)
		}
		return control.ReloadReport{}, fmt.Errorf("engine: reload: %w", err)
	}

	m.mu.Lock()
	m.cfg = cfg
	modes := table.Modes()
	if !containsMode(modes, m.currentMode) {
		if len(modes) > 0 {
			m.currentMode = modes[0]
		} else {
			m.currentMode = ""
		}
	}
	m.mu.Unlock()

	m.table.Store(table)
	m.classifier.SetSettings(settingsFromConfig(cfg))
	m.classifier.SetInterest(table.Interest())

	if err := m.transition(StateRunning); err != nil {
		return control.ReloadReport{}, err
	}

	duration := time.Since(start)
	m.stats.RecordReload()
	report := control.ReloadReport{
		Grade:      reloadGrade(duration),
		DurationMS: duration.Milliseconds(),
		ModeCount:  len(table.Modes()),
	}
	log.Info("reload complete", "duration", duration, "grade", report.Grade)
	return report, nil
}

func containsMode(modes []string, name string) bool {
	for _, n := range modes {
		if n == name {
			return true
		}
	}
	return false
}

// reloadGrade assigns the performance grade spec.md §4.7 describes for a
// reload's wall-clock duration.
func reloadGrade(d time.Duration) string {
	switch {
	case d <= 20*time.Millisecond:
		return "A"
	case d <= 50*time.Millisecond:
		return "B"
	case d <= 100*time.Millisecond:
		return "C"
	case d <= 200*time.Millisecond:
		return "D"
	default:
		return "F"
	}
}
