package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validToml = `
device_hint = ""
auto_connect = true

[[modes]]
name = "default"

[[modes.mappings]]
description = "note to keystroke"
[modes.mappings.trigger]
type = "Note"
note = 40
[modes.mappings.action]
type = "Keystroke"
keys = ["b"]
`

const invalidToml = `this is not valid toml [[[`

func writeTempConfig(t *testing.T, body string) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestReloadGradeBoundaries(t *testing.T) {
	assert.Equal(t, "A", reloadGrade(10*time.Millisecond))
	assert.Equal(t, "B", reloadGrade(30*time.Millisecond))
	assert.Equal(t, "C", reloadGrade(75*time.Millisecond))
	assert.Equal(t, "D", reloadGrade(150*time.Millisecond))
	assert.Equal(t, "F", reloadGrade(500*time.Millisecond))
}

func TestReloadAppliesNewConfig(t *testing.T) {
	m, _ := newTestManager()
	require.NoError(t, m.transition(StateStarting))
	require.NoError(t, m.transition(StateRunning))

	path := writeTempConfig(t, validToml)
	m.mu.Lock()
	m.configPath = path
	m.mu.Unlock()

	report, err := m.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.ModeCount)
	assert.Equal(t, StateRunning, m.State())

	modes, _ := m.ListModes(context.Background())
	assert.Equal(t, []string{"default"}, modes)
}

func TestReloadFailureReturnsToRunning(t *testing.T) {
	m, _ := newTestManager()
	require.NoError(t, m.transition(StateStarting))
	require.NoError(t, m.transition(StateRunning))

	path := writeTempConfig(t, invalidToml)
	m.mu.Lock()
	m.configPath = path
	m.mu.Unlock()

	_, err := m.Reload(context.Background())
	assert.Error(t, err)
	assert.Equal(t, StateRunning, m.State())
}
