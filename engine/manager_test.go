package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerDefaultsToFirstMode(t *testing.T) {
	m, _ := newTestManager()
	assert.Equal(t, "default", m.CurrentMode())
	assert.Equal(t, StateInit, m.State())
}

func TestChangeModeRelativeWraps(t *testing.T) {
	m, _ := newTestManager()
	require.NoError(t, m.ChangeMode(1, true, ""))
	assert.Equal(t, "other", m.CurrentMode())
	require.NoError(t, m.ChangeMode(1, true, ""))
	assert.Equal(t, "default", m.CurrentMode())
}

func TestChangeModeAbsoluteClamps(t *testing.T) {
	m, _ := newTestManager()
	require.NoError(t, m.ChangeMode(99, false, ""))
	assert.Equal(t, "other", m.CurrentMode())
}

func TestSetModeRejectsUnknown(t *testing.T) {
	m, _ := newTestManager()
	err := m.SetMode(context.Background(), "nonexistent")
	assert.Error(t, err)
}

func TestSetModeAndGetCurrentMode(t *testing.T) {
	m, _ := newTestManager()
	require.NoError(t, m.SetMode(context.Background(), "other"))
	got, err := m.GetCurrentMode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "other", got)
}

func TestListModesInDeclarationOrder(t *testing.T) {
	m, _ := newTestManager()
	modes, err := m.ListModes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "other"}, modes)
}
