package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdginn/padengine/device"
)

func TestStatusReportsLifecycleAndMode(t *testing.T) {
	m, _ := newTestManager()
	require.NoError(t, m.transition(StateStarting))
	require.NoError(t, m.transition(StateRunning))

	report, err := m.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Running", report.State)
	assert.Equal(t, "default", report.CurrentMode)
}

func TestValidateConfigReportsInvalidDocument(t *testing.T) {
	m, _ := newTestManager()
	path := writeTempConfig(t, invalidToml)

	report, err := m.ValidateConfig(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.NotEmpty(t, report.Error)
}

func TestValidateConfigAcceptsValidDocument(t *testing.T) {
	m, _ := newTestManager()
	path := writeTempConfig(t, validToml)

	report, err := m.ValidateConfig(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, report.Valid)
}

func TestSetDeviceRebindsPinnedOpener(t *testing.T) {
	opener := device.NewPinnedOpener("", func(hint string) (device.Port, error) { return noopPort{}, nil })
	dm := device.NewManager("pad", opener.Open)

	m, _ := newTestManager()
	m.devices.MIDI = dm
	m.devices.MIDIOpener = opener

	require.NoError(t, m.SetDevice(context.Background(), "USB-1234"))
	assert.Equal(t, "USB-1234", opener.Current())
}

func TestListDevicesReportsConfiguredDevice(t *testing.T) {
	opener := device.NewPinnedOpener("hint", func(hint string) (device.Port, error) { return noopPort{}, nil })
	dm := device.NewManager("pad", opener.Open)

	m, _ := newTestManager()
	m.devices.MIDI = dm
	m.devices.MIDIOpener = opener

	reports, err := m.ListDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "pad", reports[0].Name)
}
