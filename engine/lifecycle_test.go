package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionLegalEdges(t *testing.T) {
	assert.True(t, canTransition(StateInit, StateStarting))
	assert.True(t, canTransition(StateRunning, StateReloading))
	assert.True(t, canTransition(StateReloading, StateRunning))
	assert.True(t, canTransition(StateDegraded, StateReconnecting))
	assert.True(t, canTransition(StateReconnecting, StateRunning))
	assert.True(t, canTransition(StateStopping, StateStopped))
}

func TestCanTransitionRejectsSkippedEdges(t *testing.T) {
	assert.False(t, canTransition(StateRunning, StateReconnecting))
	assert.False(t, canTransition(StateDegraded, StateRunning))
	assert.False(t, canTransition(StateInit, StateRunning))
	assert.False(t, canTransition(StateStopped, StateStarting))
}

func TestErrIllegalTransitionMessage(t *testing.T) {
	err := &ErrIllegalTransition{From: StateInit, To: StateRunning}
	assert.Contains(t, err.Error(), "Init")
	assert.Contains(t, err.Error(), "Running")
}
