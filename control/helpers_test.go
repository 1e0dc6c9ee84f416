package control

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func newTestID() uuid.UUID {
	return uuid.New()
}

func rawArgs(t *testing.T, s string) json.RawMessage {
	t.Helper()
	return json.RawMessage(s)
}
