// Package control implements the local control-plane socket (spec.md §4.8):
// a per-user Unix-domain endpoint accepting framed JSON requests and
// dispatching them to the engine manager. Grounded on the teacher's
// devices/osc.go string-address dispatch (AddMsgHandler keyed by OSC
// address), generalized from an OSC address to a JSON "command" field.
package control

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Command names spec.md §4.8 enumerates. This list is exhaustive; it is not
// extended by anything this module adds on top of the distilled spec.
const (
	CmdPing           = "Ping"
	CmdStatus         = "Status"
	CmdReload         = "Reload"
	CmdValidateConfig = "ValidateConfig"
	CmdStop           = "Stop"
	CmdListDevices    = "ListDevices"
	CmdSetDevice      = "SetDevice"
	CmdGetDevice      = "GetDevice"
	CmdListModes      = "ListModes"
	CmdSetMode        = "SetMode"
	CmdGetCurrentMode = "GetCurrentMode"
)

// Error code families (spec.md §4.8): 1xxx protocol, 2xxx config, 3xxx
// device/state, 4xxx system.
const (
	ErrProtocolUnknownCommand  = 1000
	ErrProtocolBadArgs         = 1001
	ErrProtocolRequestTooLarge = 1002

	ErrConfigInvalid = 2000

	ErrDeviceNotFound = 3000
	ErrModeNotFound   = 3001
	ErrInvalidState   = 3002

	ErrSystemInternal = 4000
)

// Request is the wire envelope a client sends: {id, command, args}.
type Request struct {
	ID      uuid.UUID       `json:"id"`
	Command string          `json:"command"`
	Args    json.RawMessage `json:"args,omitempty"`
}

// Response is the wire envelope the socket sends back: {id, status,
// data?, error?}.
type Response struct {
	ID     uuid.UUID   `json:"id"`
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo carries a stable code alongside a human-readable message, per
// spec.md §4.8's grouped error codes.
type ErrorInfo struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func success(id uuid.UUID, data interface{}) Response {
	return Response{ID: id, Status: "success", Data: data}
}

func failure(id uuid.UUID, code int, err error) Response {
	return Response{ID: id, Status: "error", Error: &ErrorInfo{Code: code, Message: err.Error()}}
}
