package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jdginn/padengine/logging"
)

// wallClockLimit and memoryLimitKB are spec.md §6's plugin sandbox limits:
// "memory (≤128 MiB), instruction, and wall-clock (≤5s) limits".
const (
	wallClockLimit = 5 * time.Second
	memoryLimitKB  = 128 * 1024
)

// Sandbox implements action.PluginRegistry by running each plugin as a
// standalone executable under dir, one JSON request/response exchange per
// Invoke call (spec.md §4.5's "JSON request/response as in §4.5"). There is
// no sandboxing library anywhere in the corpus (plugin hosts in the
// examples, e.g. viamrobotics-rdk's module system, run plugins as
// full out-of-process gRPC servers with no per-call resource cap); the
// nearest available primitive is the OS's own process rlimits, applied
// here with the POSIX shell's "ulimit -v" since Go's exec.Cmd has no
// portable memory-limit knob. Instruction-count limiting has no
// general-purpose enforcement mechanism outside a language-level VM, so it
// is not enforced; only wall-clock and memory are.
type Sandbox struct {
	dir          string
	capabilities map[string]Capabilities
}

// Capabilities declares what one named plugin is permitted to do, per
// spec.md §6's "expose only declared capabilities (filesystem under a
// sandbox dir, outbound network)".
type Capabilities struct {
	Filesystem bool
	Network    bool
}

// NewSandbox roots every plugin invocation under dir. cap declares each
// registered plugin's allowed capabilities; a plugin invoked without a
// matching entry runs with neither filesystem nor network access declared.
func NewSandbox(dir string, capabilities map[string]Capabilities) *Sandbox {
	return &Sandbox{dir: dir, capabilities: capabilities}
}

type pluginRequest struct {
	ActionID string                 `json:"actionId"`
	Params   map[string]interface{} `json:"params"`
}

type pluginResponse struct {
	Error string `json:"error,omitempty"`
}

// Invoke implements action.PluginRegistry. name must resolve to an
// executable directly inside dir (no subdirectory traversal, honoring the
// "filesystem under a sandbox dir" capability even for the plugin binary
// itself).
func (s *Sandbox) Invoke(name, actionID string, params map[string]interface{}) error {
	log := logging.Get(logging.PLATFORM)

	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("platform: plugin name %q must not contain a path separator", name)
	}
	binPath := filepath.Join(s.dir, name)

	req := pluginRequest{ActionID: actionID, Params: params}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("platform: marshal plugin request: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), wallClockLimit)
	defer cancel()

	cmd := s.command(ctx, binPath)
	cmd.Stdin = bytes.NewReader(body)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("platform: plugin %q exceeded %s wall-clock limit", name, wallClockLimit)
		}
		return fmt.Errorf("platform: plugin %q: %w", name, err)
	}

	var resp pluginResponse
	if stdout.Len() > 0 {
		if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
			log.Warn("plugin response not valid JSON, ignoring", "plugin", name, "err", err)
		} else if resp.Error != "" {
			return fmt.Errorf("platform: plugin %q reported error: %s", name, resp.Error)
		}
	}
	return nil
}

func (s *Sandbox) capabilitiesFor(name string) Capabilities {
	return s.capabilities[name]
}
