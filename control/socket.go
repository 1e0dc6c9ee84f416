package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jdginn/padengine/logging"
)

// maxRequestBytes is spec.md §6's "hard 1 MiB per-request cap".
const maxRequestBytes = 1 << 20

// requestDeadline is spec.md §5's suggested socket read/write deadline.
const requestDeadline = 2 * time.Second

// Server accepts connections on a Unix-domain socket and frames each
// request/response pair as a websocket text message (spec.md §6 leaves
// message framing as "an implementation choice"; this module picks
// websocket framing over the stdlib listener rather than hand-rolling a
// length prefix, consistent with gorilla/websocket's presence in this
// repo's dependency surface). Grounded on the teacher's devices/osc.go
// Run() method, which wraps a stdlib-adjacent listener (osc.Server) in a
// single blocking Serve call.
type Server struct {
	httpSrv  *http.Server
	ln       net.Listener
	path     string
	backend  Backend
	upgrader websocket.Upgrader
}

// NewServer opens the Unix-domain listener at path (removing a stale
// socket file left behind by an unclean shutdown) and prepares a Server
// that dispatches requests to backend.
func NewServer(path string, backend Backend) (*Server, error) {
	if err := removeStaleSocket(path); err != nil {
		return nil, err
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("control: listen on %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		ln.Close()
		return nil, fmt.Errorf("control: chmod %s: %w", path, err)
	}

	s := &Server{
		ln:      ln,
		path:    path,
		backend: backend,
		upgrader: websocket.Upgrader{
			// Never network-bound (spec.md's Non-goals exclude a remote
			// control plane); the socket's filesystem permissions are the
			// access control, so Origin has no meaning here.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleConn)
	s.httpSrv = &http.Server{Handler: mux}
	return s, nil
}

func removeStaleSocket(path string) error {
	if _, err := os.Stat(path); err == nil {
		return os.Remove(path)
	} else if !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Run serves connections until ctx is cancelled, then closes the listener
// and returns.
func (s *Server) Run(ctx context.Context) error {
	log := logging.Get(logging.CONTROL)
	log.Info("control socket listening", "path", s.path)

	errCh := make(chan error, 1)
	go func() { errCh <- s.httpSrv.Serve(s.ln) }()

	select {
	case <-ctx.Done():
		s.httpSrv.Close()
		<-errCh
		os.Remove(s.path)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleConn(w http.ResponseWriter, r *http.Request) {
	log := logging.Get(logging.CONTROL)
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("control socket upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxRequestBytes)

	for {
		conn.SetReadDeadline(time.Now().Add(requestDeadline))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		resp := s.dispatch(r.Context(), raw)

		conn.SetWriteDeadline(time.Now().Add(requestDeadline))
		if err := conn.WriteJSON(resp); err != nil {
			log.Warn("control socket write failed", "err", err)
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, raw []byte) Response {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return failure(uuid.Nil, ErrProtocolBadArgs, fmt.Errorf("malformed request: %w", err))
	}

	log := logging.Get(logging.CONTROL)
	log.Debug("control command received", "id", req.ID, "command", req.Command)

	switch req.Command {
	case CmdPing:
		return success(req.ID, map[string]bool{"pong": true})

	case CmdStatus:
		st, err := s.backend.Status(ctx)
		if err != nil {
			return failure(req.ID, ErrSystemInternal, err)
		}
		return success(req.ID, st)

	case CmdReload:
		rr, err := s.backend.Reload(ctx)
		if err != nil {
			return failure(req.ID, ErrConfigInvalid, err)
		}
		return success(req.ID, rr)

	case CmdValidateConfig:
		var args struct {
			Path string `json:"path"`
		}
		if len(req.Args) > 0 {
			if err := json.Unmarshal(req.Args, &args); err != nil {
				return failure(req.ID, ErrProtocolBadArgs, err)
			}
		}
		vr, err := s.backend.ValidateConfig(ctx, args.Path)
		if err != nil {
			return failure(req.ID, ErrConfigInvalid, err)
		}
		return success(req.ID, vr)

	case CmdStop:
		if err := s.backend.Stop(ctx); err != nil {
			return failure(req.ID, ErrSystemInternal, err)
		}
		return success(req.ID, nil)

	case CmdListDevices:
		devs, err := s.backend.ListDevices(ctx)
		if err != nil {
			return failure(req.ID, ErrSystemInternal, err)
		}
		return success(req.ID, devs)

	case CmdSetDevice:
		var args struct {
			Port string `json:"port"`
		}
		if err := json.Unmarshal(req.Args, &args); err != nil {
			return failure(req.ID, ErrProtocolBadArgs, err)
		}
		if err := s.backend.SetDevice(ctx, args.Port); err != nil {
			return failure(req.ID, ErrDeviceNotFound, err)
		}
		return success(req.ID, nil)

	case CmdGetDevice:
		dev, err := s.backend.GetDevice(ctx)
		if err != nil {
			return failure(req.ID, ErrDeviceNotFound, err)
		}
		return success(req.ID, dev)

	case CmdListModes:
		modes, err := s.backend.ListModes(ctx)
		if err != nil {
			return failure(req.ID, ErrSystemInternal, err)
		}
		return success(req.ID, modes)

	case CmdSetMode:
		var args struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(req.Args, &args); err != nil {
			return failure(req.ID, ErrProtocolBadArgs, err)
		}
		if err := s.backend.SetMode(ctx, args.Name); err != nil {
			return failure(req.ID, ErrModeNotFound, err)
		}
		return success(req.ID, nil)

	case CmdGetCurrentMode:
		name, err := s.backend.GetCurrentMode(ctx)
		if err != nil {
			return failure(req.ID, ErrModeNotFound, err)
		}
		return success(req.ID, name)

	default:
		return failure(req.ID, ErrProtocolUnknownCommand, fmt.Errorf("unknown command %q", req.Command))
	}
}
