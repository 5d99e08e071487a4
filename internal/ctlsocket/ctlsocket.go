// Package ctlsocket implements the control socket: a TCP listener that
// accepts one YAML-encoded AppEvent per connection and routes it into a
// running app, plus the one-shot sender used by --ctl. Grounded on h2's
// daemon.Daemon.Run (socket lifecycle, stale-listener handling) and
// bridgeservice.Service's acceptLoop/handleConn shape, generalized from
// h2's Unix-domain single-agent socket to a TCP listener addressed by
// the --server ADDR flag and routed to one app process id instead of one
// agent.
package ctlsocket

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/dcosson/mprocs-go/internal/applog"
	"github.com/dcosson/mprocs-go/internal/kernel"
)

// maxEventSize bounds how much a single connection may send before the
// server gives up on it; a real AppEvent YAML document is a few dozen
// bytes at most.
const maxEventSize = 64 * 1024

// Server listens for control connections and routes each connection's raw
// body into the kernel as a CmdServerMessage addressed to appID; the app
// decodes it (app.DecodeAppEvent).
type Server struct {
	ln       net.Listener
	lock     *flock.Flock
	lockPath string

	kernelInbox chan<- kernel.Message
	appID       kernel.ProcessId
}

// LockDir returns the directory holding control-socket advisory lock
// files, analogous to h2's daemon.SocketDir but keyed by the listen
// address rather than an agent name: a lockfile per address is enough to
// stop two --server instances from binding the same ADDR, which a bare
// net.Listen("tcp", addr) would already refuse, but which a future
// Unix-socket ADDR form would not without this guard.
func LockDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "mprocs-go", "ctlsocket")
}

func lockPathFor(addr string) string {
	safe := filepath.Base(addr)
	if safe == "" || safe == "." || safe == string(filepath.Separator) {
		safe = "server"
	}
	return filepath.Join(LockDir(), safe+".lock")
}

// Listen binds addr (host:port) and returns a Server ready to Serve.
// Only one Server may hold addr's lock at a time; Listen fails fast with
// a clear error if another instance already owns it, replacing h2's
// connect-probe-and-remove with a real advisory lock that can't race
// against a daemon that is mid-startup.
func Listen(addr string, kernelInbox chan<- kernel.Message, appID kernel.ProcessId) (*Server, error) {
	lockPath := lockPathFor(addr)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o700); err != nil {
		return nil, fmt.Errorf("create control socket lock dir: %w", err)
	}
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock control socket %s: %w", addr, err)
	}
	if !ok {
		return nil, fmt.Errorf("control socket %s is already in use", addr)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	s := &Server{
		ln:          ln,
		lock:        lock,
		lockPath:    lockPath,
		kernelInbox: kernelInbox,
		appID:       appID,
	}
	return s, nil
}

// Serve runs the accept loop until the listener is closed.
func (s *Server) Serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

// Addr reports the bound address, useful when ADDR requested an
// ephemeral port (":0").
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Close stops accepting connections and releases the singleton lock.
func (s *Server) Close() error {
	err := s.ln.Close()
	s.lock.Unlock()
	os.Remove(s.lockPath)
	return err
}

// handleConn reads one connection to completion, treating its full body
// as one YAML-encoded AppEvent, then routes it into the kernel. Control
// sockets are intentionally fire-and-forget: no response is sent, mirroring
// the one-shot write-and-disconnect shape of a --ctl invocation.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	connID := uuid.NewString()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	body, err := io.ReadAll(io.LimitReader(conn, maxEventSize+1))
	if err != nil {
		applog.Warn("ctlsocket: read conn %s: %v", connID, err)
		return
	}
	if len(body) > maxEventSize {
		applog.Warn("ctlsocket: conn %s exceeded %d byte limit, dropping", connID, maxEventSize)
		return
	}

	select {
	case s.kernelInbox <- kernel.Message{
		From:    s.appID,
		Command: kernel.CmdRoute{Target: s.appID, Cmd: kernel.CmdServerMessage{Body: body}},
	}:
		applog.Info("ctlsocket: routed event from conn %s", connID)
	default:
		applog.Warn("ctlsocket: kernel inbox full, dropping event from conn %s", connID)
	}
}

// Send dials addr and writes body as a single control event, then closes
// the connection. This is the --ctl half: one YAML document per
// connection, no response expected.
func Send(addr string, body []byte) error {
	conn, err := net.DialTimeout("tcp", addr, 3*time.Second)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer conn.Close()

	conn.SetWriteDeadline(time.Now().Add(3 * time.Second))
	if _, err := conn.Write(body); err != nil {
		return fmt.Errorf("send event to %s: %w", addr, err)
	}
	return nil
}
