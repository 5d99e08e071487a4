// Package procinst implements the PTY Child Instance:
// fork+exec under a pty master, piping output into a vt.Screen and
// accepting writes/resizes. Grounded on h2's
// internal/session/virtualterminal.VT (PTY lifecycle, idle/hang
// detection, OSC color passthrough, plain-history fallback capture),
// generalized from "one VT per daemon session" to "one VT per kernel
// process" and from a hand-rolled screen to vt.Screen.
package procinst

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/teambition/rrule-go"

	"github.com/dcosson/mprocs-go/internal/applog"
	"github.com/dcosson/mprocs-go/internal/config"
	"github.com/dcosson/mprocs-go/internal/keys"
	"github.com/dcosson/mprocs-go/internal/kernel"
	"github.com/dcosson/mprocs-go/internal/procerr"
	"github.com/dcosson/mprocs-go/internal/vt"
)

// writeTimeout bounds a write to the child's PTY master; a write that
// doesn't complete in time means the child has stopped reading stdin.
const writeTimeout = 500 * time.Millisecond

// minRestartUptime is the uptime threshold below which a crash does not
// trigger autorestart.
const minRestartUptime = 1 * time.Second

// Instance is one live PTY child: master, *exec.Cmd, screen, and the
// bookkeeping needed for hang/restart decisions.
type Instance struct {
	mu sync.Mutex

	id         kernel.ProcessId
	cfg        *config.ProcessConfig
	sink       kernel.CmdSink
	kernel     chan<- kernel.Message
	colorHints vt.ColorHints

	screen    *vt.Screen
	ptm       *os.File
	cmd       *exec.Cmd
	rows      int
	cols      int
	startedAt time.Time

	up      bool
	hung    bool
	exited  bool
	exitErr error

	lastAutoRestart time.Time
}

// replySink adapts an *os.File (the PTY master) to vt.ReplySink so the
// Screen can answer DA1/cursor-position queries without knowing about
// files.
type replySink struct{ f *os.File }

func (r replySink) Write(p []byte) (int, error) { return r.f.Write(p) }

// New constructs a ProcFactory for this process config, following the
// kernel's factory protocol: the kernel calls this with a ProcContext and
// expects a ProcInit back.
func New(cfg *config.ProcessConfig, hints vt.ColorHints) kernel.ProcFactory {
	return NewWithHandle(cfg, hints, nil)
}

// NewWithHandle is New plus an onReady hook invoked with the constructed
// Instance before the factory returns, so a caller (internal/app) can
// keep a handle to it for things the kernel protocol doesn't carry, like
// reaching the shared Screen for copy-mode snapshots and rendering.
// hints seeds the child's OSC 10/11 answers with the real controlling
// terminal's colors; the zero value falls back to COLORFGBG at query time.
func NewWithHandle(cfg *config.ProcessConfig, hints vt.ColorHints, onReady func(*Instance)) kernel.ProcFactory {
	return func(ctx kernel.ProcContext) (kernel.ProcInit, error) {
		inst := &Instance{
			id:         ctx.ID,
			cfg:        cfg,
			sink:       make(kernel.CmdSink, 64),
			kernel:     ctx.KernelSink,
			colorHints: hints,
		}
		if onReady != nil {
			onReady(inst)
		}
		go inst.run()
		return kernel.ProcInit{
			Sink:          inst.sink,
			StopOnQuit:    true,
			InitialStatus: kernel.StatusDown,
		}, nil
	}
}

// run is the process's single command-dispatch loop.
func (inst *Instance) run() {
	if inst.cfg.AutostartDefault() {
		inst.handleStart()
	}
	for cmd := range inst.sink {
		switch c := cmd.(type) {
		case kernel.CmdStart:
			inst.handleStart()
		case kernel.CmdStop:
			inst.handleStop()
		case kernel.CmdKill:
			inst.handleKill()
		case kernel.CmdSendKey:
			inst.handleSendKey(c.Key)
		case kernel.CmdSendMouse:
			inst.handleSendMouse(c.Event)
		case kernel.CmdResize:
			inst.handleResize(c.Rows, c.Cols)
		case kernel.CmdScrollUp:
			inst.withScreen(func(s *vt.Screen) { s.ScrollByHalfPage(true) })
			inst.notifyScreenChanged()
		case kernel.CmdScrollDown:
			inst.withScreen(func(s *vt.Screen) { s.ScrollByHalfPage(false) })
			inst.notifyScreenChanged()
		case kernel.CmdScrollUpLines:
			inst.withScreen(func(s *vt.Screen) { s.ScrollByLines(c.N) })
			inst.notifyScreenChanged()
		case kernel.CmdScrollDownLines:
			inst.withScreen(func(s *vt.Screen) { s.ScrollByLines(-c.N) })
			inst.notifyScreenChanged()
		default:
			applog.Warn("procinst %d: unhandled ProcCmd %T", inst.id, cmd)
		}
	}
}

// Screen exposes the live screen for the app's render pipeline.
func (inst *Instance) Screen() *vt.Screen {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.screen
}

func (inst *Instance) withScreen(f func(*vt.Screen)) {
	inst.mu.Lock()
	s := inst.screen
	inst.mu.Unlock()
	if s != nil {
		f(s)
	}
}

func (inst *Instance) handleStart() {
	inst.mu.Lock()
	if inst.up {
		inst.mu.Unlock()
		return
	}
	rows, cols := inst.rows, inst.cols
	if rows == 0 {
		rows = 24
	}
	if cols == 0 {
		cols = 80
	}
	inst.mu.Unlock()

	argv, err := inst.cfg.Argv()
	if err != nil {
		applog.Error("procinst %d: %v", inst.id, err)
		return
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	if inst.cfg.Cwd != "" {
		cmd.Dir = inst.cfg.Cwd
	}
	if len(inst.cfg.Env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), inst.cfg.Env)
	}

	ptm, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	if err != nil {
		spawnErr := &procerr.SpawnError{Command: strings.Join(argv, " "), Err: err}
		applog.Error("procinst %d: %v", inst.id, spawnErr)
		return
	}

	screen := vt.NewScreen(rows, cols, scrollbackLen(inst.cfg), replySink{ptm})
	screen.SetColorHints(inst.colorHints)

	inst.mu.Lock()
	inst.ptm = ptm
	inst.cmd = cmd
	inst.screen = screen
	inst.rows, inst.cols = rows, cols
	inst.startedAt = time.Now()
	inst.up = true
	inst.exited = false
	inst.hung = false
	inst.mu.Unlock()

	go inst.readLoop(ptm, screen)
	go inst.waitLoop(cmd)

	inst.kernel <- kernel.Message{From: inst.id, Command: kernel.CmdProcStarted{}}
}

// readLoop feeds PTY output into the screen until EOF.
func (inst *Instance) readLoop(ptm *os.File, screen *vt.Screen) {
	buf := make([]byte, 4096)
	for {
		n, err := ptm.Read(buf)
		if n > 0 {
			screen.Write(buf[:n])
			inst.notifyScreenChanged()
		}
		if err != nil {
			return
		}
	}
}

// waitLoop awaits child termination and emits Exited.
func (inst *Instance) waitLoop(cmd *exec.Cmd) {
	err := cmd.Wait()
	exitCode := exitCodeFromError(err)

	inst.mu.Lock()
	inst.up = false
	inst.exited = true
	inst.exitErr = err
	uptime := time.Since(inst.startedAt)
	if inst.ptm != nil {
		inst.ptm.Close()
	}
	inst.mu.Unlock()

	inst.kernel <- kernel.Message{From: inst.id, Command: kernel.CmdProcStopped{ExitCode: exitCode}}

	if inst.cfg.Autorestart && exitCode != 0 && uptime > minRestartUptime {
		if inst.restartAllowedNow() {
			inst.mu.Lock()
			inst.lastAutoRestart = time.Now()
			inst.mu.Unlock()
			inst.handleStart()
		} else {
			applog.Warn("procinst: %s crashed but its restart_schedule has not reached its next occurrence, suppressing autorestart", inst.cfg.Name)
		}
	}
}

// restartAllowedNow reports whether an autorestart may fire right now,
// per the process's restart_schedule RRULE (e.g. "FREQ=MINUTELY;INTERVAL=5"
// to allow at most one autorestart every five minutes). A process with no
// restart_schedule is bound only by minRestartUptime. The rule is
// evaluated from the last autorestart. An invalid RRULE is treated as no
// schedule, logged on each check, and never blocks a restart.
func (inst *Instance) restartAllowedNow() bool {
	if inst.cfg.RestartSchedule == "" {
		return true
	}
	rule, err := rrule.StrToRRule(inst.cfg.RestartSchedule)
	if err != nil {
		applog.Warn("procinst: %s has an invalid restart_schedule %q: %v", inst.cfg.Name, inst.cfg.RestartSchedule, err)
		return true
	}
	inst.mu.Lock()
	last := inst.lastAutoRestart
	inst.mu.Unlock()
	if last.IsZero() {
		return true
	}
	rule.DTStart(last)
	next := rule.After(last, false)
	return !next.IsZero() && !next.After(time.Now())
}

func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}

func (inst *Instance) notifyScreenChanged() {
	select {
	case inst.kernel <- kernel.Message{From: inst.id, Command: kernel.CmdProcUpdatedScreen{}}:
	default:
		// The kernel inbox is momentarily full; screen state itself is
		// already current, only the notification coalesces away.
	}
}

func (inst *Instance) handleStop() {
	inst.mu.Lock()
	ptm, cmd, up := inst.ptm, inst.cmd, inst.up
	inst.mu.Unlock()
	if !up || cmd == nil {
		return
	}
	switch inst.cfg.Stop.Kind {
	case config.StopSIGINT:
		if isWindows() {
			applog.Warn("procinst %d: SIGINT stop signal is a no-op on windows, falling through to terminate", inst.id)
			inst.terminate(cmd)
			return
		}
		cmd.Process.Signal(syscall.SIGINT)
	case config.StopSIGKILL:
		cmd.Process.Signal(syscall.SIGKILL)
	case config.StopSendKeys:
		inst.writeSendKeys(ptm, inst.cfg.Stop.SendKeys)
	case config.StopHardKill:
		inst.terminate(cmd)
	default:
		cmd.Process.Signal(syscall.SIGTERM)
	}
}

func (inst *Instance) terminate(cmd *exec.Cmd) {
	if err := cmd.Process.Kill(); err != nil {
		applog.Warn("procinst %d: kill failed: %v", inst.id, err)
	}
}

func (inst *Instance) writeSendKeys(ptm *os.File, literals []string) {
	if ptm == nil {
		return
	}
	for _, lit := range literals {
		k, ok := keys.ParseLiteral(lit)
		if !ok {
			continue
		}
		inst.writePTY(ptm, keys.Encode(k, keys.EncodeMode{}))
	}
}

func (inst *Instance) handleKill() {
	inst.mu.Lock()
	cmd, up := inst.cmd, inst.up
	inst.mu.Unlock()
	if up && cmd != nil {
		inst.terminate(cmd)
	}
}

// handleSendKey encodes and writes a key, resetting scrollback offset to
// 0 first.
func (inst *Instance) handleSendKey(k keys.Key) {
	inst.mu.Lock()
	ptm, screen := inst.ptm, inst.screen
	inst.mu.Unlock()
	if ptm == nil || screen == nil {
		return
	}
	if screen.ScrollOffset() > 0 {
		screen.SetScrollOffset(0)
	}
	mode := keys.EncodeMode{ApplicationCursorKeys: screen.ApplicationCursorKeys()}
	inst.writePTY(ptm, keys.Encode(k, mode))
}

// handleSendMouse writes the encoded event when the child has enabled
// mouse tracking and drops it when the mode is None. The app handles
// mouse events itself (copy-mode selection) only while copy mode is
// active, whatever the child's mouse mode.
func (inst *Instance) handleSendMouse(ev keys.MouseEvent) {
	inst.mu.Lock()
	ptm, screen := inst.ptm, inst.screen
	inst.mu.Unlock()
	if ptm == nil || screen == nil || screen.MouseMode() == vt.MouseModeNone {
		return
	}
	inst.writePTY(ptm, keys.EncodeMouse(ev, screen.MouseEncoding()))
}

func (inst *Instance) handleResize(rows, cols int) {
	inst.mu.Lock()
	inst.rows, inst.cols = rows, cols
	ptm, screen := inst.ptm, inst.screen
	inst.mu.Unlock()
	if screen != nil {
		screen.Resize(rows, cols)
	}
	if ptm != nil {
		pty.Setsize(ptm, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	}
}

// writePTY writes with a bounded timeout; a child that stops reading
// stdin fills the kernel PTY buffer and would otherwise block this
// process's entire command loop forever.
func (inst *Instance) writePTY(ptm *os.File, p []byte) {
	if len(p) == 0 {
		return
	}
	type result struct {
		n   int
		err error
	}
	ch := make(chan result, 1)
	go func() {
		n, err := ptm.Write(p)
		ch <- result{n, err}
	}()
	timer := time.NewTimer(writeTimeout)
	defer timer.Stop()
	select {
	case r := <-ch:
		if r.err != nil {
			applog.Warn("procinst %d: pty write error: %v", inst.id, r.err)
		}
	case <-timer.C:
		inst.mu.Lock()
		inst.hung = true
		cmd := inst.cmd
		inst.mu.Unlock()
		applog.Error("procinst %d: %v", inst.id, &procerr.HungError{Timeout: writeTimeout.String()})
		if cmd != nil {
			inst.terminate(cmd)
		}
	}
}

// Hung reports whether a write to this process's PTY timed out since the
// last start. The child is killed at that point; the process list shows
// it as Down like any other stopped process, with no separate hung label.
func (inst *Instance) Hung() bool {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.hung
}

func scrollbackLen(cfg *config.ProcessConfig) int {
	if cfg.ScrollbackLen > 0 {
		return cfg.ScrollbackLen
	}
	return 10000
}

func mergeEnv(base []string, overrides map[string]string) []string {
	out := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		key := kv
		if idx := strings.IndexByte(kv, '='); idx >= 0 {
			key = kv[:idx]
		}
		if _, override := overrides[key]; !override {
			out = append(out, kv)
		}
	}
	for k, v := range overrides {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	return out
}

func isWindows() bool { return runtime.GOOS == "windows" }
