package app

import (
	"context"
	"sync"
	"time"

	"github.com/dcosson/mprocs-go/internal/applog"
	"github.com/dcosson/mprocs-go/internal/config"
	"github.com/dcosson/mprocs-go/internal/kernel"
	"github.com/dcosson/mprocs-go/internal/procinst"
	"github.com/dcosson/mprocs-go/internal/vt"
)

// minRestartUptime mirrors procinst's own threshold: a process that died
// faster than this is a crash loop, not a clean exit, and app-level auto
// restart (driven off kernel ProcUpdates rather than procinst's own
// internal restart, which only fires for plain autorestart with no
// explicit target state) must honor the same guard.
const minRestartUptime = 1 * time.Second

// Renderer is the thing the app hands finished state to once render_needed
// is set and the main loop has a moment to draw. internal/uiclient
// implements it; kept as an interface here so app has no dependency on
// screen layout or escape sequences.
type Renderer interface {
	Render(state *AppState)
}

// App is the App State Machine process (kernel process id `id`, command
// sink `Sink`). It owns the process list and dispatches every AppEvent
// exhaustively, same shape as Kernel's own dispatch loop: one goroutine,
// one inbound channel, explicit quit bookkeeping.
type App struct {
	id          kernel.ProcessId
	kernelInbox chan<- kernel.Message
	Sink        kernel.CmdSink

	cfg        *config.Config
	keymap     *ResolvedKeymap
	renderer   Renderer
	clipboard  func(string) error
	colorHints vt.ColorHints

	mu           sync.Mutex
	state        AppState
	renderNeeded bool
	lastSize     struct{ Rows, Cols int }
}

// State returns a snapshot safe to read from another goroutine (used by
// tests). The main loop itself never
// needs this — it always touches a.state directly from within Run.
func (a *App) State() AppState {
	a.mu.Lock()
	defer a.mu.Unlock()
	snap := a.state
	snap.Procs = append([]*ProcessView(nil), a.state.Procs...)
	return snap
}

// New constructs an App for the given config, ready to be registered with
// the kernel via AddProc(id, app.Factory()).
func New(cfg *config.Config, renderer Renderer, clipboard func(string) error) (*App, error) {
	rk, err := ResolveKeymap(cfg.Keymap)
	if err != nil {
		return nil, err
	}
	a := &App{
		cfg:       cfg,
		keymap:    rk,
		renderer:  renderer,
		clipboard: clipboard,
		state: AppState{
			HideKeymapWindow: cfg.HideKeymapWindow,
		},
	}
	return a, nil
}

// SetColorHints records the controlling terminal's own foreground/
// background colors, applied to every process started from here on so
// their OSC 10/11 queries resolve to the real terminal's palette instead
// of the COLORFGBG fallback. Call before AddProcesses.
func (a *App) SetColorHints(hints vt.ColorHints) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.colorHints = hints
}

// Factory wires the App into the kernel as a process: its command sink
// accepts kernel.ProcCmd the same as any procinst.Instance.
func (a *App) Factory() kernel.ProcFactory {
	return func(ctx kernel.ProcContext) (kernel.ProcInit, error) {
		a.id = ctx.ID
		a.kernelInbox = ctx.KernelSink
		a.Sink = make(kernel.CmdSink, 256)
		return kernel.ProcInit{Sink: a.Sink, StopOnQuit: false, InitialStatus: kernel.StatusRunning}, nil
	}
}

// AddProcesses registers every configured process with the kernel and
// starts listening for their updates. Call once after Factory's AddProc
// message has been processed (so a.id/a.kernelInbox are set).
func (a *App) AddProcesses() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, pc := range a.cfg.ProcList {
		a.addProcessView(pc)
	}
	a.sendKernel(kernel.CmdListenProcUpdates{Listener: a.id})
	a.renderNeeded = true
}

func (a *App) addProcessView(pc *config.ProcessConfig) *ProcessView {
	id := kernel.NextID()
	view := &ProcessView{ID: id, Config: pc, CopyMode: CopyModeNone{}}
	a.state.Procs = append(a.state.Procs, view)
	factory := procinst.NewWithHandle(pc, a.colorHints, func(inst *procinst.Instance) {
		view.Inst = inst
	})
	a.sendKernel(kernel.CmdAddProc{ID: id, Factory: factory})
	return view
}

func (a *App) sendKernel(cmd kernel.KernelCommand) {
	select {
	case a.kernelInbox <- kernel.Message{From: a.id, Command: cmd}:
	default:
		applog.Warn("app: kernel inbox full, dropping %T", cmd)
	}
}

func (a *App) routeToSelected(cmd kernel.ProcCmd) {
	if v := a.state.SelectedView(); v != nil {
		a.sendKernel(kernel.CmdRoute{Target: v.ID, Cmd: cmd})
	}
}

// Run drives the main loop: resize propagation, rendering, dispatch, and
// the quit check, until the app is told to quit or ctx is canceled.
func (a *App) Run(ctx context.Context) {
	for {
		a.mu.Lock()
		needsRender := a.renderNeeded
		a.mu.Unlock()
		if needsRender && a.renderer != nil {
			a.mu.Lock()
			a.renderer.Render(&a.state)
			a.renderNeeded = false
			a.mu.Unlock()
		}
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-a.Sink:
			if !ok {
				return
			}
			a.mu.Lock()
			done := a.dispatch(cmd)
			a.mu.Unlock()
			if done {
				return
			}
		}
	}
}

// SetSize propagates a terminal-area resize to every process, skipping
// the call entirely when the size hasn't actually changed. Safe to call
// from outside the main loop (the client loop's SIGWINCH handler).
func (a *App) SetSize(rows, cols int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setSizeLocked(rows, cols)
}

func (a *App) setSizeLocked(rows, cols int) {
	if a.lastSize.Rows == rows && a.lastSize.Cols == cols {
		return
	}
	a.lastSize = struct{ Rows, Cols int }{rows, cols}
	for _, v := range a.state.Procs {
		a.sendKernel(kernel.CmdRoute{Target: v.ID, Cmd: kernel.CmdResize{Rows: rows, Cols: cols}})
	}
	a.renderNeeded = true
}

func (a *App) dispatch(cmd kernel.ProcCmd) (quit bool) {
	switch c := cmd.(type) {
	case kernel.CmdOnProcUpdate:
		a.handleProcUpdate(c.Source, c.Update)
	case kernel.CmdAppEvent:
		if ev, ok := c.Event.(AppEvent); ok {
			a.handleAppEvent(ev)
		} else {
			applog.Warn("app: CmdAppEvent carried non-AppEvent payload %T", c.Event)
		}
	case kernel.CmdServerMessage:
		a.handleServerMessage(c.Body)
	default:
		applog.Warn("app: unhandled command %T", cmd)
	}
	if a.state.Quitting && a.allDown() {
		a.sendKernel(kernel.CmdQuit{})
		return true
	}
	return false
}

func (a *App) allDown() bool {
	for _, v := range a.state.Procs {
		if v.IsUp {
			return false
		}
	}
	return true
}

func (a *App) handleProcUpdate(source kernel.ProcessId, update kernel.ProcUpdate) {
	v := a.state.ViewByID(source)
	if v == nil {
		return
	}
	switch u := update.(type) {
	case kernel.UpdateStarted:
		v.IsUp = true
		v.ExitCode = nil
		v.LastStart = time.Now()
		v.IsWaiting = false
	case kernel.UpdateStopped:
		v.IsUp = false
		code := u.ExitCode
		v.ExitCode = &code
		a.handleStopped(v, code)
	case kernel.UpdateScreenChanged, kernel.UpdateRendered:
		// handled by render-needed flag below
	}
	v.Changed = v != a.state.SelectedView()
	a.renderNeeded = true
}

// handleStopped applies the auto-restart decision described for the App
// State Machine: an explicit target state wins over the config's plain
// autorestart flag, which otherwise applies only for a genuine crash
// after the process ran longer than minRestartUptime.
func (a *App) handleStopped(v *ProcessView, code int) {
	switch v.Target {
	case TargetStopped:
		v.Target = TargetNone
		return
	case TargetStarted:
		v.Target = TargetNone
		a.sendKernel(kernel.CmdRoute{Target: v.ID, Cmd: kernel.CmdStart{}})
		return
	}

	uptime := time.Since(v.LastStart)
	if v.Config.Autorestart && code != 0 && uptime > minRestartUptime {
		a.sendKernel(kernel.CmdRoute{Target: v.ID, Cmd: kernel.CmdStart{}})
		return
	}

	if a.allDown() && a.cfg.OnAllFinished != "" {
		a.dispatchConfiguredEvent(a.cfg.OnAllFinished)
	}
}

func (a *App) dispatchConfiguredEvent(tag string) {
	ev, err := eventFromSpec(config.EventSpec{Tag: tag})
	if err != nil {
		applog.Warn("app: on-all-finished tag %q: %v", tag, err)
		return
	}
	a.handleAppEvent(ev)
}

func (a *App) handleServerMessage(body []byte) {
	ev, err := DecodeAppEvent(body)
	if err != nil {
		applog.Warn("app: control socket event decode failed: %v", err)
		return
	}
	a.handleAppEvent(ev)
}

func (a *App) beginQuit() {
	if a.state.Quitting {
		return
	}
	a.state.Quitting = true
	for _, v := range a.state.Procs {
		v.Target = TargetStopped
		a.sendKernel(kernel.CmdRoute{Target: v.ID, Cmd: kernel.CmdStop{}})
	}
	a.renderNeeded = true
}

func (a *App) forceQuit() {
	a.state.Quitting = true
	for _, v := range a.state.Procs {
		a.sendKernel(kernel.CmdRoute{Target: v.ID, Cmd: kernel.CmdKill{}})
	}
}
