package kernel

import (
	"context"

	"github.com/dcosson/mprocs-go/internal/applog"
)

// inboxBuffer sizes the kernel's Message inbox. Processes and the app
// enqueue from their own goroutines; the kernel drains single-threaded.
const inboxBuffer = 256

// cmdSinkBuffer sizes a process's own CmdSink. Kept small: the kernel
// never blocks waiting on a full sink, it just drops and logs.
const cmdSinkBuffer = 64

type processHandle struct {
	id            ProcessId
	sink          CmdSink
	stopOnQuit    bool
	status        Status
	quitRequested bool
}

// Kernel is the Process Kernel: it owns process identity,
// command routing, and update fan-out, processing exactly one Message at
// a time off its inbox. Grounded on bridgeservice.Service's acceptLoop
// pattern: one goroutine, one channel, a select loop, explicit shutdown
// bookkeeping instead of a WaitGroup race.
type Kernel struct {
	Inbox chan Message

	procs     map[ProcessId]*processHandle
	listeners map[ProcessId]struct{}
	quitting  bool
}

// New returns a Kernel ready to Run.
func New() *Kernel {
	return &Kernel{
		Inbox:     make(chan Message, inboxBuffer),
		procs:     make(map[ProcessId]*processHandle),
		listeners: make(map[ProcessId]struct{}),
	}
}

// Run drains the inbox until a terminal Quit sequence completes or ctx is
// canceled.
func (k *Kernel) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-k.Inbox:
			if !ok {
				return
			}
			if k.dispatch(msg) {
				return
			}
		}
	}
}

// dispatch handles one Message and reports whether the kernel should now
// stop its loop.
func (k *Kernel) dispatch(msg Message) (done bool) {
	switch cmd := msg.Command.(type) {
	case CmdAddProc:
		k.handleAddProc(cmd)
	case CmdRoute:
		k.handleRoute(cmd)
	case CmdListenProcUpdates:
		k.listeners[cmd.Listener] = struct{}{}
	case CmdUnlistenProcUpdates:
		delete(k.listeners, cmd.Listener)
	case CmdProcStarted:
		k.handleProcStarted(msg.From)
	case CmdProcStopped:
		k.handleProcStopped(msg.From, cmd.ExitCode)
	case CmdProcUpdatedScreen:
		k.fanOut(msg.From, UpdateScreenChanged{})
	case CmdProcRendered:
		k.fanOut(msg.From, UpdateRendered{})
	case CmdQuit:
		return k.handleQuit()
	default:
		applog.Warn("kernel: unhandled command %T from proc %d", cmd, msg.From)
	}
	return k.quitting && k.readyToQuit()
}

func (k *Kernel) handleAddProc(cmd CmdAddProc) {
	if _, exists := k.procs[cmd.ID]; exists {
		applog.Warn("kernel: AddProc for already-known id %d ignored", cmd.ID)
		return
	}
	init, err := cmd.Factory(ProcContext{ID: cmd.ID, KernelSink: k.Inbox})
	if err != nil {
		applog.Error("kernel: spawn factory for proc %d failed: %v", cmd.ID, err)
		return
	}
	k.procs[cmd.ID] = &processHandle{
		id:         cmd.ID,
		sink:       init.Sink,
		stopOnQuit: init.StopOnQuit,
		status:     init.InitialStatus,
	}
}

func (k *Kernel) handleRoute(cmd CmdRoute) {
	h, ok := k.procs[cmd.Target]
	if !ok {
		applog.Warn("kernel: Route to unknown proc %d dropped", cmd.Target)
		return
	}
	k.send(h, cmd.Cmd)
}

// send is the kernel's one non-blocking enqueue point: a full
// sink means the process is wedged or shutting down; drop and log rather
// than stall the entire kernel loop over one stuck process.
func (k *Kernel) send(h *processHandle, cmd ProcCmd) {
	select {
	case h.sink <- cmd:
	default:
		applog.Warn("kernel: sink full for proc %d, dropping %T", h.id, cmd)
	}
}

func (k *Kernel) handleProcStarted(from ProcessId) {
	if h, ok := k.procs[from]; ok {
		h.status = StatusRunning
	}
	k.fanOut(from, UpdateStarted{})
}

func (k *Kernel) handleProcStopped(from ProcessId, exitCode int) {
	if h, ok := k.procs[from]; ok {
		h.status = StatusDown
	}
	k.fanOut(from, UpdateStopped{ExitCode: exitCode})
}

// fanOut delivers a ProcUpdate to every listener as CmdOnProcUpdate, in
// listener-registration order being unspecified.
func (k *Kernel) fanOut(source ProcessId, update ProcUpdate) {
	for listener := range k.listeners {
		h, ok := k.procs[listener]
		if !ok {
			continue
		}
		k.send(h, CmdOnProcUpdate{Source: source, Update: update})
	}
}

// handleQuit begins (or re-checks) shutdown: every StopOnQuit process is
// told to Stop, and the loop exits once they've all reported Down.
func (k *Kernel) handleQuit() (done bool) {
	if !k.quitting {
		k.quitting = true
		for _, h := range k.procs {
			if h.stopOnQuit && h.status == StatusRunning {
				h.quitRequested = true
				k.send(h, CmdStop{})
			}
		}
	}
	return k.readyToQuit()
}

func (k *Kernel) readyToQuit() bool {
	for _, h := range k.procs {
		if h.stopOnQuit && h.status == StatusRunning {
			return false
		}
	}
	return true
}
