// Package kernel implements the Process Kernel: a
// single-threaded, message-driven supervisor that allocates process
// identities, routes commands between processes, tracks lifecycle, and
// coordinates shutdown. Grounded on h2's bridgeservice.Service
// message loop (internal/bridgeservice/service.go: Run/acceptLoop/
// handleConn) and internal/message.RunDelivery's channel+ticker shape,
// generalized from "route messages between bridges and one agent" to
// "route commands between N processes and their listeners".
package kernel

import (
	"sync/atomic"

	"github.com/dcosson/mprocs-go/internal/keys"
)

// ProcessId is an opaque, monotonically allocated identity, stable for the
// life of the app.
type ProcessId int64

// Status is a process's observed lifecycle state.
type Status int

const (
	StatusDown Status = iota
	StatusRunning
)

func (s Status) String() string {
	if s == StatusRunning {
		return "Running"
	}
	return "Down"
}

// ProcCmd is the closed sum type of commands addressed to one process.
// New variants require updating every process's dispatch switch — see
// internal/procinst/instance.go and internal/app's Custom handling.
type ProcCmd interface{ isProcCmd() }

type CmdStart struct{}
type CmdStop struct{}
type CmdKill struct{}
type CmdSendKey struct{ Key keys.Key }
type CmdSendMouse struct{ Event keys.MouseEvent }
type CmdResize struct{ Rows, Cols int }
type CmdScrollUp struct{}
type CmdScrollDown struct{}
type CmdScrollUpLines struct{ N int }
type CmdScrollDownLines struct{ N int }

// CmdOnProcUpdate is the kernel's fan-out notification to a listener,
// carrying the source process id and the update it published.
type CmdOnProcUpdate struct {
	Source ProcessId
	Update ProcUpdate
}

// CmdAppEvent and CmdServerMessage replace h2's type-erased
// ProcCmd::Custom.
type CmdAppEvent struct{ Event any }
type CmdServerMessage struct{ Body []byte }

func (CmdStart) isProcCmd()           {}
func (CmdStop) isProcCmd()            {}
func (CmdKill) isProcCmd()            {}
func (CmdSendKey) isProcCmd()         {}
func (CmdSendMouse) isProcCmd()       {}
func (CmdResize) isProcCmd()          {}
func (CmdScrollUp) isProcCmd()        {}
func (CmdScrollDown) isProcCmd()      {}
func (CmdScrollUpLines) isProcCmd()   {}
func (CmdScrollDownLines) isProcCmd() {}
func (CmdOnProcUpdate) isProcCmd()    {}
func (CmdAppEvent) isProcCmd()        {}
func (CmdServerMessage) isProcCmd()   {}

// ProcUpdate is the closed sum type a process publishes to the kernel,
// fanned out to every listener as CmdOnProcUpdate.
type ProcUpdate interface{ isProcUpdate() }

type UpdateStarted struct{}
type UpdateStopped struct{ ExitCode int }
type UpdateScreenChanged struct{}
type UpdateRendered struct{}

func (UpdateStarted) isProcUpdate()       {}
func (UpdateStopped) isProcUpdate()       {}
func (UpdateScreenChanged) isProcUpdate() {}
func (UpdateRendered) isProcUpdate()      {}

// CmdSink is the lossless ordered queue a process's handle accepts
// commands through. Buffered and non-blocking on
// the sender's side via Kernel.send — see kernel.go.
type CmdSink chan ProcCmd

// ProcContext is handed to a process factory so it can address itself and
// reach the kernel.
type ProcContext struct {
	ID         ProcessId
	KernelSink chan<- Message
}

// ProcInit is what a factory returns after standing up a process: the
// command sink the kernel should route to, whether it must reach Down
// before quit completes, and its starting status.
type ProcInit struct {
	Sink          CmdSink
	StopOnQuit    bool
	InitialStatus Status
}

// ProcFactory instantiates a logical process. Errors from the factory
// itself are a spawn-time failure; the
// caller (kernel) logs and does not add a handle for the id.
type ProcFactory func(ctx ProcContext) (ProcInit, error)

// KernelCommand is the closed sum type of messages sent to the kernel
// itself.
type KernelCommand interface{ isKernelCommand() }

type CmdAddProc struct {
	ID      ProcessId
	Factory ProcFactory
}
type CmdRoute struct {
	Target ProcessId
	Cmd    ProcCmd
}
type CmdListenProcUpdates struct{ Listener ProcessId }
type CmdUnlistenProcUpdates struct{ Listener ProcessId }
type CmdProcStarted struct{}
type CmdProcStopped struct{ ExitCode int }
type CmdProcUpdatedScreen struct{}
type CmdProcRendered struct{}
type CmdQuit struct{}

func (CmdAddProc) isKernelCommand()             {}
func (CmdRoute) isKernelCommand()               {}
func (CmdListenProcUpdates) isKernelCommand()   {}
func (CmdUnlistenProcUpdates) isKernelCommand() {}
func (CmdProcStarted) isKernelCommand()         {}
func (CmdProcStopped) isKernelCommand()         {}
func (CmdProcUpdatedScreen) isKernelCommand()   {}
func (CmdProcRendered) isKernelCommand()        {}
func (CmdQuit) isKernelCommand()                {}

// Message is one entry in the kernel's inbox.
type Message struct {
	From    ProcessId
	Command KernelCommand
}

// idCounter backs NextID. Allocation is atomic and independent of the
// kernel's single-threaded loop state: ids never repeat within a run, and
// callers (the app) need ids before the AddProc message reaches the loop.
var idCounter atomic.Int64

// NextID allocates a fresh, never-repeating ProcessId.
func NextID() ProcessId {
	return ProcessId(idCounter.Add(1))
}
