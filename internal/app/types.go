// Package app implements the App State Machine: the process that owns
// the process list, the focus/zoom scope, modals, and copy mode, and
// turns keystrokes and kernel updates into a single coherent UI state.
// It runs as an ordinary kernel process itself, receiving ProcCmd values
// on its own sink the same way any other process would, so the client
// loop and the kernel never need a special case for it. Grounded on the
// teacher's session.Session: a long-lived owner holding a list of
// sub-resources (Session.Clients there, ProcessView here), channel-based
// signaling for quit/relaunch, and a render-trigger hook invoked whenever
// state changes enough to need a redraw.
package app

import (
	"time"

	"github.com/dcosson/mprocs-go/internal/config"
	"github.com/dcosson/mprocs-go/internal/kernel"
	"github.com/dcosson/mprocs-go/internal/procinst"
)

// Scope is which part of the UI currently has keyboard focus.
type Scope int

const (
	ScopeProcs Scope = iota
	ScopeTerm
	ScopeTermZoom
)

// TargetState is the user's most recently requested state for a process,
// consulted when it reports Stopped to decide whether to auto-restart.
type TargetState int

const (
	TargetNone TargetState = iota
	TargetStarted
	TargetStopped
)

// ProcessView is the app-side view of one process: its kernel identity,
// its config, its observed lifecycle, and (while focused in copy mode)
// a frozen selection snapshot.
type ProcessView struct {
	ID        kernel.ProcessId
	Config    *config.ProcessConfig
	Inst      *procinst.Instance
	IsUp      bool
	ExitCode  *int
	IsWaiting bool
	CopyMode  CopyMode
	Target    TargetState
	LastStart time.Time
	Changed   bool
}

// AppState is the full serializable UI state (scope, process list,
// selection, any open modal, and shutdown/display flags).
type AppState struct {
	Scope             Scope
	Procs             []*ProcessView
	Selected          int
	Modal             Modal
	Quitting          bool
	HideKeymapWindow  bool
}

func (s *AppState) SelectedView() *ProcessView {
	if s.Selected < 0 || s.Selected >= len(s.Procs) {
		return nil
	}
	return s.Procs[s.Selected]
}

func (s *AppState) ViewByID(id kernel.ProcessId) *ProcessView {
	for _, p := range s.Procs {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Modal is the closed sum type of modal dialogs the app can show; each
// variant owns its own small input state.
type Modal interface{ isModal() }

type ModalAddProc struct {
	Name    string
	Command string
}

type ModalRenameProc struct {
	ID   kernel.ProcessId
	Name string
}

type ModalRemoveProc struct {
	ID kernel.ProcessId
}

type ModalQuit struct{}

// CommandMenuItem is one selectable row of the commands menu: a display
// name, a short description, and the event Enter dispatches on it.
// Mirrors original mprocs's commands_menu.rs (name, description, AppEvent)
// triple, minus the search-string filtering (not wired yet).
type CommandMenuItem struct {
	Name  string
	Desc  string
	Event AppEvent
}

type ModalCommandsMenu struct {
	Items    []CommandMenuItem
	Selected int
}

func (ModalAddProc) isModal()      {}
func (ModalRenameProc) isModal()   {}
func (ModalRemoveProc) isModal()   {}
func (ModalQuit) isModal()         {}
func (ModalCommandsMenu) isModal() {}
