package app

import "github.com/dcosson/mprocs-go/internal/keys"

// AppEvent is the closed sum type the app's dispatch loop handles
// exhaustively: every keystroke either resolves to one of these via the
// keymap or, in Term/TermZoom scope, falls through to EvtSendKey.
type AppEvent interface{ isAppEvent() }

// Raw input, forwarded from the client loop before keymap resolution.
type EvtKey struct{ Key keys.Key }
type EvtMouse struct{ Event keys.MouseEvent }
type EvtResize struct{ Rows, Cols int }
type EvtFocusGained struct{}
type EvtFocusLost struct{}
type EvtPaste struct{ Text string }

// Focus and selection.
type EvtToggleFocus struct{}
type EvtZoomToggle struct{}
type EvtSelectNext struct{}
type EvtSelectPrev struct{}
type EvtSelectIndex struct{ Index int }

// Process lifecycle.
type EvtStartSelected struct{}
type EvtStopSelected struct{}
type EvtRestartSelected struct{}
type EvtKillSelected struct{}

// Modals.
type EvtOpenAddProc struct{}
type EvtOpenRenameProc struct{}
type EvtOpenRemoveProc struct{}
type EvtOpenCommandsMenu struct{}
type EvtOpenQuitConfirm struct{}
type EvtCloseModal struct{}
type EvtModalInput struct{ Key keys.Key }
type EvtModalSubmit struct{}

// Quit.
type EvtRequestQuit struct{}
type EvtForceQuit struct{}

// Copy mode: movement, fixing the selection end, copying, and leaving.
type EvtEnterCopyMode struct{}
type EvtCopyModeMove struct{ DRow, DCol int }
type EvtCopyModeEnd struct{}
type EvtCopyModeCopy struct{}
type EvtCopyModeLeave struct{}

// Scrolling the focused process's live view (outside copy mode).
type EvtScrollUp struct{}
type EvtScrollDown struct{}
type EvtScrollUpLines struct{ N int }
type EvtScrollDownLines struct{ N int }

// Raw key forwarded to the focused process when the keymap has nothing
// bound for it.
type EvtSendKey struct{ Key keys.Key }

func (EvtKey) isAppEvent()            {}
func (EvtMouse) isAppEvent()          {}
func (EvtResize) isAppEvent()         {}
func (EvtFocusGained) isAppEvent()    {}
func (EvtFocusLost) isAppEvent()      {}
func (EvtPaste) isAppEvent()          {}
func (EvtToggleFocus) isAppEvent()    {}
func (EvtZoomToggle) isAppEvent()     {}
func (EvtSelectNext) isAppEvent()     {}
func (EvtSelectPrev) isAppEvent()     {}
func (EvtSelectIndex) isAppEvent()    {}
func (EvtStartSelected) isAppEvent()  {}
func (EvtStopSelected) isAppEvent()   {}
func (EvtRestartSelected) isAppEvent() {}
func (EvtKillSelected) isAppEvent()   {}
func (EvtOpenAddProc) isAppEvent()      {}
func (EvtOpenRenameProc) isAppEvent()   {}
func (EvtOpenRemoveProc) isAppEvent()   {}
func (EvtOpenCommandsMenu) isAppEvent() {}
func (EvtOpenQuitConfirm) isAppEvent()  {}
func (EvtCloseModal) isAppEvent()       {}
func (EvtModalInput) isAppEvent()       {}
func (EvtModalSubmit) isAppEvent()      {}
func (EvtRequestQuit) isAppEvent() {}
func (EvtForceQuit) isAppEvent()   {}
func (EvtEnterCopyMode) isAppEvent() {}
func (EvtCopyModeMove) isAppEvent()  {}
func (EvtCopyModeEnd) isAppEvent()   {}
func (EvtCopyModeCopy) isAppEvent()  {}
func (EvtCopyModeLeave) isAppEvent() {}
func (EvtScrollUp) isAppEvent()        {}
func (EvtScrollDown) isAppEvent()      {}
func (EvtScrollUpLines) isAppEvent()   {}
func (EvtScrollDownLines) isAppEvent() {}
func (EvtSendKey) isAppEvent() {}
