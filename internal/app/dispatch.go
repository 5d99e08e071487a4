package app

import (
	"github.com/dcosson/mprocs-go/internal/applog"
	"github.com/dcosson/mprocs-go/internal/config"
	"github.com/dcosson/mprocs-go/internal/kernel"
	"github.com/dcosson/mprocs-go/internal/keys"
)

// configProcessFromShell builds an ad hoc ProcessConfig for a process
// added interactively through the Add Process modal: the typed text is
// both its display name and its shell command.
func configProcessFromShell(shell string) *config.ProcessConfig {
	return &config.ProcessConfig{Name: shell, Shell: shell}
}

// DispatchKey resolves a physical keystroke through the keymap scope
// active for the current focus/copy-mode state. An unbound key in
// Term/TermZoom scope forwards to the focused process; in Procs scope it
// is dropped (the process list has no free-text input outside modals).
// Safe to call from outside the main loop (the client loop's read side).
func (a *App) DispatchKey(k keys.Key) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dispatchKeyLocked(k)
}

// DispatchMouse forwards a decoded mouse report to the focused process
// (or moves the copy-mode cursor, if copy mode is active). Safe to call
// from outside the main loop.
func (a *App) DispatchMouse(ev keys.MouseEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handleAppEvent(EvtMouse{Event: ev})
}

// DispatchPaste forwards a paste payload to the focused process, one
// SendKey per rune (see encodePasteAsKeys). The client's pastes arrive
// here through RunAppBridge's wire.MsgPaste case. Safe to call from
// outside the main loop.
func (a *App) DispatchPaste(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handleAppEvent(EvtPaste{Text: text})
}

func (a *App) dispatchKeyLocked(k keys.Key) {
	if a.state.Modal != nil {
		a.handleAppEvent(EvtModalInput{Key: k})
		return
	}

	v := a.state.SelectedView()
	inCopyMode := v != nil && isCopyModeActive(v.CopyMode)

	if ev, ok := a.keymap.Lookup(a.state.Scope, inCopyMode, k); ok {
		a.handleAppEvent(ev)
		return
	}

	if a.state.Scope == ScopeProcs && !inCopyMode {
		return
	}
	a.handleAppEvent(EvtSendKey{Key: k})
}

func isCopyModeActive(cm CopyMode) bool {
	_, ok := cm.(CopyModeActive)
	return ok
}

// handleAppEvent is the exhaustive dispatch table: every AppEvent either
// mutates state and marks a render pending, routes a ProcCmd to a target
// process, opens/closes a modal, or starts the quit sequence.
func (a *App) handleAppEvent(ev AppEvent) {
	a.renderNeeded = true

	switch e := ev.(type) {
	case EvtKey:
		a.dispatchKeyLocked(e.Key)
		return
	case EvtMouse:
		a.handleMouse(e.Event)
	case EvtResize:
		a.setSizeLocked(e.Rows, e.Cols)
	case EvtFocusGained, EvtFocusLost:
		// no state to track; bookkept by the physical client only
	case EvtPaste:
		for _, cmd := range a.encodePasteAsKeys(e.Text) {
			a.routeToSelected(cmd)
		}

	case EvtToggleFocus:
		a.toggleFocus()
	case EvtZoomToggle:
		a.toggleZoom()
	case EvtSelectNext:
		a.selectDelta(1)
	case EvtSelectPrev:
		a.selectDelta(-1)
	case EvtSelectIndex:
		a.selectIndex(e.Index)

	case EvtStartSelected:
		a.startSelected()
	case EvtStopSelected:
		a.stopSelected()
	case EvtRestartSelected:
		a.restartSelected()
	case EvtKillSelected:
		a.routeToSelected(kernel.CmdKill{})

	case EvtOpenAddProc:
		a.state.Modal = ModalAddProc{}
	case EvtOpenRenameProc:
		if v := a.state.SelectedView(); v != nil {
			a.state.Modal = ModalRenameProc{ID: v.ID, Name: v.Config.Name}
		}
	case EvtOpenRemoveProc:
		if v := a.state.SelectedView(); v != nil {
			a.state.Modal = ModalRemoveProc{ID: v.ID}
		}
	case EvtOpenCommandsMenu:
		a.state.Modal = ModalCommandsMenu{Items: commandMenuItems()}
	case EvtOpenQuitConfirm:
		a.state.Modal = ModalQuit{}
	case EvtCloseModal:
		a.state.Modal = nil
	case EvtModalInput:
		a.handleModalInput(e.Key)
	case EvtModalSubmit:
		a.submitModal()

	case EvtRequestQuit:
		a.beginQuit()
	case EvtForceQuit:
		a.forceQuit()

	case EvtEnterCopyMode:
		a.enterCopyMode()
	case EvtCopyModeMove:
		a.moveCopyMode(e.DRow, e.DCol)
	case EvtCopyModeEnd:
		a.endCopyMode()
	case EvtCopyModeCopy:
		a.copySelection()
	case EvtCopyModeLeave:
		a.leaveCopyMode()

	case EvtScrollUp:
		a.routeToSelected(kernel.CmdScrollUp{})
	case EvtScrollDown:
		a.routeToSelected(kernel.CmdScrollDown{})
	case EvtScrollUpLines:
		a.routeToSelected(kernel.CmdScrollUpLines{N: e.N})
	case EvtScrollDownLines:
		a.routeToSelected(kernel.CmdScrollDownLines{N: e.N})

	case EvtSendKey:
		a.routeToSelected(kernel.CmdSendKey{Key: e.Key})

	default:
		applog.Warn("app: unhandled AppEvent %T", ev)
	}
}

func (a *App) handleMouse(ev keys.MouseEvent) {
	v := a.state.SelectedView()
	if v == nil {
		return
	}
	if cm, ok := v.CopyMode.(CopyModeActive); ok {
		v.CopyMode = Move(cm, ev.Row-1-cm.Anchor.Row, 0)
		return
	}
	a.sendKernel(kernel.CmdRoute{Target: v.ID, Cmd: kernel.CmdSendMouse{Event: ev}})
}

func (a *App) encodePasteAsKeys(text string) []kernel.ProcCmd {
	// procinst has no bulk-paste ProcCmd, so a paste (from the client or
	// the control socket) is forwarded as one SendKey per rune.
	runes := []rune(text)
	cmds := make([]kernel.ProcCmd, 0, len(runes))
	for _, r := range runes {
		cmds = append(cmds, kernel.CmdSendKey{Key: keys.Key{Code: keys.CodeRune, Rune: r}})
	}
	return cmds
}

func (a *App) toggleFocus() {
	switch a.state.Scope {
	case ScopeProcs:
		a.state.Scope = ScopeTerm
	default:
		a.state.Scope = ScopeProcs
	}
	if v := a.state.SelectedView(); v != nil {
		v.Changed = false
	}
}

func (a *App) toggleZoom() {
	if a.state.Scope == ScopeTermZoom {
		a.state.Scope = ScopeTerm
	} else {
		a.state.Scope = ScopeTermZoom
	}
}

func (a *App) selectDelta(delta int) {
	if len(a.state.Procs) == 0 {
		return
	}
	n := len(a.state.Procs)
	a.state.Selected = ((a.state.Selected+delta)%n + n) % n
	if v := a.state.SelectedView(); v != nil {
		v.Changed = false
	}
}

func (a *App) selectIndex(idx int) {
	if idx < 0 || idx >= len(a.state.Procs) {
		return
	}
	a.state.Selected = idx
	if v := a.state.SelectedView(); v != nil {
		v.Changed = false
	}
}

func (a *App) startSelected() {
	v := a.state.SelectedView()
	if v == nil {
		return
	}
	v.Target = TargetStarted
	a.sendKernel(kernel.CmdRoute{Target: v.ID, Cmd: kernel.CmdStart{}})
}

func (a *App) stopSelected() {
	v := a.state.SelectedView()
	if v == nil {
		return
	}
	v.Target = TargetStopped
	a.sendKernel(kernel.CmdRoute{Target: v.ID, Cmd: kernel.CmdStop{}})
}

func (a *App) restartSelected() {
	v := a.state.SelectedView()
	if v == nil {
		return
	}
	v.Target = TargetStarted
	a.sendKernel(kernel.CmdRoute{Target: v.ID, Cmd: kernel.CmdStop{}})
}

func (a *App) enterCopyMode() {
	v := a.state.SelectedView()
	if v == nil || v.Inst == nil {
		return
	}
	v.CopyMode = EnterCopyMode(v.Inst.Screen())
}

func (a *App) moveCopyMode(drow, dcol int) {
	v := a.state.SelectedView()
	if v == nil {
		return
	}
	if cm, ok := v.CopyMode.(CopyModeActive); ok {
		v.CopyMode = Move(cm, drow, dcol)
	}
}

func (a *App) endCopyMode() {
	v := a.state.SelectedView()
	if v == nil {
		return
	}
	if cm, ok := v.CopyMode.(CopyModeActive); ok {
		v.CopyMode = End(cm)
	}
}

func (a *App) copySelection() {
	v := a.state.SelectedView()
	if v == nil {
		return
	}
	cm, ok := v.CopyMode.(CopyModeActive)
	if !ok {
		return
	}
	text := ExtractText(End(cm))
	if a.clipboard != nil {
		if err := a.clipboard(text); err != nil {
			applog.Warn("app: clipboard write failed: %v", err)
		}
	}
	a.leaveCopyMode()
}

func (a *App) leaveCopyMode() {
	v := a.state.SelectedView()
	if v == nil {
		return
	}
	var none CopyModeNone
	if cm, ok := v.CopyMode.(CopyModeActive); ok && cm.Cursor != nil {
		pos := *cm.Cursor
		none.Pinned = &pos
	}
	v.CopyMode = none
}

func (a *App) handleModalInput(k keys.Key) {
	if k.Code == keys.CodeEscape {
		a.state.Modal = nil
		return
	}
	if k.Code == keys.CodeEnter {
		a.submitModal()
		return
	}

	switch m := a.state.Modal.(type) {
	case ModalAddProc:
		m.Command = appendOrBackspace(m.Command, k)
		a.state.Modal = m
	case ModalRenameProc:
		m.Name = appendOrBackspace(m.Name, k)
		a.state.Modal = m
	case ModalCommandsMenu:
		switch k.Code {
		case keys.CodeUp:
			if m.Selected > 0 {
				m.Selected--
			}
		case keys.CodeDown:
			if m.Selected < len(m.Items)-1 {
				m.Selected++
			}
		}
		a.state.Modal = m
	}
}

// commandMenuItems is the commands menu's backing list: a fixed subset of
// the bindable actions, each paired with the event Enter dispatches on it.
// select-proc, show-commands-menu, show-quit-confirm, submit-modal, the
// copy-mode-move-* tags and the scroll-*-lines tags are not listed. Grounded on
// original mprocs's modal/commands_menu.rs get_commands table, adapted to
// this app's own AppEvent vocabulary (eventFromSpec's tag set) in place of
// the upstream's hardcoded (name, description, AppEvent) array.
func commandMenuItems() []CommandMenuItem {
	return []CommandMenuItem{
		{Name: "quit", Desc: "quit, stopping all processes", Event: EvtRequestQuit{}},
		{Name: "force-quit", Desc: "quit immediately, killing all processes", Event: EvtForceQuit{}},
		{Name: "toggle-focus", Desc: "switch focus between process list and terminal", Event: EvtToggleFocus{}},
		{Name: "zoom", Desc: "toggle zoom on the focused terminal", Event: EvtZoomToggle{}},
		{Name: "next-proc", Desc: "select the next process", Event: EvtSelectNext{}},
		{Name: "prev-proc", Desc: "select the previous process", Event: EvtSelectPrev{}},
		{Name: "start-proc", Desc: "start the selected process", Event: EvtStartSelected{}},
		{Name: "stop-proc", Desc: "stop the selected process", Event: EvtStopSelected{}},
		{Name: "restart-proc", Desc: "restart the selected process", Event: EvtRestartSelected{}},
		{Name: "kill-proc", Desc: "kill the selected process", Event: EvtKillSelected{}},
		{Name: "show-add-proc", Desc: "open the add process dialog", Event: EvtOpenAddProc{}},
		{Name: "show-rename-proc", Desc: "open the rename process dialog", Event: EvtOpenRenameProc{}},
		{Name: "show-remove-proc", Desc: "open the remove process dialog", Event: EvtOpenRemoveProc{}},
		{Name: "close-current-modal", Desc: "close the open dialog", Event: EvtCloseModal{}},
		{Name: "scroll-up", Desc: "scroll the terminal up", Event: EvtScrollUp{}},
		{Name: "scroll-down", Desc: "scroll the terminal down", Event: EvtScrollDown{}},
		{Name: "copy-mode-enter", Desc: "enter copy mode", Event: EvtEnterCopyMode{}},
		{Name: "copy-mode-leave", Desc: "leave copy mode without copying", Event: EvtCopyModeLeave{}},
		{Name: "copy-mode-end", Desc: "end the copy mode selection", Event: EvtCopyModeEnd{}},
		{Name: "copy-mode-copy", Desc: "copy the selection to the clipboard", Event: EvtCopyModeCopy{}},
	}
}

func appendOrBackspace(s string, k keys.Key) string {
	switch k.Code {
	case keys.CodeBackspace:
		if len(s) == 0 {
			return s
		}
		r := []rune(s)
		return string(r[:len(r)-1])
	case keys.CodeRune:
		return s + string(k.Rune)
	default:
		return s
	}
}

func (a *App) submitModal() {
	switch m := a.state.Modal.(type) {
	case ModalAddProc:
		if m.Command != "" {
			a.addProcessView(configProcessFromShell(m.Command))
		}
	case ModalRenameProc:
		if v := a.state.ViewByID(m.ID); v != nil && m.Name != "" {
			v.Config.Name = m.Name
		}
	case ModalRemoveProc:
		a.removeProcessView(m.ID)
	case ModalQuit:
		a.beginQuit()
	case ModalCommandsMenu:
		a.state.Modal = nil
		if m.Selected >= 0 && m.Selected < len(m.Items) {
			a.handleAppEvent(m.Items[m.Selected].Event)
		}
		return
	}
	a.state.Modal = nil
}

func (a *App) removeProcessView(id kernel.ProcessId) {
	for i, v := range a.state.Procs {
		if v.ID == id && !v.IsUp {
			a.state.Procs = append(a.state.Procs[:i], a.state.Procs[i+1:]...)
			if a.state.Selected >= len(a.state.Procs) && a.state.Selected > 0 {
				a.state.Selected--
			}
			return
		}
	}
}
