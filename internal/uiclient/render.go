// Package uiclient implements the UI Renderer: it composes the process
// list, the focused process's terminal, the keymap legend, and any open
// modal into one cell grid, diffs it against the previous grid with
// internal/diff, and ships the result to a Client over a wire.Link.
// Grounded on h2's internal/session/client/render.go (RenderScreen walks
// Format.Regions row by row the same way internal/diff.Capture does) and
// internal/overlay/render.go (RenderBar's style/label/right-align layout,
// hide-cursor-before-draw/show-cursor-after idiom, ModeLabel/HelpLabel
// text), generalized from one fixed status bar to a sidebar + keymap
// window + terminal pane composited each frame.
package uiclient

import (
	"fmt"
	"strings"
	"sync"

	"github.com/kr/text"
	"github.com/vito/midterm"

	"github.com/dcosson/mprocs-go/internal/app"
	"github.com/dcosson/mprocs-go/internal/diff"
	"github.com/dcosson/mprocs-go/internal/wire"
)

// Renderer implements app.Renderer, composing AppState into wire messages.
type Renderer struct {
	mu   sync.Mutex
	rows int
	cols int
	link *wire.Link
	prev *diff.Frame
}

// New builds a Renderer that ships draw messages over link.
func New(link *wire.Link) *Renderer {
	return &Renderer{link: link, rows: 24, cols: 80}
}

// SetSize updates the physical terminal size the renderer composites
// against. Called by the client loop alongside App.SetSize.
func (r *Renderer) SetSize(rows, cols int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = rows
	r.cols = cols
	r.prev = nil
}

// Render builds one composite frame from state and ships the delta. Called
// from inside the app's own lock (see App.Run), so it must not block.
func (r *Renderer) Render(state *app.AppState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frame := r.buildFrame(state)
	prev := r.prev
	r.prev = frame
	if prev == nil {
		prev = diff.Empty(r.rows, r.cols)
		r.send(wire.MsgClear{})
	}

	r.send(wire.MsgHideCursor{})
	if bytes := diff.Diff(prev, frame); len(bytes) > 0 {
		r.send(wire.MsgDraw{Bytes: bytes})
	}
	if frame.CursorVisible {
		r.send(wire.MsgCursorShape{Style: wire.CursorShape(frame.CursorStyle)})
		r.send(wire.MsgSetCursor{Row: frame.CursorRow, Col: frame.CursorCol})
		r.send(wire.MsgShowCursor{})
	}
	r.send(wire.MsgFlush{})

	if state.Quitting && allDown(state) {
		r.send(wire.MsgQuit{})
	}
}

func allDown(state *app.AppState) bool {
	for _, v := range state.Procs {
		if v.IsUp {
			return false
		}
	}
	return true
}

func (r *Renderer) send(msg wire.AppMessage) {
	select {
	case r.link.ToClient <- msg:
	default:
		// A stalled client shouldn't back up the app's render loop. The
		// message is lost, so the previous frame is forgotten and the
		// next Render starts over with MsgClear and a full redraw.
		r.prev = nil
	}
}

func (r *Renderer) buildFrame(state *app.AppState) *diff.Frame {
	frame := diff.Empty(r.rows, r.cols)
	zoomed := state.Scope == app.ScopeTermZoom
	sidebarW := SidebarWidth(r.cols)
	if zoomed {
		sidebarW = 0
	}

	if sidebarW > 0 {
		r.drawSidebar(frame, state, sidebarW)
	}
	r.drawTerminalPane(frame, state, sidebarW)
	if state.Modal != nil {
		drawModal(frame, state.Modal, r.rows, r.cols)
	}
	return frame
}

func (r *Renderer) drawSidebar(frame *diff.Frame, state *app.AppState, width int) {
	title := "Processes"
	writeText(frame, 0, 0, width, title)
	row := 1
	for i, v := range state.Procs {
		row = writeProcLine(frame, row, width, i, v, state.Scope == app.ScopeProcs && state.Selected == i)
		if row >= r.rows {
			return
		}
	}

	legendLines := KeymapWindowLines(r.rows, state.HideKeymapWindow)
	if legendLines == 0 {
		return
	}
	startRow := r.rows - legendLines
	if startRow <= row {
		startRow = row + 1
	}
	legend := keymapLegend(state)
	wrapped := strings.Split(strings.TrimRight(text.Wrap(legend, width-1), "\n"), "\n")
	for i, line := range wrapped {
		if startRow+i >= r.rows {
			break
		}
		writeText(frame, startRow+i, 0, width, line)
	}
}

func writeProcLine(frame *diff.Frame, row, width int, idx int, v *app.ProcessView, selected bool) int {
	status := "Down"
	if v.IsUp {
		status = "Up"
	}
	if v.IsWaiting {
		status = "Waiting"
	}
	marker := " "
	if selected {
		marker = ">"
	}
	line := fmt.Sprintf("%s%d %-*s %s", marker, idx+1, width-8, truncate(v.Config.Name, width-8), status)
	writeText(frame, row, 0, width, line)
	return row + 1
}

func keymapLegend(state *app.AppState) string {
	if state.Scope == app.ScopeProcs {
		return "C-a focus term | C-x add | C-r rename | C-d remove | s/x/r/k start/stop/restart/kill | C-c quit"
	}
	return "C-a focus list | C-z zoom | C-e copy mode | keys forward to the process"
}

func (r *Renderer) drawTerminalPane(frame *diff.Frame, state *app.AppState, sidebarW int) {
	v := state.SelectedView()
	if v == nil || v.Inst == nil {
		return
	}
	termRows, termCols := TermPaneSize(r.rows, r.cols, sidebarW == 0)

	if cm, ok := v.CopyMode.(app.CopyModeActive); ok {
		r.drawCopyMode(frame, cm, sidebarW, termRows, termCols)
		return
	}

	screen := v.Inst.Screen()
	t := screen.Terminal()
	pane := diff.Capture(t, termRows, termCols, screen.CursorVisible(), screen.CursorStyle())
	blit(frame, pane, 0, sidebarW)
}

func (r *Renderer) drawCopyMode(frame *diff.Frame, cm app.CopyModeActive, sidebarW, termRows, termCols int) {
	for row := 0; row < termRows; row++ {
		addr := cm.Frozen.MinRow() + row
		if addr > cm.Frozen.MaxRow() {
			break
		}
		text := cm.Frozen.Row(addr)
		writeText(frame, row, sidebarW, termCols, truncate(text, termCols))
	}
	frame.CursorVisible = false
}

func blit(dst, src *diff.Frame, rowOff, colOff int) {
	for r := 0; r < len(src.Rows) && rowOff+r < len(dst.Rows); r++ {
		for c := 0; c < src.Cols && colOff+c < dst.Cols; c++ {
			dst.Rows[rowOff+r][colOff+c] = src.Rows[r][c]
		}
	}
	dst.CursorRow = rowOff + src.CursorRow
	dst.CursorCol = colOff + src.CursorCol
	dst.CursorVisible = src.CursorVisible
	dst.CursorStyle = src.CursorStyle
}

func writeText(frame *diff.Frame, row, col, width int, s string) {
	if row < 0 || row >= len(frame.Rows) {
		return
	}
	runes := []rune(truncate(s, width))
	for i := 0; i < width && col+i < frame.Cols; i++ {
		ch := rune(' ')
		if i < len(runes) {
			ch = runes[i]
		}
		frame.Rows[row][col+i] = diff.Cell{Ch: ch, F: midterm.Format{}}
	}
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width])
}

func drawModal(frame *diff.Frame, m app.Modal, rows, cols int) {
	lines := modalLines(m)
	boxW := 0
	for _, l := range lines {
		if len(l) > boxW {
			boxW = len(l)
		}
	}
	boxW += 4
	boxH := len(lines) + 2
	top := (rows - boxH) / 2
	left := (cols - boxW) / 2
	if top < 0 {
		top = 0
	}
	if left < 0 {
		left = 0
	}
	writeText(frame, top, left, boxW, "+"+strings.Repeat("-", boxW-2)+"+")
	for i, l := range lines {
		writeText(frame, top+1+i, left, boxW, "| "+l)
	}
	writeText(frame, top+boxH-1, left, boxW, "+"+strings.Repeat("-", boxW-2)+"+")
}

func modalLines(m app.Modal) []string {
	switch mm := m.(type) {
	case app.ModalAddProc:
		return []string{"Add process", "> " + mm.Command}
	case app.ModalRenameProc:
		return []string{"Rename process", "> " + mm.Name}
	case app.ModalRemoveProc:
		return []string{"Remove process? [Enter] yes  [Esc] cancel"}
	case app.ModalQuit:
		return []string{"Quit mprocs? [Enter] yes  [Esc] cancel"}
	case app.ModalCommandsMenu:
		return commandsMenuLines(mm)
	default:
		return nil
	}
}

// commandsMenuLines renders the commands menu's item list with a
// current-item marker, the way original mprocs's commands_menu.rs render()
// draws a `>`/` ` marker column beside each command name and description,
// collapsed here into this renderer's text-line modal model instead of a
// bordered grid widget.
func commandsMenuLines(m app.ModalCommandsMenu) []string {
	lines := []string{"Commands menu"}
	for i, item := range m.Items {
		marker := "  "
		if i == m.Selected {
			marker = "> "
		}
		lines = append(lines, marker+item.Name+" - "+item.Desc)
	}
	return lines
}
