package uiclient

// Layout constants and helpers shared between the renderer (which
// composites cells into these regions) and the client loop (which must
// size each process's own vt.Screen to match the terminal pane it will
// actually occupy, the same way h2 sizes its single VT to
// rows-ReservedRows() before creating the midterm.Terminal).

const (
	minSidebarWidth = 16
	maxSidebarWidth = 32

	// keymapWindowLines is how many wrapped lines of key-binding legend
	// the sidebar reserves below the process list, mirroring the fixed
	// debug-row/status-row reservation h2's Overlay.ReservedRows does for
	// its own single-pane layout.
	keymapWindowLines = 6
)

// SidebarWidth picks the process-list pane width for a terminal cols wide:
// a quarter of the screen, clamped to a readable range.
func SidebarWidth(cols int) int {
	w := cols / 4
	if w < minSidebarWidth {
		w = minSidebarWidth
	}
	if w > maxSidebarWidth {
		w = maxSidebarWidth
	}
	if w > cols/2 {
		w = cols / 2
	}
	if w < 0 {
		w = 0
	}
	return w
}

// TermPaneSize returns the rows/cols the focused process's own vt.Screen
// should be resized to, given the full physical terminal size and whether
// the view is zoomed (sidebar hidden).
func TermPaneSize(rows, cols int, zoomed bool) (termRows, termCols int) {
	termRows = rows
	if termRows < 1 {
		termRows = 1
	}
	termCols = cols
	if !zoomed {
		termCols -= SidebarWidth(cols)
	}
	if termCols < 1 {
		termCols = 1
	}
	return
}

// KeymapWindowLines reports how many sidebar rows are reserved for the
// wrapped key-binding legend; 0 when the window is hidden or there isn't
// enough sidebar height to show the process list plus any legend at all.
func KeymapWindowLines(sidebarRows int, hidden bool) int {
	if hidden {
		return 0
	}
	n := keymapWindowLines
	if n > sidebarRows-2 {
		n = sidebarRows - 2
	}
	if n < 0 {
		n = 0
	}
	return n
}
