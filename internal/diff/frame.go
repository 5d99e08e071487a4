// Package diff implements the Screen Differ: given a
// previous and current screen snapshot, it emits the minimal escape byte
// stream that mutates a terminal showing the previous frame into one
// showing the current frame. h2 never diffs — render.go's
// RenderLineFrom always repaints the full visible window every frame —
// so this is new code, grounded on RenderLineFrom's own cell-walk
// (Format.Regions iteration, reset-before-new-format, explicit \033[0m
// boundaries) but restructured around a brush that only changes when the
// target format actually differs from what's already active.
package diff

import "github.com/vito/midterm"

// Cell is one rune position plus the format in effect there.
type Cell struct {
	Ch rune
	F  midterm.Format
}

// Frame is a captured grid of cells plus cursor state, diffable against
// another Frame of the same size.
type Frame struct {
	Rows          [][]Cell
	Cols          int
	CursorRow     int
	CursorCol     int
	CursorVisible bool
	CursorStyle   CursorStyle
}

// CursorStyle mirrors vt.CursorStyle without importing internal/vt, so
// this package stays usable against any midterm.Terminal-backed source.
type CursorStyle int

const (
	CursorStyleBlock CursorStyle = iota
	CursorStyleUnderline
	CursorStyleBar
)

// Capture renders rows from t into a Frame, padding short rows with
// blank default-format cells so every row has exactly cols entries
// (the differ requires uniform width to walk row-major).
func Capture(t *midterm.Terminal, rows, cols int, cursorVisible bool, style CursorStyle) *Frame {
	f := &Frame{
		Rows:          make([][]Cell, rows),
		Cols:          cols,
		CursorRow:     t.Cursor.Y,
		CursorCol:     t.Cursor.X,
		CursorVisible: cursorVisible,
		CursorStyle:   style,
	}
	for r := 0; r < rows; r++ {
		f.Rows[r] = captureRow(t, r, cols)
	}
	return f
}

func captureRow(t *midterm.Terminal, row, cols int) []Cell {
	cells := make([]Cell, cols)
	if row >= len(t.Content) {
		return cells
	}
	line := t.Content[row]
	pos := 0
	col := 0
	for region := range t.Format.Regions(row) {
		end := pos + region.Size
		for ; pos < end && col < cols; pos++ {
			if pos < len(line) {
				r := []rune(string(line[pos : pos+1]))
				if len(r) > 0 {
					cells[col] = Cell{Ch: r[0], F: region.F}
				} else {
					cells[col] = Cell{Ch: ' ', F: region.F}
				}
			} else {
				cells[col] = Cell{Ch: ' ', F: region.F}
			}
			col++
		}
		if col >= cols {
			break
		}
	}
	return cells
}

// Empty returns a Frame of the given size with every cell at the
// terminal's default state — the differ's implicit "before anything was
// drawn" starting point.
func Empty(rows, cols int) *Frame {
	f := &Frame{Rows: make([][]Cell, rows), Cols: cols, CursorVisible: true}
	for r := range f.Rows {
		f.Rows[r] = make([]Cell, cols)
		for c := range f.Rows[r] {
			f.Rows[r][c] = Cell{Ch: ' '}
		}
	}
	return f
}
