package diff

import (
	"bytes"
	"fmt"

	"github.com/vito/midterm"
)

// Diff computes the minimal escape-sequence byte stream that turns a
// terminal currently showing prev into one showing curr.
// prev and curr must have identical dimensions.
func Diff(prev, curr *Frame) []byte {
	var buf bytes.Buffer

	cursorRow, cursorCol := -1, -1 // physical cursor position is unknown at start
	var brush midterm.Format
	haveBrush := false

	for r := 0; r < len(curr.Rows); r++ {
		for c := 0; c < curr.Cols; c++ {
			target := cellAt(curr, r, c)
			prior := cellAt(prev, r, c)
			if target == prior {
				continue
			}
			if cursorRow != r || cursorCol != c {
				fmt.Fprintf(&buf, "\x1b[%d;%dH", r+1, c+1)
				cursorRow, cursorCol = r, c
			}
			if !haveBrush || brush != target.F {
				buf.WriteString("\x1b[0m")
				buf.WriteString(target.F.Render())
				brush = target.F
				haveBrush = true
			}
			ch := target.Ch
			if ch == 0 {
				ch = ' '
			}
			buf.WriteRune(ch)
			cursorCol++
		}
	}

	writeCursorDelta(&buf, prev, curr)

	return buf.Bytes()
}

func cellAt(f *Frame, row, col int) Cell {
	if row < 0 || row >= len(f.Rows) {
		return Cell{Ch: ' '}
	}
	r := f.Rows[row]
	if col < 0 || col >= len(r) {
		return Cell{Ch: ' '}
	}
	return r[col]
}

// writeCursorDelta emits show/hide, style, and final position changes.
func writeCursorDelta(buf *bytes.Buffer, prev, curr *Frame) {
	if prev.CursorVisible != curr.CursorVisible {
		if curr.CursorVisible {
			buf.WriteString("\x1b[?25h")
		} else {
			buf.WriteString("\x1b[?25l")
		}
	}
	if prev.CursorStyle != curr.CursorStyle {
		buf.WriteString(decscusr(curr.CursorStyle))
	}
	if prev.CursorRow != curr.CursorRow || prev.CursorCol != curr.CursorCol {
		fmt.Fprintf(buf, "\x1b[%d;%dH", curr.CursorRow+1, curr.CursorCol+1)
	}
}

func decscusr(style CursorStyle) string {
	switch style {
	case CursorStyleUnderline:
		return "\x1b[4 q"
	case CursorStyleBar:
		return "\x1b[6 q"
	default:
		return "\x1b[2 q"
	}
}
