package app

import (
	"strings"

	"github.com/dcosson/mprocs-go/internal/vt"
)

// CopyMode is the closed sum type for a process view's selection state:
// either idle (optionally remembering a pinned cursor position from the
// last time copy mode was active) or actively selecting against a frozen
// screen snapshot.
type CopyMode interface{ isCopyMode() }

type CopyModeNone struct {
	Pinned *vt.Pos
}

type CopyModeActive struct {
	Frozen *vt.Snapshot
	Anchor vt.Pos
	Cursor *vt.Pos
}

func (CopyModeNone) isCopyMode()   {}
func (CopyModeActive) isCopyMode() {}

// EnterCopyMode freezes screen and starts a selection anchored at the
// last visible row, column 0 — the cursor stays unset until the user
// first moves, matching the convention that a single keystroke alone
// shouldn't yet commit to a one-cell selection.
func EnterCopyMode(screen *vt.Screen) CopyModeActive {
	snap := screen.Snapshot()
	return CopyModeActive{
		Frozen: snap,
		Anchor: vt.Pos{Row: snap.MaxRow(), Col: 0},
	}
}

// Move shifts the cursor by the given delta, clamped to the snapshot's
// valid row/col range. When no cursor is set yet it starts from the
// anchor's position. It always moves the cursor, never the anchor: the
// anchor stays where EnterCopyMode placed it.
func Move(cm CopyModeActive, drow, dcol int) CopyModeActive {
	target := cm.Cursor
	if target == nil {
		p := cm.Anchor
		target = &p
	} else {
		p := *target
		target = &p
	}

	target.Row = clamp(target.Row+drow, cm.Frozen.MinRow(), cm.Frozen.MaxRow())
	target.Col = clamp(target.Col+dcol, 0, cm.Frozen.Cols-1)

	cm.Cursor = target
	return cm
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// End fixes the current cursor as the selection end; if the user never
// moved, the cursor collapses onto the anchor (a zero-width selection).
func End(cm CopyModeActive) CopyModeActive {
	if cm.Cursor == nil {
		p := cm.Anchor
		cm.Cursor = &p
	}
	return cm
}

// ExtractText returns the selected text between anchor and cursor
// (inclusive, order-normalized): wrapped rows are joined without a
// newline, unwrapped rows get one.
func ExtractText(cm CopyModeActive) string {
	start, end := cm.Anchor, cm.Anchor
	if cm.Cursor != nil {
		start, end = cm.Anchor, *cm.Cursor
	}
	if rowColLess(end, start) {
		start, end = end, start
	}

	var b strings.Builder
	for row := start.Row; row <= end.Row; row++ {
		line := cm.Frozen.Row(row)
		runes := []rune(line)

		from, to := 0, len(runes)
		if row == start.Row {
			from = minInt(start.Col, len(runes))
		}
		if row == end.Row {
			to = minInt(end.Col+1, len(runes))
		}
		if from < to {
			b.WriteString(string(runes[from:to]))
		}
		if row != end.Row && !cm.Frozen.Wrapped(row) {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func rowColLess(a, b vt.Pos) bool {
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Col < b.Col
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
