package vt

import "github.com/vito/midterm"

// SnapshotRow is one frozen row of text extracted from a Screen at a point
// in time, used by copy mode which must keep operating on a
// fixed screen even while the live Screen keeps receiving child output.
type SnapshotRow struct {
	Text    string
	Wrapped bool
}

// Snapshot is an immutable clone of a Screen's visible content plus the
// scrollback available above it, addressed the way copy mode addresses
// rows: 0..Rows-1 for the visible frame, negative indices into
// ScrollbackRows for history.
type Snapshot struct {
	Rows           []SnapshotRow
	ScrollbackRows []string // oldest first; ScrollbackRows[len-1] is just above Rows[0]
	Cols           int
	CursorRow      int
	CursorCol      int
}

// Snapshot freezes the current screen content. Safe to call from any
// goroutine; it only reads under Screen's lock and never blocks the PTY
// reader beyond the copy itself.
func (s *Screen) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := s.active()
	rows := make([]SnapshotRow, len(t.Content))
	for i := range t.Content {
		rows[i] = extractRow(t, i, len(t.Content))
	}

	var history []string
	if s.modes.scrollRegionUsed {
		history = append(history, s.ScrollHistory...)
	} else if s.Scrollback != nil {
		// The append-only terminal also holds the lines now visible; only
		// the ones above the visible frame are history.
		n := s.Scrollback.Cursor.Y - s.rows + 1
		for i := 0; i < n && i < len(s.Scrollback.Content); i++ {
			r := extractRow(s.Scrollback, i, len(s.Scrollback.Content))
			history = append(history, r.Text)
		}
	}

	return &Snapshot{
		Rows:           rows,
		ScrollbackRows: history,
		Cols:           s.cols,
		CursorRow:      t.Cursor.Y,
		CursorCol:      t.Cursor.X,
	}
}

// extractRow renders row's plain text (no SGR) by walking the same
// Format.Regions iteration h2's RenderLineFrom uses
// (internal/session/client/render.go), but collecting text instead of
// emitting escape bytes. Wrapped is approximated as "row is not the last
// row and its last cell is non-empty", which is exactly the condition a
// wrapped-row consumer needs to distinguish a soft wrap from a hard newline.
func extractRow(t *midterm.Terminal, row, totalRows int) SnapshotRow {
	if row >= len(t.Content) {
		return SnapshotRow{}
	}
	line := t.Content[row]
	var out []rune
	pos := 0
	for region := range t.Format.Regions(row) {
		end := pos + region.Size
		if pos < len(line) {
			contentEnd := end
			if contentEnd > len(line) {
				contentEnd = len(line)
			}
			out = append(out, []rune(string(line[pos:contentEnd]))...)
		}
		pos = end
	}
	text := string(out)
	wrapped := row < totalRows-1 && len(text) > 0 && text[len(text)-1] != ' '
	return SnapshotRow{Text: text, Wrapped: wrapped}
}

// Row returns the text at a copy-mode-addressed row: 0..len(Rows)-1 for the
// visible frame, negative for scrollback (-1 is the line just above row 0).
func (snap *Snapshot) Row(row int) string {
	if row >= 0 {
		if row < len(snap.Rows) {
			return snap.Rows[row].Text
		}
		return ""
	}
	idx := len(snap.ScrollbackRows) + row
	if idx >= 0 && idx < len(snap.ScrollbackRows) {
		return snap.ScrollbackRows[idx]
	}
	return ""
}

// Wrapped reports whether the row at the given copy-mode address continues
// into the next row without a newline.
func (snap *Snapshot) Wrapped(row int) bool {
	if row >= 0 && row < len(snap.Rows) {
		return snap.Rows[row].Wrapped
	}
	return false
}

// MinRow is the smallest legal copy-mode row address.
func (snap *Snapshot) MinRow() int {
	return -len(snap.ScrollbackRows)
}

// MaxRow is the largest legal copy-mode row address.
func (snap *Snapshot) MaxRow() int {
	return len(snap.Rows) - 1
}
