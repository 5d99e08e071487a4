// Package vt implements the VT Parser/Screen component: it
// consumes a child process's raw PTY output, maintains a VT100/ANSI screen
// with primary + alternate grids and scrollback, and exposes the cells,
// cursor, and terminal modes the rest of the multiplexer needs.
//
// The actual escape-sequence parsing and cell grid are delegated to
// github.com/vito/midterm, the way h2's internal/virtualterminal.VT
// does — Screen is a thin, read/write-lockable wrapper that adds the pieces
// midterm doesn't track itself (DEC private mode state, bell/error counters,
// dual scrollback capture) by sniffing the same byte stream, mirroring the
// teacher's own RespondOSCColors/CapturePlainHistory technique.
package vt

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/vito/midterm"
)

// ReplySink receives bytes the screen must write back to the child (cursor
// position reports, DA1 device-attributes replies). Cloneable and
// non-blocking: a dropped reply is acceptable.
type ReplySink interface {
	Write(p []byte) (int, error)
}

// CursorStyle mirrors DECSCUSR parameter groups.
type CursorStyle int

const (
	CursorStyleBlock CursorStyle = iota
	CursorStyleUnderline
	CursorStyleBar
)

// MouseMode is the active mouse-tracking protocol.
type MouseMode int

const (
	MouseModeNone MouseMode = iota
	MouseModeX10
	MouseModeNormal
	MouseModeButtonEvent
	MouseModeAnyEvent
)

// MouseEncoding is the active mouse coordinate encoding (DEC modes 1005/1006).
type MouseEncoding int

const (
	MouseEncodingDefault MouseEncoding = iota
	MouseEncodingUTF8
	MouseEncodingSGR
)

// Screen owns one child's virtual terminal: primary + alternate midterm
// grids, an append-only scrollback terminal, and the DEC-private-mode state
// midterm itself doesn't surface. Screen is safe for concurrent use: one
// writer (the PTY reader) and many readers (renderer, copy-mode snapshot).
type Screen struct {
	mu sync.RWMutex

	primary *midterm.Terminal
	alt     *midterm.Terminal
	usingAlt bool

	// Scrollback is an append-only terminal that never loses lines, used as
	// the scrollback source when the child doesn't use scroll regions.
	Scrollback *midterm.Terminal

	// ScrollHistory captures lines scrolled off the top of the primary grid
	// via midterm's OnScrollback hook, preferred over Scrollback when the
	// child uses DECSTBM scroll regions.
	ScrollHistory    []string
	scrollHistoryMax int

	rows, cols    int
	scrollbackLen int
	scrollOffset  int

	savedCursorX, savedCursorY int
	cursorSaved                bool

	modes modeTracker

	title, iconTitle string
	bellCount        int
	visualBellCount  int
	errorCount       int

	lastOut time.Time

	reply      ReplySink
	colorHints ColorHints
}

// SetColorHints records the controlling terminal's own colors, used to
// answer the child's OSC 10/11 queries. Unset fields fall back to
// FallbackOSCPalette(COLORFGBG) at query time.
func (s *Screen) SetColorHints(hints ColorHints) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.colorHints = hints
}

// NewScreen creates a Screen sized rows x cols with the given scrollback
// capacity (0 disables scrollback capture).
func NewScreen(rows, cols, scrollbackLen int, reply ReplySink) *Screen {
	s := &Screen{
		primary:          midterm.NewTerminal(rows, cols),
		rows:             rows,
		cols:             cols,
		scrollbackLen:    scrollbackLen,
		scrollHistoryMax: scrollbackLen,
		reply:            reply,
		modes:            newModeTracker(),
	}
	if scrollbackLen > 0 {
		sb := midterm.NewTerminal(rows, cols)
		sb.AutoResizeY = true
		sb.AppendOnly = true
		s.Scrollback = sb
	}
	s.primary.ForwardResponses = writerFunc(s.forwardReply)
	s.primary.OnScrollback(s.onScrollback)
	return s
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

func (s *Screen) forwardReply(p []byte) (int, error) {
	if s.reply == nil {
		return len(p), nil
	}
	return s.reply.Write(p)
}

func (s *Screen) onScrollback(line midterm.Line) {
	rendered := line.Display() + "\033[0m"
	s.ScrollHistory = append(s.ScrollHistory, rendered)
	if s.scrollHistoryMax > 0 && len(s.ScrollHistory) > s.scrollHistoryMax {
		trim := len(s.ScrollHistory) - s.scrollHistoryMax
		s.ScrollHistory = s.ScrollHistory[trim:]
	}
}

// Write feeds raw PTY output into the screen. It updates the active grid,
// the shadow scrollback terminal, the DEC-private-mode tracker, and the
// bell/error counters. Exactly one goroutine (the PTY reader) may call
// Write; Screen is a single-writer/multi-reader resource.
func (s *Screen) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastOut = time.Now()
	events := s.modes.Feed(p)
	for _, ev := range events {
		s.applyModeEvent(ev)
	}

	n, err := s.active().Write(p)
	if s.Scrollback != nil && !s.usingAlt {
		s.Scrollback.Write(p)
	}
	if err != nil {
		s.errorCount++
	}
	return n, err
}

func (s *Screen) active() *midterm.Terminal {
	if s.usingAlt && s.alt != nil {
		return s.alt
	}
	return s.primary
}

func (s *Screen) applyModeEvent(ev modeEvent) {
	switch ev.kind {
	case modeBell:
		s.bellCount++
	case modeVisualBell:
		s.visualBellCount++
	case modeCursorVisible:
		s.modes.cursorVisible = ev.set
	case modeApplicationCursorKeys:
		s.modes.applicationCursorKeys = ev.set
	case modeOriginMode:
		s.modes.originMode = ev.set
	case modeBracketedPaste:
		s.modes.bracketedPaste = ev.set
	case modeMouse:
		if ev.set {
			s.modes.mouseMode = ev.mouseMode
		} else if s.modes.mouseMode == ev.mouseMode {
			s.modes.mouseMode = MouseModeNone
		}
	case modeMouseEncoding:
		if ev.set {
			s.modes.mouseEncoding = ev.mouseEncoding
		} else if s.modes.mouseEncoding == ev.mouseEncoding {
			s.modes.mouseEncoding = MouseEncodingDefault
		}
	case modeAltScreen:
		s.setAltScreen(ev.set)
	case modeCursorStyle:
		s.modes.cursorStyle = ev.cursorStyle
	case modeSaveCursor:
		s.savedCursorX, s.savedCursorY = s.primary.Cursor.X, s.primary.Cursor.Y
		s.cursorSaved = true
	case modeRestoreCursor:
		// midterm applies DECRC itself via the byte stream; we only need to
		// remember that one happened so origin-mode math stays correct.
	case modeTitle:
		s.title = ev.text
	case modeIconTitle:
		s.iconTitle = ev.text
	case modeOSCColorQuery:
		s.respondOSCColor(ev.oscPs)
	}
}

// respondOSCColor answers an OSC 10 (foreground) or 11 (background) query
// the child just sent, following h2's RespondOSCColors.
func (s *Screen) respondOSCColor(ps int) {
	fg, bg := s.colorHints.Fg, s.colorHints.Bg
	if fg == "" || bg == "" {
		fallbackFg, fallbackBg := FallbackOSCPalette(os.Getenv("COLORFGBG"))
		if fg == "" {
			fg = fallbackFg
		}
		if bg == "" {
			bg = fallbackBg
		}
	}
	switch ps {
	case 10:
		s.forwardReply([]byte(fmt.Sprintf("\033]10;%s\033\\", fg)))
	case 11:
		s.forwardReply([]byte(fmt.Sprintf("\033]11;%s\033\\", bg)))
	}
}

// setAltScreen switches the active grid, resetting scrollback offset:
// switching to the alternate screen clears scrollback offset.
func (s *Screen) setAltScreen(on bool) {
	if on == s.usingAlt {
		return
	}
	if on && s.alt == nil {
		s.alt = midterm.NewTerminal(s.rows, s.cols)
	}
	s.usingAlt = on
	s.scrollOffset = 0
}

// Resize updates screen dimensions and resizes the underlying grids. The
// PTY itself is resized by the caller (procinst's handleResize).
func (s *Screen) Resize(rows, cols int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows, s.cols = rows, cols
	s.primary.Resize(rows, cols)
	if s.alt != nil {
		s.alt.Resize(rows, cols)
	}
	if s.Scrollback != nil {
		s.Scrollback.ResizeX(cols)
	}
}

// Size returns the current screen dimensions.
func (s *Screen) Size() Size {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Size{Rows: s.rows, Cols: s.cols}
}

// ScrollRegionUsed reports whether the child has issued a DECSTBM, meaning
// ScrollHistory (not Scrollback) is the authoritative scrollback source.
func (s *Screen) ScrollRegionUsed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modes.scrollRegionUsed
}

// ScrollOffset returns the current scrollback viewing offset.
func (s *Screen) ScrollOffset() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scrollOffset
}

// maxScrollOffset returns the largest legal scrollback offset given the
// current scrollback source length. Caller must hold s.mu.
func (s *Screen) maxScrollOffsetLocked() int {
	if s.modes.scrollRegionUsed {
		return len(s.ScrollHistory)
	}
	if s.Scrollback != nil {
		// Use Cursor.Y, not len(Content): AutoResizeY can inflate Content
		// beyond what was actually written for repaint-heavy TUIs (teacher:
		// internal/session/client/scroll_test.go
		// TestClampScrollOffset_UsesCursorYNotContentLen).
		max := s.Scrollback.Cursor.Y - s.rows + 1
		if max < 0 {
			max = 0
		}
		return max
	}
	return 0
}

// SetScrollOffset clamps and sets the scrollback view offset.
func (s *Screen) SetScrollOffset(offset int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	max := s.maxScrollOffsetLocked()
	if offset < 0 {
		offset = 0
	}
	if offset > max {
		offset = max
	}
	s.scrollOffset = offset
}

// ScrollByLines adjusts the scrollback offset by delta lines (positive
// scrolls back into history, negative scrolls toward live output).
func (s *Screen) ScrollByLines(delta int) {
	s.SetScrollOffset(s.ScrollOffset() + delta)
}

// ScrollByHalfPage adjusts the offset by half the visible height.
func (s *Screen) ScrollByHalfPage(up bool) {
	half := s.rows / 2
	if half < 1 {
		half = 1
	}
	if up {
		s.ScrollByLines(half)
	} else {
		s.ScrollByLines(-half)
	}
}

// Cursor returns the active grid's cursor position.
func (s *Screen) Cursor() Pos {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := s.active()
	return Pos{Row: t.Cursor.Y, Col: t.Cursor.X}
}

func (s *Screen) CursorVisible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modes.cursorVisible
}

func (s *Screen) CursorStyle() CursorStyle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modes.cursorStyle
}

func (s *Screen) MouseMode() MouseMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modes.mouseMode
}

func (s *Screen) MouseEncoding() MouseEncoding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modes.mouseEncoding
}

func (s *Screen) ApplicationCursorKeys() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modes.applicationCursorKeys
}

func (s *Screen) OriginMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modes.originMode
}

func (s *Screen) BracketedPaste() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modes.bracketedPaste
}

func (s *Screen) UsingAltScreen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usingAlt
}

func (s *Screen) Title() (title, icon string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.title, s.iconTitle
}

func (s *Screen) Counters() (bell, visualBell, errs int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bellCount, s.visualBellCount, s.errorCount
}

// LastOutput returns when the screen last received child output. Nothing
// in the multiplexer reads it; there is no idle detection.
func (s *Screen) LastOutput() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastOut
}

// Terminal exposes the active midterm.Terminal for rendering and the
// differ. Callers must not mutate it; it is held under Screen's lock only
// for the duration of the accessor call that returned it — no lock is
// held across a blocking operation.
func (s *Screen) Terminal() *midterm.Terminal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active()
}
