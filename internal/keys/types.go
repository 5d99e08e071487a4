// Package keys implements the Key/Mouse Encoder and the
// Input Parser: translating between logical key/mouse
// events and the raw bytes a PTY child or a controlling terminal expects.
//
// h2 doesn't need this pair — it wraps exactly one child and forwards the
// controlling terminal's raw bytes straight through in passthrough mode
// (internal/overlay/input.go HandlePassthroughBytes), so the terminal's own
// xterm encoding is reused unchanged. A process-list multiplexer with a
// shared physical terminal and a focus-switching UI has to decode that
// terminal's bytes into logical events itself (to tell "switch scope" from
// "forward to child") and then re-encode logical events for whichever
// child is focused. This package is new code, written in h2's idiom
// (byte-level state machine, see internal/vt/modes.go) over the standard
// xterm key/mouse encoding tables.
package keys

// Mods is a modifier bitset.
type Mods uint8

const (
	ModShift Mods = 1 << iota
	ModAlt
	ModCtrl
	ModSuper
)

func (m Mods) Has(x Mods) bool { return m&x != 0 }

// Code identifies a logical key, independent of modifiers.
type Code int

const (
	CodeRune Code = iota
	CodeEnter
	CodeTab
	CodeBackspace
	CodeEscape
	CodeUp
	CodeDown
	CodeLeft
	CodeRight
	CodeHome
	CodeEnd
	CodePageUp
	CodePageDown
	CodeInsert
	CodeDelete
	CodeF1
	CodeF2
	CodeF3
	CodeF4
	CodeF5
	CodeF6
	CodeF7
	CodeF8
	CodeF9
	CodeF10
	CodeF11
	CodeF12
)

// Key is a normalized logical key event.
type Key struct {
	Code Code
	Rune rune // valid when Code == CodeRune
	Mods Mods
}

// MouseButton identifies which button a mouse event concerns.
type MouseButton int

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonMiddle
	MouseButtonRight
	MouseButtonWheelUp
	MouseButtonWheelDown
	MouseButtonNone
)

// MouseAction is the kind of mouse activity.
type MouseAction int

const (
	MouseActionPress MouseAction = iota
	MouseActionRelease
	MouseActionMove
)

// MouseEvent is a normalized mouse event with 1-based terminal coordinates.
type MouseEvent struct {
	Action MouseAction
	Button MouseButton
	Row    int
	Col    int
	Mods   Mods
}

// EncodeMode carries the pieces of VT state the encoder needs to pick the
// right byte form.
type EncodeMode struct {
	EnableCSIu            bool
	ApplicationCursorKeys bool
	NewlineMode           bool
}
