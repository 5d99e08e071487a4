package keys

import (
	"fmt"

	"github.com/dcosson/mprocs-go/internal/vt"
)

func mouseButtonCode(b MouseButton) int {
	switch b {
	case MouseButtonLeft:
		return 0
	case MouseButtonMiddle:
		return 1
	case MouseButtonRight:
		return 2
	case MouseButtonWheelUp:
		return 64
	case MouseButtonWheelDown:
		return 65
	default:
		return 3 // "no button" / release marker in X10 encoding
	}
}

func mouseModBits(m Mods) int {
	n := 0
	if m.Has(ModShift) {
		n |= 4
	}
	if m.Has(ModAlt) {
		n |= 8
	}
	if m.Has(ModCtrl) {
		n |= 16
	}
	return n
}

// EncodeMouse encodes a mouse event for the PTY child, honoring the
// child's negotiated mouse encoding. Returns nil if mode is MouseModeNone — callers must check
// the screen's mouse mode before calling.
func EncodeMouse(ev MouseEvent, encoding vt.MouseEncoding) []byte {
	switch encoding {
	case vt.MouseEncodingSGR:
		final := byte('M')
		if ev.Action == MouseActionRelease {
			final = 'm'
		}
		sgrCb := mouseButtonCode(ev.Button) | mouseModBits(ev.Mods)
		if ev.Action == MouseActionMove {
			sgrCb |= 32
		}
		return []byte(fmt.Sprintf("\x1b[<%d;%d;%d%c", sgrCb, ev.Col, ev.Row, final))
	default:
		// X10/normal encoding: single bytes, coordinates capped at 223
		// (255-32) the way legacy xterm mouse reporting always has been.
		x10Cb := mouseButtonCode(ev.Button) | mouseModBits(ev.Mods)
		if ev.Action == MouseActionRelease {
			x10Cb = 3 | mouseModBits(ev.Mods)
		}
		col, row := ev.Col, ev.Row
		if col > 223 {
			col = 223
		}
		if row > 223 {
			row = 223
		}
		return []byte{0x1b, '[', 'M', byte(32 + x10Cb), byte(32 + col), byte(32 + row)}
	}
}
