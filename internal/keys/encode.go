package keys

import "fmt"

// xtermModParam returns the 1+bitmask xterm modifier parameter, or 0 when
// no modifier is set (meaning: omit the parameter entirely).
func xtermModParam(m Mods) int {
	if m == 0 {
		return 0
	}
	n := 1
	if m.Has(ModShift) {
		n += 1
	}
	if m.Has(ModAlt) {
		n += 2
	}
	if m.Has(ModCtrl) {
		n += 4
	}
	return n
}

// ctrlByte maps a-z to the byte produced by holding Ctrl (the standard
// ^A..^Z table).
func ctrlByte(r rune) (byte, bool) {
	lower := r
	if lower >= 'A' && lower <= 'Z' {
		lower = lower - 'A' + 'a'
	}
	switch {
	case lower >= 'a' && lower <= 'z':
		return byte(lower-'a') + 1, true
	case lower == '[':
		return 0x1b, true
	case lower == '\\':
		return 0x1c, true
	case lower == ']':
		return 0x1d, true
	case lower == '^':
		return 0x1e, true
	case lower == '_':
		return 0x1f, true
	}
	return 0, false
}

// Encode produces the bytes a PTY child expects for a logical key event.
func Encode(k Key, mode EncodeMode) []byte {
	switch k.Code {
	case CodeEscape:
		return []byte{0x1b}
	case CodeEnter:
		if mode.NewlineMode {
			return []byte("\r\n")
		}
		return []byte{'\r'}
	case CodeBackspace:
		if k.Mods.Has(ModAlt) {
			return []byte{0x1b, 0x7f}
		}
		return []byte{0x7f}
	case CodeTab:
		return encodeTab(k.Mods)
	case CodeUp:
		return encodeArrow('A', k.Mods, mode)
	case CodeDown:
		return encodeArrow('B', k.Mods, mode)
	case CodeRight:
		return encodeArrow('C', k.Mods, mode)
	case CodeLeft:
		return encodeArrow('D', k.Mods, mode)
	case CodeHome:
		return encodeArrow('H', k.Mods, mode)
	case CodeEnd:
		return encodeArrow('F', k.Mods, mode)
	case CodePageUp:
		return encodeTilde(5, k.Mods)
	case CodePageDown:
		return encodeTilde(6, k.Mods)
	case CodeInsert:
		return encodeTilde(2, k.Mods)
	case CodeDelete:
		return encodeTilde(3, k.Mods)
	case CodeF1, CodeF2, CodeF3, CodeF4:
		return encodeF1to4(k.Code, k.Mods)
	case CodeF5, CodeF6, CodeF7, CodeF8, CodeF9, CodeF10, CodeF11, CodeF12:
		return encodeFnTilde(k.Code, k.Mods)
	case CodeRune:
		return encodeRune(k.Rune, k.Mods)
	}
	return nil
}

// encodeArrow handles the four arrow keys plus Home/End, which share the
// CSI-vs-SS3 and modifier-parameter rules.
func encodeArrow(final byte, mods Mods, mode EncodeMode) []byte {
	modParam := xtermModParam(mods)
	if modParam == 0 {
		if mode.ApplicationCursorKeys {
			return []byte{0x1b, 'O', final}
		}
		return []byte{0x1b, '[', final}
	}
	return []byte(fmt.Sprintf("\x1b[1;%d%c", modParam, final))
}

func encodeTilde(param int, mods Mods) []byte {
	modParam := xtermModParam(mods)
	if modParam == 0 {
		return []byte(fmt.Sprintf("\x1b[%d~", param))
	}
	return []byte(fmt.Sprintf("\x1b[%d;%d~", param, modParam))
}

// encodeF1to4 uses SS3 when unmodified, CSI with the modifier parameter
// otherwise.
func encodeF1to4(code Code, mods Mods) []byte {
	final := byte('P' + int(code-CodeF1))
	modParam := xtermModParam(mods)
	if modParam == 0 {
		return []byte{0x1b, 'O', final}
	}
	return []byte(fmt.Sprintf("\x1b[1;%d%c", modParam, final))
}

var fnTildeParam = map[Code]int{
	CodeF5: 15, CodeF6: 17, CodeF7: 18, CodeF8: 19,
	CodeF9: 20, CodeF10: 21, CodeF11: 23, CodeF12: 24,
}

func encodeFnTilde(code Code, mods Mods) []byte {
	return encodeTilde(fnTildeParam[code], mods)
}

// encodeTab implements "Tab under CTRL or SHIFT uses CSI-U-like encodings";
// plain Tab is simply 0x09.
func encodeTab(mods Mods) []byte {
	if mods.Has(ModCtrl) || mods.Has(ModShift) {
		modParam := xtermModParam(mods &^ 0) // include shift/ctrl in the param
		return []byte(fmt.Sprintf("\x1b[9;%du", modParam))
	}
	return []byte{0x09}
}

// encodeRune handles printable characters, SHIFT normalization, Ctrl
// combinations, and the ALT-prefix rule.
func encodeRune(r rune, mods Mods) []byte {
	// SHIFT on printable/uppercase chars is normalized away: the rune
	// itself already reflects the shifted glyph.
	plain := mods &^ ModShift

	if plain.Has(ModCtrl) {
		if b, ok := ctrlByte(r); ok {
			if plain.Has(ModAlt) {
				return []byte{0x1b, b}
			}
			return []byte{b}
		}
	}

	buf := []byte(string(r))
	if plain.Has(ModAlt) {
		return append([]byte{0x1b}, buf...)
	}
	return buf
}
