package keys

import "strings"

// namedCodes maps the bracketed key-literal names used in keymap/stop
// configuration (`<Enter>`, `<F5>`, `<PageUp>`, ...) to their Code.
var namedCodes = map[string]Code{
	"enter":     CodeEnter,
	"return":    CodeEnter,
	"tab":       CodeTab,
	"backspace": CodeBackspace,
	"bs":        CodeBackspace,
	"esc":       CodeEscape,
	"escape":    CodeEscape,
	"up":        CodeUp,
	"down":      CodeDown,
	"left":      CodeLeft,
	"right":     CodeRight,
	"home":      CodeHome,
	"end":       CodeEnd,
	"pageup":    CodePageUp,
	"pgup":      CodePageUp,
	"pagedown":  CodePageDown,
	"pgdn":      CodePageDown,
	"insert":    CodeInsert,
	"ins":       CodeInsert,
	"delete":    CodeDelete,
	"del":       CodeDelete,
	"f1":        CodeF1, "f2": CodeF2, "f3": CodeF3, "f4": CodeF4,
	"f5": CodeF5, "f6": CodeF6, "f7": CodeF7, "f8": CodeF8,
	"f9": CodeF9, "f10": CodeF10, "f11": CodeF11, "f12": CodeF12,
	"minus": CodeRune,
	"space": CodeRune,
}

var namedRunes = map[string]rune{
	"minus": '-',
	"space": ' ',
}

// ParseLiteral decodes a keymap-style key literal (`<C-a>`, `<S-Tab>`,
// `<F5>`, `<Minus>`, etc.) into a Key. Bare single characters (`a`, `;`)
// are accepted as plain rune keys.
func ParseLiteral(lit string) (Key, bool) {
	if !strings.HasPrefix(lit, "<") || !strings.HasSuffix(lit, ">") {
		r := []rune(lit)
		if len(r) != 1 {
			return Key{}, false
		}
		return Key{Code: CodeRune, Rune: r[0]}, true
	}
	body := lit[1 : len(lit)-1]
	parts := strings.Split(body, "-")
	var mods Mods
	for len(parts) > 1 {
		switch strings.ToUpper(parts[0]) {
		case "C":
			mods |= ModCtrl
		case "S":
			mods |= ModShift
		case "A", "M":
			mods |= ModAlt
		case "D":
			mods |= ModSuper
		default:
			// Not a recognized modifier prefix; treat the remainder as
			// the literal name (e.g. a dash inside a longer tag).
			goto resolveName
		}
		parts = parts[1:]
	}
resolveName:
	name := strings.Join(parts, "-")
	lower := strings.ToLower(name)
	if code, ok := namedCodes[lower]; ok {
		k := Key{Code: code, Mods: mods}
		if code == CodeRune {
			k.Rune = namedRunes[lower]
		}
		return k, true
	}
	if r := []rune(name); len(r) == 1 {
		return Key{Code: CodeRune, Rune: r[0], Mods: mods}, true
	}
	return Key{}, false
}
