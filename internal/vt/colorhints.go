package vt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
)

// ColorHints caches the controlling terminal's own foreground/background
// colors in X11 "rgb:rrrr/gggg/bbbb" form, so a child's OSC 10/11 query
// ("what color is your background") can be answered without the screen
// itself ever touching a real terminal. Grounded on h2's
// internal/session/virtualterminal.VT.OscFg/OscBg fields, populated once
// at startup (see internal/client's color detection) rather than per
// Screen.
type ColorHints struct {
	Fg string
	Bg string
}

// ColorToX11 converts a termenv.Color to X11 rgb: format, the wire format
// OSC 10/11 responses use.
func ColorToX11(c termenv.Color) string {
	if c == nil {
		return ""
	}
	if v, ok := c.(termenv.RGBColor); ok {
		hex := string(v)
		if len(hex) == 7 && hex[0] == '#' {
			r, _ := strconv.ParseUint(hex[1:3], 16, 8)
			g, _ := strconv.ParseUint(hex[3:5], 16, 8)
			b, _ := strconv.ParseUint(hex[5:7], 16, 8)
			return fmt.Sprintf("rgb:%04x/%04x/%04x", r*0x101, g*0x101, b*0x101)
		}
	}
	rgb := termenv.ConvertToRGB(c)
	r := uint8(rgb.R*255 + 0.5)
	g := uint8(rgb.G*255 + 0.5)
	b := uint8(rgb.B*255 + 0.5)
	return fmt.Sprintf("rgb:%04x/%04x/%04x", uint16(r)*0x101, uint16(g)*0x101, uint16(b)*0x101)
}

// FallbackOSCPalette derives OSC 10/11 colors from a COLORFGBG-style
// string when the real terminal didn't answer a direct color query, e.g.
// running under COLORFGBG without OSC support.
func FallbackOSCPalette(colorfgbg string) (fg, bg string) {
	parts := strings.Split(strings.TrimSpace(colorfgbg), ";")
	bgDark := true
	bgField := ""
	switch {
	case len(parts) >= 2:
		bgField = strings.TrimSpace(parts[1])
	case len(parts) == 1:
		bgField = strings.TrimSpace(parts[0])
	}
	if bgField != "" {
		if idx, err := strconv.Atoi(bgField); err == nil {
			bgDark = idx < 8
		}
	}
	if bgDark {
		return "rgb:ffff/ffff/ffff", "rgb:0000/0000/0000"
	}
	return "rgb:0000/0000/0000", "rgb:ffff/ffff/ffff"
}
