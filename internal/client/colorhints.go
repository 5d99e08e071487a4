package client

import (
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/dcosson/mprocs-go/internal/vt"
)

// DetectColorHints queries the real controlling terminal for its current
// foreground/background colors, the same way h2's
// internal/cmd/term_colors.go builds OSC 10/11 hints for a daemon's
// virtual terminal. Returns the zero value when stdout isn't a terminal
// or the terminal doesn't answer — callers (vt.Screen) fall back to
// COLORFGBG at query time in that case.
func DetectColorHints() vt.ColorHints {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return vt.ColorHints{}
	}
	output := termenv.NewOutput(os.Stdout)
	var hints vt.ColorHints
	if fg := output.ForegroundColor(); fg != nil {
		hints.Fg = vt.ColorToX11(fg)
	}
	if bg := output.BackgroundColor(); bg != nil {
		hints.Bg = vt.ColorToX11(bg)
	}
	return hints
}
