package client

import (
	"io"

	"github.com/aymanbagabas/go-osc52/v2"
)

// OSC52Clipboard returns a copy-mode clipboard writer that asks the
// controlling terminal itself to set the system clipboard via an OSC 52
// escape sequence, rather than shelling out to pbcopy/xclip/wl-copy.
// This is the fallback that keeps copy mode's yank working over SSH or
// inside a container with no native clipboard collaborator, the same
// scenario termenv (already pulled in for OSC 10/11 color detection)
// carries OSC 52 support for. Writes go straight to w rather than through
// the renderer's draw stream, since a yank happens outside the normal
// render cycle and has nothing to diff against.
func OSC52Clipboard(w io.Writer) func(string) error {
	return func(text string) error {
		_, err := osc52.New(text).WriteTo(w)
		return err
	}
}
