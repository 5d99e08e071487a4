package client

import (
	"bytes"
	"strings"
	"testing"
)

func TestOSC52ClipboardWritesEscapeSequence(t *testing.T) {
	var buf bytes.Buffer
	write := OSC52Clipboard(&buf)
	if err := write("hello"); err != nil {
		t.Fatalf("OSC52Clipboard write: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "\x1b]52;") {
		t.Fatalf("output = %q, want OSC 52 prefix", out)
	}
	if !strings.Contains(out, "aGVsbG8=") { // base64("hello")
		t.Fatalf("output = %q, want base64-encoded payload", out)
	}
}
