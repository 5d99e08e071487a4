package keys

import (
	"testing"

	"github.com/dcosson/mprocs-go/internal/vt"
)

func firstKey(t *testing.T, events []TermEvent) Key {
	t.Helper()
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d: %#v", len(events), events)
	}
	ke, ok := events[0].(EventKey)
	if !ok {
		t.Fatalf("expected EventKey, got %T", events[0])
	}
	return ke.Key
}

func TestParsePrintableRune(t *testing.T) {
	p := NewParser()
	k := firstKey(t, p.Feed([]byte("a")))
	if k.Code != CodeRune || k.Rune != 'a' || k.Mods != 0 {
		t.Fatalf("unexpected key: %#v", k)
	}
}

func TestParseCtrlByte(t *testing.T) {
	p := NewParser()
	k := firstKey(t, p.Feed([]byte{0x01}))
	if k.Code != CodeRune || k.Rune != 'a' || k.Mods != ModCtrl {
		t.Fatalf("unexpected key for ctrl-a: %#v", k)
	}
}

func TestParseEnterTabBackspace(t *testing.T) {
	p := NewParser()
	if k := firstKey(t, p.Feed([]byte{'\r'})); k.Code != CodeEnter {
		t.Fatalf("expected Enter, got %#v", k)
	}
	if k := firstKey(t, p.Feed([]byte{0x09})); k.Code != CodeTab {
		t.Fatalf("expected Tab, got %#v", k)
	}
	if k := firstKey(t, p.Feed([]byte{0x7f})); k.Code != CodeBackspace {
		t.Fatalf("expected Backspace, got %#v", k)
	}
}

func TestParseArrowCSI(t *testing.T) {
	p := NewParser()
	k := firstKey(t, p.Feed([]byte("\x1b[A")))
	if k.Code != CodeUp || k.Mods != 0 {
		t.Fatalf("unexpected key: %#v", k)
	}
}

func TestParseArrowSS3(t *testing.T) {
	p := NewParser()
	k := firstKey(t, p.Feed([]byte("\x1bOA")))
	if k.Code != CodeUp {
		t.Fatalf("unexpected key: %#v", k)
	}
}

func TestParseModifiedArrow(t *testing.T) {
	p := NewParser()
	k := firstKey(t, p.Feed([]byte("\x1b[1;5C")))
	if k.Code != CodeRight || !k.Mods.Has(ModCtrl) {
		t.Fatalf("unexpected key for ctrl-right: %#v", k)
	}
}

func TestParseTildeKeys(t *testing.T) {
	p := NewParser()
	if k := firstKey(t, p.Feed([]byte("\x1b[3~"))); k.Code != CodeDelete {
		t.Fatalf("expected Delete, got %#v", k)
	}
	if k := firstKey(t, p.Feed([]byte("\x1b[5~"))); k.Code != CodePageUp {
		t.Fatalf("expected PageUp, got %#v", k)
	}
	if k := firstKey(t, p.Feed([]byte("\x1b[15~"))); k.Code != CodeF5 {
		t.Fatalf("expected F5, got %#v", k)
	}
}

func TestParseAltPrefixedRune(t *testing.T) {
	p := NewParser()
	k := firstKey(t, p.Feed([]byte("\x1bx")))
	if k.Code != CodeRune || k.Rune != 'x' || !k.Mods.Has(ModAlt) {
		t.Fatalf("unexpected key for alt-x: %#v", k)
	}
}

func TestParseBareEscape(t *testing.T) {
	p := NewParser()
	events := p.Feed([]byte{0x1b})
	// A lone ESC byte with nothing following is ambiguous; the parser
	// must not emit anything until either more bytes arrive or the
	// caller decides the wait has elapsed.
	if len(events) != 0 {
		t.Fatalf("expected no events yet for a dangling ESC, got %#v", events)
	}
	events = p.Feed([]byte{'q'})
	k := firstKey(t, events)
	if k.Code != CodeRune || k.Rune != 'q' || !k.Mods.Has(ModAlt) {
		t.Fatalf("unexpected key once ESC sequence completed: %#v", k)
	}
}

func TestParseUTF8MultiByte(t *testing.T) {
	p := NewParser()
	// "é" = 0xC3 0xA9
	k := firstKey(t, p.Feed([]byte{0xC3, 0xA9}))
	if k.Code != CodeRune || k.Rune != 'é' {
		t.Fatalf("unexpected key for utf8 rune: %#v", k)
	}
}

func TestParseUTF8SplitAcrossFeeds(t *testing.T) {
	p := NewParser()
	if events := p.Feed([]byte{0xC3}); len(events) != 0 {
		t.Fatalf("expected no event from a partial utf8 sequence, got %#v", events)
	}
	k := firstKey(t, p.Feed([]byte{0xA9}))
	if k.Rune != 'é' {
		t.Fatalf("unexpected key after completing the split utf8 sequence: %#v", k)
	}
}

func TestParseCSISplitAcrossFeeds(t *testing.T) {
	p := NewParser()
	if events := p.Feed([]byte("\x1b[1;5")); len(events) != 0 {
		t.Fatalf("expected no event from a partial CSI sequence, got %#v", events)
	}
	k := firstKey(t, p.Feed([]byte("C")))
	if k.Code != CodeRight || !k.Mods.Has(ModCtrl) {
		t.Fatalf("unexpected key after completing split CSI: %#v", k)
	}
}

func TestParseFocusEvents(t *testing.T) {
	p := NewParser()
	events := p.Feed([]byte("\x1b[I"))
	if len(events) != 1 {
		t.Fatalf("expected one event, got %#v", events)
	}
	if _, ok := events[0].(EventFocusGained); !ok {
		t.Fatalf("expected EventFocusGained, got %T", events[0])
	}

	events = p.Feed([]byte("\x1b[O"))
	if _, ok := events[0].(EventFocusLost); !ok {
		t.Fatalf("expected EventFocusLost, got %T", events[0])
	}
}

func TestParseSGRMousePress(t *testing.T) {
	p := NewParser()
	events := p.Feed([]byte("\x1b[<0;10;20M"))
	if len(events) != 1 {
		t.Fatalf("expected one event, got %#v", events)
	}
	me, ok := events[0].(EventMouse)
	if !ok {
		t.Fatalf("expected EventMouse, got %T", events[0])
	}
	if me.Event.Button != MouseButtonLeft || me.Event.Action != MouseActionPress {
		t.Fatalf("unexpected mouse event: %#v", me.Event)
	}
	if me.Event.Col != 10 || me.Event.Row != 20 {
		t.Fatalf("unexpected mouse coordinates: %#v", me.Event)
	}
}

func TestParseSGRMouseRelease(t *testing.T) {
	p := NewParser()
	events := p.Feed([]byte("\x1b[<0;10;20m"))
	me := events[0].(EventMouse)
	if me.Event.Action != MouseActionRelease {
		t.Fatalf("expected release, got %#v", me.Event)
	}
}

func TestParseX10Mouse(t *testing.T) {
	p := NewParser()
	events := p.Feed([]byte{0x1b, '[', 'M', byte(32 + 0), byte(32 + 5), byte(32 + 6)})
	if len(events) != 1 {
		t.Fatalf("expected one event, got %#v", events)
	}
	me, ok := events[0].(EventMouse)
	if !ok {
		t.Fatalf("expected EventMouse, got %T", events[0])
	}
	if me.Event.Col != 5 || me.Event.Row != 6 || me.Event.Button != MouseButtonLeft {
		t.Fatalf("unexpected x10 mouse event: %#v", me.Event)
	}
}

func TestParsePasteAccumulatesUntilEndMarker(t *testing.T) {
	p := NewParser()
	p.BeginPaste()
	events := p.Feed([]byte("hello "))
	if len(events) != 0 {
		t.Fatalf("expected no event mid-paste, got %#v", events)
	}
	events = p.Feed([]byte("world\x1b[201~"))
	if len(events) != 1 {
		t.Fatalf("expected exactly one paste event, got %#v", events)
	}
	pe, ok := events[0].(EventPaste)
	if !ok {
		t.Fatalf("expected EventPaste, got %T", events[0])
	}
	if pe.Text != "hello world" {
		t.Fatalf("unexpected paste text: %q", pe.Text)
	}
}

func TestNoteKittyReplyTracked(t *testing.T) {
	p := NewParser()
	if p.SawKittyReply() {
		t.Fatal("expected no kitty reply initially")
	}
	p.NoteKittyReply()
	if !p.SawKittyReply() {
		t.Fatal("expected kitty reply to be recorded")
	}
}

func TestEncodeDecodeArrowRoundTrip(t *testing.T) {
	for _, code := range []Code{CodeUp, CodeDown, CodeLeft, CodeRight} {
		encoded := Encode(Key{Code: code}, EncodeMode{})
		p := NewParser()
		k := firstKey(t, p.Feed(encoded))
		if k.Code != code {
			t.Fatalf("round trip mismatch for %v: got %v", code, k.Code)
		}
	}
}

func TestEncodeDecodeMouseRoundTripSGR(t *testing.T) {
	ev := MouseEvent{Action: MouseActionPress, Button: MouseButtonRight, Row: 12, Col: 34}
	encoded := EncodeMouse(ev, vt.MouseEncodingSGR)
	p := NewParser()
	events := p.Feed(encoded)
	me := events[0].(EventMouse)
	if me.Event.Row != 12 || me.Event.Col != 34 || me.Event.Button != MouseButtonRight {
		t.Fatalf("unexpected round-tripped mouse event: %#v", me.Event)
	}
}
