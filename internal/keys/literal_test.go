package keys

import "testing"

func TestParseLiteralPlainRune(t *testing.T) {
	k, ok := ParseLiteral("a")
	if !ok || k.Code != CodeRune || k.Rune != 'a' {
		t.Fatalf("unexpected: %#v ok=%v", k, ok)
	}
}

func TestParseLiteralCtrlCombo(t *testing.T) {
	k, ok := ParseLiteral("<C-a>")
	if !ok || k.Code != CodeRune || k.Rune != 'a' || !k.Mods.Has(ModCtrl) {
		t.Fatalf("unexpected: %#v ok=%v", k, ok)
	}
}

func TestParseLiteralShiftTab(t *testing.T) {
	k, ok := ParseLiteral("<S-Tab>")
	if !ok || k.Code != CodeTab || !k.Mods.Has(ModShift) {
		t.Fatalf("unexpected: %#v ok=%v", k, ok)
	}
}

func TestParseLiteralFunctionKey(t *testing.T) {
	k, ok := ParseLiteral("<F5>")
	if !ok || k.Code != CodeF5 {
		t.Fatalf("unexpected: %#v ok=%v", k, ok)
	}
}

func TestParseLiteralNamedPunctuation(t *testing.T) {
	k, ok := ParseLiteral("<Minus>")
	if !ok || k.Code != CodeRune || k.Rune != '-' {
		t.Fatalf("unexpected: %#v ok=%v", k, ok)
	}
}

func TestParseLiteralEnter(t *testing.T) {
	k, ok := ParseLiteral("<Enter>")
	if !ok || k.Code != CodeEnter {
		t.Fatalf("unexpected: %#v ok=%v", k, ok)
	}
}

func TestParseLiteralInvalid(t *testing.T) {
	if _, ok := ParseLiteral("<>"); ok {
		t.Fatal("expected <> to be rejected")
	}
	if _, ok := ParseLiteral("ab"); ok {
		t.Fatal("expected multi-char bare literal to be rejected")
	}
}
