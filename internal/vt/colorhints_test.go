package vt

import "testing"

func TestFallbackOSCPaletteDarkBackground(t *testing.T) {
	fg, bg := FallbackOSCPalette("15;0")
	if fg != "rgb:ffff/ffff/ffff" || bg != "rgb:0000/0000/0000" {
		t.Fatalf("FallbackOSCPalette(15;0) = %q,%q, want white-on-black", fg, bg)
	}
}

func TestFallbackOSCPaletteLightBackground(t *testing.T) {
	fg, bg := FallbackOSCPalette("0;15")
	if fg != "rgb:0000/0000/0000" || bg != "rgb:ffff/ffff/ffff" {
		t.Fatalf("FallbackOSCPalette(0;15) = %q,%q, want black-on-white", fg, bg)
	}
}

func TestFallbackOSCPaletteUnparseable(t *testing.T) {
	fg, bg := FallbackOSCPalette("")
	if fg != "rgb:ffff/ffff/ffff" || bg != "rgb:0000/0000/0000" {
		t.Fatalf("FallbackOSCPalette(\"\") = %q,%q, want the dark-background default", fg, bg)
	}
}
