package channel_test

import (
	"testing"

	"dispatcher/internal/channel"
)

func TestCIEPaletteSaturatesAtEnds(t *testing.T) {
	// Anything at or beyond the last bound takes the last band's color.
	for _, wavelength := range []int{750, 751, 900} {
		if got := channel.PaletteCIE.Hex(wavelength); got != "#f00050" {
			t.Fatalf("Hex(%d) = %q, want #f00050", wavelength, got)
		}
	}
	// Anything below the first bound takes the first band's color.
	for _, wavelength := range []int{0, 380, 459} {
		if got := channel.PaletteCIE.Hex(wavelength); got != "#690afe" {
			t.Fatalf("Hex(%d) = %q, want #690afe", wavelength, got)
		}
	}
}

func TestCIEPaletteExclusiveBounds(t *testing.T) {
	// 460 is an exclusive bound, so exactly 460 rolls into the next band.
	if got := channel.PaletteCIE.Hex(460); got != "#3f2efe" {
		t.Fatalf("Hex(460) = %q, want #3f2efe", got)
	}
	if got := channel.PaletteCIE.Hex(459); got != "#690afe" {
		t.Fatalf("Hex(459) = %q, want #690afe", got)
	}
}

func TestFPBasePaletteInclusiveBounds(t *testing.T) {
	// A wavelength equal to a bound returns that bound's color.
	if got := channel.PaletteFPBase.Hex(530); got != "#92ff42" {
		t.Fatalf("Hex(530) = %q, want #92ff42", got)
	}
	// One past the bound rolls into the next band.
	if got := channel.PaletteFPBase.Hex(531); got != "#e4fe41" {
		t.Fatalf("Hex(531) = %q, want #e4fe41", got)
	}
	// Beyond the last bound saturates.
	if got := channel.PaletteFPBase.Hex(999); got != "#a81f1f" {
		t.Fatalf("Hex(999) = %q, want #a81f1f", got)
	}
}

func TestPaletteByName(t *testing.T) {
	if got := channel.PaletteByName("cie").Name(); got != "cie" {
		t.Fatalf("PaletteByName(cie) = %q", got)
	}
	if got := channel.PaletteByName("").Name(); got != "fpbase" {
		t.Fatalf("PaletteByName empty = %q, want fpbase fallback", got)
	}
	if got := channel.PaletteByName("unknown").Name(); got != "fpbase" {
		t.Fatalf("PaletteByName unknown = %q, want fpbase fallback", got)
	}
}

func TestHexIsDeterministic(t *testing.T) {
	first := channel.PaletteFPBase.Hex(525)
	for i := 0; i < 5; i++ {
		if got := channel.PaletteFPBase.Hex(525); got != first {
			t.Fatalf("Hex(525) changed between calls: %q vs %q", first, got)
		}
	}
}
