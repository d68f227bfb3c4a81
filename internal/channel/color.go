package channel

import "fmt"

// colorStop binds the upper bound of a wavelength band to a display color.
type colorStop struct {
	bound int
	hex   int
}

// Palette maps emission wavelengths to hex colors. The two shipped palettes
// use different boundary semantics, so the comparison policy travels with the
// table instead of living in an ambiguous shared function.
type Palette struct {
	name      string
	inclusive bool
	stops     []colorStop
}

// PaletteCIE samples colors along a CIE diagram arc. Band bounds are
// exclusive: a wavelength equal to a bound falls into the next band.
var PaletteCIE = Palette{
	name: "cie",
	stops: []colorStop{
		{460, 0x690AFE}, // purple
		{470, 0x3F2EFE}, // blue-purple
		{480, 0x4B90FE}, // blue
		{490, 0x59D5F8}, // blue-green
		{500, 0x5DF8D6}, // green
		{520, 0x5AFEB8},
		{540, 0x58FEA1},
		{560, 0x51FF1E},
		{565, 0xBBFB01}, // green-yellow
		{575, 0xE9EC02}, // yellow
		{580, 0xF5C503}, // yellow-orange
		{590, 0xF39107}, // orange
		{600, 0xF15211}, // orange-red
		{620, 0xF0121E}, // red
		{750, 0xF00050}, // pink
	},
}

// PaletteFPBase derives colors from the fpbase.org spectra viewer
// (mTFP1, EGFP, SYFP2, mBanana, mOrange, tdTomato, mCherry, mRaspberry,
// mPlum). Band bounds are inclusive.
var PaletteFPBase = Palette{
	name:      "fpbase",
	inclusive: true,
	stops: []colorStop{
		{500, 0x61ABFD}, // ruddy blue, mTFP/mTurquoise
		{530, 0x92FF42}, // chartreuse, EGFP
		{540, 0xE4FE41}, // chartreuse, SYFP2
		{560, 0xF3D038}, // mustard, mBanana
		{580, 0xEAB032}, // xanthous, mOrange
		{600, 0xF15F22}, // giants orange, tdTomato/mScarlet
		{630, 0xED1C24}, // red, mCherry
		{680, 0xC51E1F}, // fire engine red, mRaspberry
		{700, 0xA81F1F}, // fire brick, mPlum
	},
}

// PaletteByName resolves a configured palette name. Unknown names fall back
// to the fpbase palette used by the active viewer path.
func PaletteByName(name string) Palette {
	if name == PaletteCIE.name {
		return PaletteCIE
	}
	return PaletteFPBase
}

// Name returns the palette identifier used in configuration.
func (p Palette) Name() string { return p.name }

// Hex maps a wavelength in nanometers to a "#rrggbb" color string. The scan
// walks bands in ascending bound order; wavelengths beyond the last bound
// saturate to the last band's color rather than failing.
func (p Palette) Hex(wavelength int) string {
	color := p.stops[len(p.stops)-1].hex
	for _, stop := range p.stops {
		if wavelength < stop.bound || (p.inclusive && wavelength == stop.bound) {
			color = stop.hex
			break
		}
	}
	return fmt.Sprintf("#%x", color)
}
