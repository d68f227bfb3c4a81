package channel_test

import (
	"errors"
	"testing"

	"dispatcher/internal/channel"
	"dispatcher/internal/services"
)

func TestParseToken(t *testing.T) {
	token, err := channel.ParseToken("/data/ccf_registration_results/ccf_Ex_561_Em_600")
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if token.Name != "Ex_561_Em_600" {
		t.Fatalf("token name = %q, want Ex_561_Em_600", token.Name)
	}
	if token.Excitation != 561 || token.Emission != 600 {
		t.Fatalf("token wavelengths = %d/%d, want 561/600", token.Excitation, token.Emission)
	}
}

func TestParseTokenBareName(t *testing.T) {
	token, err := channel.ParseToken("Ex_488_Em_525")
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if token.Name != "Ex_488_Em_525" {
		t.Fatalf("token name = %q", token.Name)
	}
}

func TestParseTokenMissingPattern(t *testing.T) {
	_, err := channel.ParseToken("/data/cell_outputs")
	if err == nil {
		t.Fatal("expected error for directory without channel token")
	}
	if !errors.Is(err, services.ErrChannelToken) {
		t.Fatalf("expected channel token marker, got %v", err)
	}
}

func TestParseTokenMidNamePatternRejected(t *testing.T) {
	// The token must terminate the name; an interior match does not count.
	if _, err := channel.ParseToken("cell_Ex_488_Em_525_old"); err == nil {
		t.Fatal("expected error for non-terminal token")
	}
}

func TestEmissionFromStem(t *testing.T) {
	wavelength, err := channel.EmissionFromStem("s3://bucket/dataset/image_tile_fusing/OMEZarr/Ex_488_Em_525.zarr")
	if err != nil {
		t.Fatalf("EmissionFromStem: %v", err)
	}
	if wavelength != 525 {
		t.Fatalf("wavelength = %d, want 525", wavelength)
	}
}

func TestEmissionFromStemMalformed(t *testing.T) {
	if _, err := channel.EmissionFromStem("channel.zarr"); err == nil {
		t.Fatal("expected error for stem without wavelength suffix")
	}
}
