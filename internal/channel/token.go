package channel

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"dispatcher/internal/services"
)

// tokenPattern matches the trailing channel token on stage directory names,
// e.g. "ccf_Ex_561_Em_600".
var tokenPattern = regexp.MustCompile(`Ex_(\d{3})_Em_(\d{3})$`)

// Token identifies a fluorescence channel by excitation/emission wavelength.
type Token struct {
	Name       string
	Excitation int
	Emission   int
}

// ParseToken extracts the channel token from a stage directory path. The
// token must terminate the directory name; anything else is a reported error
// rather than a silent empty token.
func ParseToken(dir string) (Token, error) {
	name := filepath.Base(strings.TrimRight(dir, "/"))
	match := tokenPattern.FindStringSubmatch(name)
	if match == nil {
		return Token{}, services.Wrap(services.ErrChannelToken, "channel", "parse token", "no Ex/Em pattern in "+name, nil)
	}
	excitation, err := strconv.Atoi(match[1])
	if err != nil {
		return Token{}, services.Wrap(services.ErrChannelToken, "channel", "parse excitation", match[1], err)
	}
	emission, err := strconv.Atoi(match[2])
	if err != nil {
		return Token{}, services.Wrap(services.ErrChannelToken, "channel", "parse emission", match[2], err)
	}
	return Token{Name: match[0], Excitation: excitation, Emission: emission}, nil
}

// EmissionFromStem reads the trailing underscore-delimited wavelength from a
// channel artifact stem such as "Ex_488_Em_525". The viewer uses it to pick a
// display color for Zarr layer sources.
func EmissionFromStem(path string) (int, error) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	idx := strings.LastIndex(stem, "_")
	if idx < 0 || idx == len(stem)-1 {
		return 0, services.Wrap(services.ErrChannelToken, "channel", "parse emission", "no wavelength suffix in "+stem, nil)
	}
	wavelength, err := strconv.Atoi(stem[idx+1:])
	if err != nil {
		return 0, services.Wrap(services.ErrChannelToken, "channel", "parse emission", stem, err)
	}
	return wavelength, nil
}
