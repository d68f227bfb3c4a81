package run

import (
	"fmt"
	"strings"

	"dispatcher/internal/services"
)

// Mode selects which half of the pipeline hand-off a run performs.
type Mode string

// Supported run modes.
const (
	ModeDispatch Mode = "dispatch"
	ModeClean    Mode = "clean"
)

// ParseMode resolves a scheduler-supplied mode string. Matching is by
// substring so decorated values like "dispatch_1" keep working.
func ParseMode(raw string) (Mode, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(normalized, string(ModeDispatch)):
		return ModeDispatch, nil
	case strings.Contains(normalized, string(ModeClean)):
		return ModeClean, nil
	}
	return "", services.Wrap(services.ErrConfiguration, "run", "parse mode",
		fmt.Sprintf("mode %q has not been implemented", raw), nil)
}
