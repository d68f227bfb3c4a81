package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks missing or invalid pipeline specification fields.
	ErrConfiguration = errors.New("configuration error")
	// ErrMissingInput marks required input files that are absent at start.
	ErrMissingInput = errors.New("missing input error")
	// ErrDiscovery marks expected stage subdirectories that do not exist.
	ErrDiscovery = errors.New("discovery error")
	// ErrTransfer marks relocation primitive failures (non-zero exit).
	ErrTransfer = errors.New("transfer error")
	// ErrProvenance marks fragment parse/validation failures during a merge.
	ErrProvenance = errors.New("provenance merge error")
	// ErrChannelToken marks directory names that lack the Ex/Em channel pattern.
	ErrChannelToken = errors.New("channel token error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrConfiguration
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "dispatcher failure"
	}
	return strings.Join(parts, ": ")
}
