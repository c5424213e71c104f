// Package services defines the shared error taxonomy for the assignment
// engine. Sentinel markers classify failures for exit-code mapping and
// importer row handling; messages are built so the offending identifier
// or book key is always present.
package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks malformed input: bad ISBN format or checksum,
	// unparsable dates, invalid block ranges.
	ErrValidation = errors.New("validation error")
	// ErrConflict marks double assignment or an operation requested on a
	// record in an incompatible state.
	ErrConflict = errors.New("conflict error")
	// ErrCapacity marks a block with no remaining available identifiers.
	ErrCapacity = errors.New("capacity error")
	// ErrLockTimeout marks failure to acquire the store lock in time.
	ErrLockTimeout = errors.New("lock timeout")
	// ErrIO marks an unreadable or unwritable store.
	ErrIO = errors.New("io error")
)

// Wrap builds an error message that includes component context while
// tagging it with the provided marker for later classification. The
// marker should be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// RowLocal reports whether an error is recoverable per import row.
// Validation and conflict failures are recorded against the row and the
// batch continues; everything else aborts the batch.
func RowLocal(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrConflict) || errors.Is(err, ErrCapacity)
}

// ExitCode maps an error to the CLI process exit code: 0 for nil, 1 for
// caller mistakes (validation, conflict, capacity), 2 for store-level
// failures (lock timeout, I/O).
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrLockTimeout), errors.Is(err, ErrIO):
		return 2
	default:
		return 1
	}
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
		return "engine failure"
	}
	return strings.Join(parts, ": ")
}
