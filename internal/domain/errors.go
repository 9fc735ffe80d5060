package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that a tracker, entry, or snapshot does not exist
	// or is not visible to the caller.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates a malformed request, such as a bad date string.
	ErrInvalidInput = errors.New("invalid input")
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized indicates that the resource exists but belongs to another user.
	ErrUnauthorized = errors.New("not allowed")
	// ErrConflict indicates a uniqueness violation, e.g. a concurrent first
	// write to the same cell or a duplicate quick-add.
	ErrConflict = errors.New("conflict")
	// ErrTrackerLimit indicates that the user already has the maximum number of active trackers.
	ErrTrackerLimit = errors.New("tracker limit reached")
)

// ValidationError reports a value that fails a type-specific rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
