package note

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when no note exists for the given id.
	ErrNotFound = errors.New("note not found")

	// ErrNoteLocked is returned when a signed note is edited without an
	// unlock reason. The check runs before validation and storage.
	ErrNoteLocked = errors.New("note is signed; an unlock reason is required to edit it")

	// ErrInvalidTransition is returned for lifecycle rule violations, such
	// as signing an already-signed note with no unlock in progress.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
)

// ValidationError carries the full list of human-readable validation
// failures for a note. It is recoverable: callers decide whether to block
// the operation.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "note validation failed: " + strings.Join(e.Errors, "; ")
}

// AsValidationError unwraps err into a *ValidationError, or nil.
func AsValidationError(err error) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
