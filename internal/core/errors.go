package core

import "errors"

var (
	// ErrUpstreamUnavailable indicates an outbound call failed or returned a
	// non-2xx status. Surfaced as a generic 500; never retried.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrEntityNotFound indicates a well-formed upstream response was missing
	// the expected entity.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrNotFound indicates a slug with no stored smart link.
	ErrNotFound = errors.New("smart link not found")
)

// ValidationError is a caller-visible input error, rendered as a 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Msg: msg}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
