package domain

import (
	"errors"
	"fmt"
)

// Validation failure kinds. A *ValidationError always wraps exactly one of these.
var (
	ErrEmpty              = errors.New("is empty")
	ErrTooLong            = errors.New("is too long")
	ErrForbiddenCharacter = errors.New("contains a forbidden character")
	ErrInvalidFormat      = errors.New("is not a valid email address")
	ErrInvalidEncoding    = errors.New("is not valid UTF-8")
)

// ValidationError reports which subscriber field failed to parse and why.
// Validation errors are always caller-fixable.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidationError reports whether err (or anything it wraps) is a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
