package model

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDiscountedPrice = errors.New("invalid discounted price")
	ErrInvalidHexCode         = errors.New("invalid hex code")
	ErrInvalidPrice           = errors.New("invalid price")
	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrFieldRequired          = errors.New("field required")
	ErrFieldTooLong           = errors.New("field too long")
)

// ValidationError rejects a write before anything reaches the database.
// Kind is one of the sentinel errors above, so callers test with errors.Is.
type ValidationError struct {
	Field   string
	Kind    error
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func NewValidationError(field string, kind error, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err (or anything it wraps) is a
// *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func requireName(field, value string, max int) error {
	if value == "" {
		return NewValidationError(field, ErrFieldRequired, "%s is required", field)
	}
	if len([]rune(value)) > max {
		return NewValidationError(field, ErrFieldTooLong, "%s must be at most %d characters", field, max)
	}
	return nil
}
