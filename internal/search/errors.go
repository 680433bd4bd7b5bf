package search

import (
	"errors"
	"fmt"
)

// ErrUnsupportedClause is returned when a query carries a clause kind that has
// no query DSL mapping yet (raw expressions and negated ranges).
var ErrUnsupportedClause = errors.New("unsupported clause")

// ConfigurationError reports a client that cannot be built from the supplied settings.
type ConfigurationError struct {
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Err)
	}
	return "configuration error: " + e.Message
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ValidationError reports a payload rejected before any request is sent.
type ValidationError struct {
	Op      string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Op == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error: %s: %s", e.Op, e.Message)
}

func newValidationError(op, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err wraps a *ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsConfiguration reports whether err wraps a *ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}
