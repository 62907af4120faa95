// Package errors defines the error taxonomy shared by all finance
// components. Every kind except ErrStorage is a recoverable condition
// a front-end surfaces to its user.
package errors

import (
	"fmt"
	"strings"
)

var (
	// ErrNotFound reports a missing employee id or financial period.
	ErrNotFound = fmt.Errorf("not found")
	// ErrConflict reports a duplicate employee id on create.
	ErrConflict = fmt.Errorf("conflict")
	// ErrInvalidInput is the root of every validation failure.
	ErrInvalidInput = fmt.Errorf("invalid input")
	// ErrInsufficientData reports a prediction requested before the
	// minimum training history exists.
	ErrInsufficientData = fmt.Errorf("insufficient data")
	// ErrStorage wraps storage I/O failures; fatal to the current
	// operation, never retried here.
	ErrStorage = fmt.Errorf("storage failure")
)

// ValidationError collects every violated rule of one input so a UI can
// show all problems at once. It unwraps to ErrInvalidInput.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInvalidInput, strings.Join(e.Violations, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Add records a violated rule.
func (e *ValidationError) Add(format string, args ...interface{}) {
	e.Violations = append(e.Violations, fmt.Sprintf(format, args...))
}

// Err returns e, or nil when no rule was violated. Always return the
// result of Err, never the struct itself, to avoid typed-nil errors.
func (e *ValidationError) Err() error {
	if len(e.Violations) == 0 {
		return nil
	}
	return e
}
