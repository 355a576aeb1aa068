// Package docerr holds the failure taxonomy shared by every document tool.
package docerr

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when a tool instance already has an operation in flight.
var ErrBusy = errors.New("operation already in progress")

// ParseError means the input bytes are not a valid document of the expected kind.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: parse error", e.Op)
	}
	return fmt.Sprintf("%s: parse error: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UnsupportedError means the document is valid but nothing usable could be
// produced from it (scanned PDF, unknown image encoding).
type UnsupportedError struct {
	Op     string
	Reason string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: unsupported content: %s", e.Op, e.Reason)
}

// EncodingError means producing the output bytes failed.
type EncodingError struct {
	Op  string
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%s: encoding error: %v", e.Op, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// ValidationError represents insufficient or out-of-range user input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Parse wraps err as a ParseError for op.
func Parse(op string, err error) error { return &ParseError{Op: op, Err: err} }

// Unsupported builds an UnsupportedError.
func Unsupported(op, format string, args ...any) error {
	return &UnsupportedError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// Encoding wraps err as an EncodingError for op.
func Encoding(op string, err error) error { return &EncodingError{Op: op, Err: err} }

// Invalid builds a ValidationError.
func Invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
