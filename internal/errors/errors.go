// Package errors provides standardized domain errors that express business intent
// rather than infrastructure details. Use cases return these kinds (directly or wrapped)
// and handlers map them to HTTP status codes.
package errors

import (
	"errors"
	"fmt"
)

// Standard error kinds shared by every domain module.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., duplicate key).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBadRequest indicates a well-formed request whose arguments cannot be acted upon.
	ErrBadRequest = errors.New("bad request")

	// ErrUnauthorized indicates the request lacks valid authentication credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller is not allowed to perform the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInternal indicates a failure the caller cannot fix by changing the request.
	ErrInternal = errors.New("internal error")
)

// CodedError is a domain error with a stable machine-readable code. It unwraps to
// its kind so callers can keep using Is against the generic errors above.
type CodedError struct {
	code    string
	kind    error
	message string
}

// NewCoded creates a CodedError of the given kind.
func NewCoded(code string, kind error, message string) *CodedError {
	return &CodedError{code: code, kind: kind, message: message}
}

// Error returns the human readable message.
func (e *CodedError) Error() string {
	return e.message
}

// Code returns the machine-readable code (e.g. "duplicate_hash").
func (e *CodedError) Code() string {
	return e.code
}

// Unwrap returns the error kind.
func (e *CodedError) Unwrap() error {
	return e.kind
}

// New creates a new error with the given message.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// CodeOf returns the code of the first CodedError in err's tree, or "" if there is none.
func CodeOf(err error) string {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}
