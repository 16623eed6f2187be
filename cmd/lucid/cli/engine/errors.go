package engine

import "errors"

// StatusError is a user-visible engine error carrying an HTTP-style status
// code. Validation and domain-rule violations use 400, missing rows 404,
// and escalated git failures 500. Absorbed git failures never surface here.
type StatusError struct {
	StatusCode int
	Message    string
}

// Error implements error.
func (e *StatusError) Error() string {
	return e.Message
}

// NewValidationError returns a 400 error for a missing or invalid field,
// or a domain-rule violation.
func NewValidationError(message string) *StatusError {
	return &StatusError{StatusCode: 400, Message: message}
}

// NewNotFoundError returns a 404 error for an unknown project, branch or run.
func NewNotFoundError(message string) *StatusError {
	return &StatusError{StatusCode: 404, Message: message}
}

// NewInternalError returns a 500 error for an escalated git failure.
func NewInternalError(message string) *StatusError {
	return &StatusError{StatusCode: 500, Message: message}
}

// StatusOf extracts the status code from an error, defaulting to 500.
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 500
}
