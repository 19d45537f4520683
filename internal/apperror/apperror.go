// Package apperror defines the error kinds shared by the service and HTTP layers.
//
// Services return these kinds (wrapped with context via fmt.Errorf and %w);
// the handler package translates them to HTTP status codes. Anything that is
// not an *AppError is treated as an internal failure.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrConfiguration   = errors.New("configuration error")
)

type AppError struct {
	Err     error  // kind, one of the Err* sentinels
	Message string // safe to show to clients
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Misconfigured reports a required secret or setting that is absent at
// runtime, e.g. OAuth credentials. Maps to 500; the message names what is
// missing and is shown to the client.
func Misconfigured(message string) *AppError {
	return &AppError{
		Err:     ErrConfiguration,
		Message: message,
	}
}
