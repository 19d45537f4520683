package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("user", "42"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("email", "email must be a valid address"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Misconfigured wraps ErrConfiguration",
			err:       Misconfigured("Server is not configured for Google OAuth"),
			target:    ErrConfiguration,
			wantMatch: true,
		},
		{
			name:      "wrapped twice still matches",
			err:       fmt.Errorf("service/user: %w", fmt.Errorf("outer: %w", NotFound("user", "7"))),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrUnauthenticated",
			err:       NotFound("user", "42"),
			target:    ErrUnauthenticated,
			wantMatch: false,
		},
		{
			name:      "Misconfigured does NOT match ErrValidation",
			err:       Misconfigured("Server is not configured for Google OAuth"),
			target:    ErrValidation,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("user", "42"),
			wantMessage: "user not found with id 42",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("name", "name is required"),
			wantMessage: "name is required",
		},
		{
			name:        "Misconfigured keeps the message verbatim",
			err:         Misconfigured("Server is not configured for authentication"),
			wantMessage: "Server is not configured for authentication",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := NotFound("user", "42")
	if unwrapped := err.Unwrap(); unwrapped != ErrNotFound {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrNotFound)
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("picture", "picture must be a valid URL")

	if err.Field != "picture" {
		t.Errorf("Field = %q, want %q", err.Field, "picture")
	}
}

func TestErrorsAs_ExtractsAppError(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", Misconfigured("Server is not configured for authentication"))

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As() did not find *AppError in chain")
	}
	if appErr.Message != "Server is not configured for authentication" {
		t.Errorf("Message = %q", appErr.Message)
	}
}
