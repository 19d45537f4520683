package handler

// RESPONSE HELPERS:
// Every JSON response goes through writeJSON, every failure through
// writeError or writeMessage, so the browser always sees the same shape:
//
//	{"error": "Invalid request", "details": [{"field": "name", "message": "..."}]}
//
// "details" is omitted when there is nothing to add.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/wapidou/app/internal/api"
	"github.com/wapidou/app/internal/apperror"
	"github.com/wapidou/app/internal/service"
)

const (
	msgInternal         = "Internal server error"
	msgInvalidRequest   = "Invalid request"
	msgNotAuthenticated = "Not authenticated"
	msgUserNotFound     = "User not found"
	msgAuthError        = "Authentication error"
)

// writeJSON sends a JSON response with the given status code.
//
// Headers and status must be set before the body: once Encode writes, later
// header changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeMessage sends {"error": msg}.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.ErrorResponse{Error: msg})
}

// writeError maps a service error to a status code and body.
//
// ERROR MAPPING:
// The service layer returns apperror kinds wrapped with context; errors.Is
// walks the chain to find the kind. Anything unrecognised is a 500 with a
// fixed message. The cause is logged, never sent to the client.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var verr *service.ValidationError
	var appErr *apperror.AppError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: msgInvalidRequest, Details: verr.Fields})
	case errors.Is(err, apperror.ErrValidation) && errors.As(err, &appErr):
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{
			Error:   msgInvalidRequest,
			Details: []api.FieldError{{Field: appErr.Field, Message: appErr.Message}},
		})
	case errors.Is(err, apperror.ErrUnauthenticated):
		writeMessage(w, http.StatusUnauthorized, msgNotAuthenticated)
	case errors.Is(err, apperror.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Not found")
	case errors.Is(err, apperror.ErrConfiguration) && errors.As(err, &appErr):
		logger.Error("server misconfigured", slog.String("error", err.Error()))
		writeMessage(w, http.StatusInternalServerError, appErr.Message)
	default:
		logger.Error("request failed", slog.String("error", err.Error()))
		writeMessage(w, http.StatusInternalServerError, msgInternal)
	}
}
