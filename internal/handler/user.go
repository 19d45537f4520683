package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/wapidou/app/internal/api"
	"github.com/wapidou/app/internal/apperror"
	"github.com/wapidou/app/internal/auth"
	"github.com/wapidou/app/internal/model"
)

const maxBodyBytes = 1 << 16

// ProfileUpdater applies a validated profile edit.
type ProfileUpdater interface {
	UpdateProfile(ctx context.Context, id int64, req api.ProfileUpdateRequest) (*model.User, error)
}

// UserHandler serves the signed-in user's own record.
//
// Both routes sit behind auth.Require, so the user is always in the context.
type UserHandler struct {
	profiles ProfileUpdater
	logger   *slog.Logger
}

func NewUserHandler(profiles ProfileUpdater, logger *slog.Logger) *UserHandler {
	return &UserHandler{profiles: profiles, logger: logger}
}

// HandleMe returns the public projection of the current user.
//
// HTTP: GET /auth/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, msgNotAuthenticated)
		return
	}

	writeJSON(w, http.StatusOK, api.NewMeResponse(user))
}

// HandleUpdateMe edits name, email and picture of the current user.
//
// HTTP: PATCH /auth/me
// Body: {"name"?: string, "email"?: string, "picture"?: string}
//
// Unknown fields are ignored. Fields not sent are left unchanged.
func (h *UserHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, msgNotAuthenticated)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	req, fieldErr := decodeProfileUpdate(r.Body)
	if fieldErr != nil {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{
			Error:   msgInvalidRequest,
			Details: []api.FieldError{*fieldErr},
		})
		return
	}

	updated, err := h.profiles.UpdateProfile(r.Context(), user.ID, req)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// The row existed a moment ago in the session check.
			h.logger.Error("update me: user vanished", slog.Int64("userID", user.ID))
			writeMessage(w, http.StatusInternalServerError, "Failed to update user")
			return
		}
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, api.NewMeResponse(updated))
}

// decodeProfileUpdate reads exactly one JSON object. Fields may be omitted
// but not sent as null, and nothing may follow the object.
func decodeProfileUpdate(body io.Reader) (api.ProfileUpdateRequest, *api.FieldError) {
	var req api.ProfileUpdateRequest
	notObject := &api.FieldError{Field: "body", Message: "must be a JSON object"}

	dec := json.NewDecoder(body)
	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return req, notObject
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return req, notObject
	}

	targets := []struct {
		name string
		dst  **string
	}{
		{"name", &req.Name},
		{"email", &req.Email},
		{"picture", &req.Picture},
	}
	for _, f := range targets {
		raw, ok := fields[f.name]
		if !ok {
			continue
		}
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return req, &api.FieldError{Field: f.name, Message: "must not be null"}
		}
		if err := json.Unmarshal(raw, f.dst); err != nil {
			return req, &api.FieldError{Field: f.name, Message: "must be a string"}
		}
	}
	return req, nil
}

// DenyJSON renders every session failure as 401 and store failures as 500.
// Used by /api/* and PATCH /auth/me.
func DenyJSON(logger *slog.Logger) auth.DenyFunc {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		if _, ok := auth.FailureReason(err); ok {
			writeMessage(w, http.StatusUnauthorized, msgNotAuthenticated)
			return
		}
		logger.Error("authentication failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		writeMessage(w, http.StatusInternalServerError, msgAuthError)
	}
}

// DenyMe is DenyJSON for GET /auth/me, where a session naming a missing user
// is reported as 404 rather than 401.
func DenyMe(logger *slog.Logger) auth.DenyFunc {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		reason, ok := auth.FailureReason(err)
		switch {
		case ok && reason == auth.UnknownUser:
			writeMessage(w, http.StatusNotFound, msgUserNotFound)
		case ok:
			writeMessage(w, http.StatusUnauthorized, msgNotAuthenticated)
		default:
			logger.Error("fetching user data", slog.String("error", err.Error()))
			writeMessage(w, http.StatusInternalServerError, msgInternal)
		}
	}
}
