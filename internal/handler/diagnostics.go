package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/wapidou/app/internal/api"
	"github.com/wapidou/app/internal/auth"
	"github.com/wapidou/app/internal/model"
	"github.com/wapidou/app/internal/service"
)

// DiagnosticsRunner collects database metadata for a user.
type DiagnosticsRunner interface {
	Run(ctx context.Context, user *model.User) (*service.Diagnostics, error)
}

type DiagnosticsHandler struct {
	diag   DiagnosticsRunner
	logger *slog.Logger
}

func NewDiagnosticsHandler(diag DiagnosticsRunner, logger *slog.Logger) *DiagnosticsHandler {
	return &DiagnosticsHandler{diag: diag, logger: logger}
}

// HandleDBTesting reports the SQLite version and table list.
//
// HTTP: GET /api/db/testing
// Auth: required (DenyJSON)
func (h *DiagnosticsHandler) HandleDBTesting(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, msgNotAuthenticated)
		return
	}

	d, err := h.diag.Run(r.Context(), user)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	tables := make([]api.TableInfo, 0, len(d.Tables))
	for _, t := range d.Tables {
		tables = append(tables, api.TableInfo(t))
	}

	writeJSON(w, http.StatusOK, api.DBTestResponse{
		SQLiteVersion: []string{d.SQLiteVersion},
		Tables:        tables,
		User:          api.DBTestUser{ID: user.ID, Name: user.Name, Email: user.Email},
	})
}
