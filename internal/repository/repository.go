// Package repository declares the storage contracts the service layer depends on.
package repository

import (
	"context"
	"time"

	"github.com/samber/mo"

	"github.com/wapidou/app/internal/model"
)

type UserRepository interface {
	// UpsertByGoogleID inserts the user or, when a row with the same
	// google_id exists, refreshes its profile and token fields. The row's id
	// and created_at are preserved. On return user reflects the stored row.
	UpsertByGoogleID(ctx context.Context, user *model.User) error
	// GetUserByID returns apperror.ErrNotFound when no row matches.
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	FindByGoogleID(ctx context.Context, googleID string) (mo.Option[*model.User], error)
	// UpdateProfile applies the non-nil fields of p and sets updated_at.
	// Token columns, google_id and created_at are never written.
	UpdateProfile(ctx context.Context, id int64, p model.ProfileUpdate, at time.Time) (*model.User, error)
}

type DiagnosticsRepository interface {
	SQLiteVersion(ctx context.Context) (string, error)
	ListTables(ctx context.Context) ([]model.TableInfo, error)
}
