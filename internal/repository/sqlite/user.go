package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"

	"github.com/wapidou/app/internal/apperror"
	"github.com/wapidou/app/internal/model"
	"github.com/wapidou/app/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

var userColumns = strings.Join([]string{
	"id",
	"google_id",
	"email",
	"name",
	"given_name",
	"family_name",
	"picture",
	"locale",
	"verified_email",
	"access_token",
	"refresh_token",
	"expires_at",
	"created_at",
	"updated_at",
}, ", ")

// The conflict target is the UNIQUE google_id column, so concurrent first
// logins for the same Google account collapse into one row. Only profile and
// token columns are refreshed; id and created_at keep their original values.
const upsertUserQuery = `
	INSERT INTO users (
		google_id, email, name, given_name, family_name, picture, locale,
		verified_email, access_token, refresh_token, expires_at,
		created_at, updated_at
	) VALUES (
		:google_id, :email, :name, :given_name, :family_name, :picture, :locale,
		:verified_email, :access_token, :refresh_token, :expires_at,
		:created_at, :updated_at
	)
	ON CONFLICT(google_id) DO UPDATE SET
		email          = excluded.email,
		name           = excluded.name,
		given_name     = excluded.given_name,
		family_name    = excluded.family_name,
		picture        = excluded.picture,
		locale         = excluded.locale,
		verified_email = excluded.verified_email,
		access_token   = excluded.access_token,
		refresh_token  = excluded.refresh_token,
		expires_at     = excluded.expires_at,
		updated_at     = excluded.updated_at`

// UpsertByGoogleID inserts or refreshes the user keyed on google_id and then
// reads the stored row back into user, which fills ID and CreatedAt.
func (db *DB) UpsertByGoogleID(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := db.conn.NamedExecContext(ctx, upsertUserQuery, user); err != nil {
		return fmt.Errorf("sqlite: upserting user (googleID=%s): %w", user.GoogleID, err)
	}

	var stored model.User
	err := db.conn.GetContext(ctx, &stored,
		`SELECT `+userColumns+` FROM users WHERE google_id = ?`, user.GoogleID)
	if err != nil {
		return fmt.Errorf("sqlite: reading back user (googleID=%s): %w", user.GoogleID, err)
	}

	*user = stored
	return nil
}

// GetUserByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User

	err := db.conn.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}

	return &u, nil
}

// FindByGoogleID looks a user up by provider id. Absence is not an error.
func (db *DB) FindByGoogleID(ctx context.Context, googleID string) (mo.Option[*model.User], error) {
	var u model.User

	err := db.conn.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE google_id = ?`, googleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mo.None[*model.User](), nil
		}
		return mo.None[*model.User](), fmt.Errorf("sqlite: getting user by google_id %s: %w", googleID, err)
	}

	return mo.Some(&u), nil
}

// UpdateProfile writes only the provided profile fields plus updated_at.
func (db *DB) UpdateProfile(ctx context.Context, id int64, p model.ProfileUpdate, at time.Time) (*model.User, error) {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)

	if p.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *p.Name)
	}
	if p.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *p.Email)
	}
	if p.Picture != nil {
		sets = append(sets, "picture = ?")
		args = append(args, *p.Picture)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, at.UTC(), id)

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating user %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking update of user %d: %w", id, err)
	}
	if n == 0 {
		return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
	}

	return db.GetUserByID(ctx, id)
}
