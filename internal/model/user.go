// Package model defines the data structures used throughout the application.
package model

import "time"

// User is an account linked to a Google identity.
//
// ID is assigned by the store (INTEGER PRIMARY KEY) and is what the session
// cookie carries. GoogleID is the provider's stable subject identifier; the
// UNIQUE constraint on google_id makes the login upsert atomic. Email is
// unique as well.
//
// Nullable columns are pointers so that NULL survives a round trip through
// sqlx.
type User struct {
	ID            int64      `json:"id"            db:"id"`
	GoogleID      string     `json:"googleId"      db:"google_id"`
	Email         string     `json:"email"         db:"email"`
	Name          string     `json:"name"          db:"name"`
	GivenName     *string    `json:"givenName"     db:"given_name"`
	FamilyName    *string    `json:"familyName"    db:"family_name"`
	Picture       *string    `json:"picture"       db:"picture"`
	Locale        *string    `json:"locale"        db:"locale"`
	VerifiedEmail bool       `json:"verifiedEmail" db:"verified_email"`
	AccessToken   string     `json:"-"             db:"access_token"`  // sealed at rest when a key is configured
	RefreshToken  *string    `json:"-"             db:"refresh_token"` // sealed at rest when a key is configured
	ExpiresAt     *time.Time `json:"expiresAt"     db:"expires_at"`
	CreatedAt     time.Time  `json:"createdAt"     db:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt"     db:"updated_at"`
}

// ProfileUpdate carries the only user fields a client may edit.
// A nil field is left untouched.
type ProfileUpdate struct {
	Name    *string
	Email   *string
	Picture *string
}

// Empty reports whether no field is set.
func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Picture == nil
}
