// Package service holds the business rules. Handlers translate HTTP into
// calls on these services; services talk to the repository interfaces and
// never see a request or a response writer.
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ Sealer (token encryption)
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/language"

	"github.com/wapidou/app/internal/apperror"
	"github.com/wapidou/app/internal/auth"
	"github.com/wapidou/app/internal/model"
	"github.com/wapidou/app/internal/repository"
)

// ErrMissingToken means the provider completed the exchange without handing
// out an access token. It is an internal failure, not a client error.
var ErrMissingToken = errors.New("service/auth: provider returned no access token")

// AuthService turns a completed Google login into a stored user.
type AuthService struct {
	users  repository.UserRepository
	sealer *auth.Sealer
	logger *slog.Logger
}

// NewAuthService creates an AuthService. A nil sealer stores tokens as is.
func NewAuthService(users repository.UserRepository, sealer *auth.Sealer, logger *slog.Logger) *AuthService {
	return &AuthService{users: users, sealer: sealer, logger: logger}
}

// LoginWithGoogle upserts the user behind login, keyed on the Google id.
//
// First login inserts a row; later logins refresh the profile and token
// columns of the same row, keeping its internal id and created_at. A login
// without a refresh token keeps the one already stored. The
// returned user is the stored row, so its ID is what the session cookie
// should carry.
//
// Errors:
//   - ErrMissingToken when there is no access token
//   - apperror.ErrValidation when the profile lacks an email or an id
//   - anything else is a store failure
func (s *AuthService) LoginWithGoogle(ctx context.Context, login *auth.GoogleLogin) (*model.User, error) {
	if login == nil || login.Token == nil || login.Token.AccessToken == "" {
		return nil, ErrMissingToken
	}

	p := login.Profile
	if strings.TrimSpace(p.Email) == "" {
		return nil, apperror.ValidationFailed("email", "Google profile has no email")
	}
	if strings.TrimSpace(p.ID) == "" {
		return nil, apperror.ValidationFailed("id", "Google profile has no id")
	}

	existing, err := s.users.FindByGoogleID(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: looking up user (googleID=%s): %w", p.ID, err)
	}

	accessToken, err := s.sealer.Seal(login.Token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("service/auth: sealing access token: %w", err)
	}

	user := &model.User{
		GoogleID:      p.ID,
		Email:         p.Email,
		Name:          displayName(p),
		GivenName:     optional(p.GivenName),
		FamilyName:    optional(p.FamilyName),
		Picture:       optional(p.Picture),
		Locale:        normalizeLocale(p.Locale),
		VerifiedEmail: p.VerifiedEmail,
		AccessToken:   accessToken,
	}

	if rt := login.Token.RefreshToken; rt != "" {
		sealed, err := s.sealer.Seal(rt)
		if err != nil {
			return nil, fmt.Errorf("service/auth: sealing refresh token: %w", err)
		}
		user.RefreshToken = &sealed
	} else if prev, ok := existing.Get(); ok {
		// Google only issues a refresh token on first consent.
		user.RefreshToken = prev.RefreshToken
	}
	if exp := login.Token.Expiry; !exp.IsZero() {
		exp = exp.UTC()
		user.ExpiresAt = &exp
	}

	if err := s.users.UpsertByGoogleID(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (googleID=%s): %w", p.ID, err)
	}

	msg := "user authenticated via Google"
	if existing.IsAbsent() {
		msg = "new user registered via Google"
	}
	s.logger.Info(msg,
		slog.Int64("userID", user.ID),
		slog.String("email", user.Email),
	)
	return user, nil
}

// displayName falls back to the email when Google sends no name; the name
// column is NOT NULL.
func displayName(p auth.GoogleProfile) string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return p.Email
}

// normalizeLocale canonicalises a BCP 47 tag ("en_gb" → "en-GB"). Tags that
// do not parse are dropped.
func normalizeLocale(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	tag, err := language.Parse(strings.ReplaceAll(raw, "_", "-"))
	if err != nil {
		return nil
	}
	s := tag.String()
	return &s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
