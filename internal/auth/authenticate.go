// Package auth resolves the signed-in user: Google OAuth, the signed state
// cookie, the user-id session cookie and the middleware that checks it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/wapidou/app/internal/apperror"
	"github.com/wapidou/app/internal/model"
)

// Reason says why a request carries no usable session.
type Reason int

const (
	// NoSession: the session cookie is absent or empty.
	NoSession Reason = iota + 1
	// MalformedSession: the cookie is not a positive integer.
	MalformedSession
	// UnknownUser: the cookie names a user id with no row.
	UnknownUser
)

func (r Reason) String() string {
	switch r {
	case NoSession:
		return "no session"
	case MalformedSession:
		return "malformed session"
	case UnknownUser:
		return "unknown user"
	default:
		return "unknown reason"
	}
}

// Failure is the error Authenticate returns for an unauthenticated request.
// It matches apperror.ErrUnauthenticated under errors.Is. Any other error from
// Authenticate is a store failure.
type Failure struct {
	Reason Reason
}

func (f *Failure) Error() string {
	return "auth: " + f.Reason.String()
}

func (f *Failure) Unwrap() error {
	return apperror.ErrUnauthenticated
}

// FailureReason extracts the Reason from err, if it is a *Failure.
func FailureReason(err error) (Reason, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason, true
	}
	return 0, false
}

// UserLookup is the slice of the user store the authenticator needs.
type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// Authenticator resolves the session cookie to a stored user. It queries the
// store on every call.
type Authenticator struct {
	users UserLookup
}

func NewAuthenticator(users UserLookup) *Authenticator {
	return &Authenticator{users: users}
}

// Authenticate returns the user whose internal id equals the session cookie.
func (a *Authenticator) Authenticate(r *http.Request) (*model.User, error) {
	id, present, err := sessionUserID(r)
	if !present {
		return nil, &Failure{Reason: NoSession}
	}
	if err != nil {
		return nil, &Failure{Reason: MalformedSession}
	}

	user, err := a.users.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, &Failure{Reason: UnknownUser}
		}
		return nil, fmt.Errorf("auth: resolving session for user %d: %w", id, err)
	}
	return user, nil
}
