package auth

import (
	"context"
	"net/http"

	"github.com/wapidou/app/internal/model"
)

// contextKey is unexported so no other package can read or shadow our values.
type contextKey string

const userKey contextKey = "user"

// DenyFunc renders a rejected request. err is either a *Failure (no usable
// session) or a store error.
type DenyFunc func(w http.ResponseWriter, r *http.Request, err error)

// Require is a middleware that lets a request through only when
// authn.Authenticate succeeds, storing the resolved user in the request
// context. Rejections are rendered by deny, so each route family chooses its
// own response shape while sharing one session check.
func Require(authn *Authenticator, deny DenyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authn.Authenticate(r)
			if err != nil {
				deny(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the user attached by Require.
//
//	user, ok := auth.UserFromContext(r.Context())
//	if !ok {
//	    // route is not behind Require
//	}
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}
