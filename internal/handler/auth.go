package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/wapidou/app/internal/apperror"
	"github.com/wapidou/app/internal/auth"
	"github.com/wapidou/app/internal/model"
	"github.com/wapidou/app/internal/service"
)

const (
	msgGoogleNotConfigured = "Server is not configured for Google OAuth"
	msgAuthNotConfigured   = "Server is not configured for authentication"
)

// OAuthProvider is the part of *auth.GoogleProvider the handlers use.
type OAuthProvider interface {
	Configured() bool
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GoogleLogin, error)
}

// LoginService turns a completed OAuth exchange into a stored user.
type LoginService interface {
	LoginWithGoogle(ctx context.Context, login *auth.GoogleLogin) (*model.User, error)
}

// AuthHandler manages the Google OAuth login flow and the session cookie.
//
// HANDLER RESPONSIBILITIES:
//   - HandleGoogleLogin    → redirect the browser to Google's consent screen
//   - HandleGoogleCallback → exchange the code, upsert the user, set the session
//   - HandleLogout         → clear the session cookie
//
// All three refuse to run (plain-text 500) when the OAuth client credentials
// are not configured.
type AuthHandler struct {
	google OAuthProvider
	state  *auth.StateSigner
	logins LoginService
	secure bool
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. secure marks cookies Secure and
// should be true in production.
func NewAuthHandler(
	google OAuthProvider,
	state *auth.StateSigner,
	logins LoginService,
	secure bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		google: google,
		state:  state,
		logins: logins,
		secure: secure,
		logger: logger,
	}
}

// requireConfigured returns an apperror.ErrConfiguration error carrying msg
// when the OAuth client credentials are missing.
func (h *AuthHandler) requireConfigured(msg string) error {
	if h.google.Configured() {
		return nil
	}
	return apperror.Misconfigured(msg)
}

// misconfigured answers in plain text; these routes are browser navigations,
// not API calls.
func (h *AuthHandler) misconfigured(w http.ResponseWriter, err error) {
	h.logger.Error("auth route called without OAuth credentials", slog.String("error", err.Error()))
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// HandleGoogleLogin redirects the user to Google's authorization page.
//
// HTTP: GET /auth/google
//
// A fresh nonce goes to Google as the state parameter and, signed, into a
// short-lived cookie. The callback only proceeds when both agree.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if err := h.requireConfigured(msgGoogleNotConfigured); err != nil {
		h.misconfigured(w, err)
		return
	}

	nonce, token, err := h.state.Issue()
	if err != nil {
		h.logger.Error("auth login: issuing state", slog.String("error", err.Error()))
		http.Error(w, "Authentication failed", http.StatusInternalServerError)
		return
	}
	auth.SetStateCookie(w, token, h.secure)

	http.Redirect(w, r, h.google.AuthURL(nonce), http.StatusFound)
}

// HandleGoogleCallback completes the OAuth login flow.
//
// HTTP: GET /auth/google/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Check the state parameter against the signed state cookie
//  2. Exchange the code for a token and the Google profile
//  3. Upsert the user keyed on the Google id
//  4. Set the user-id session cookie
//  5. Redirect to the app home page
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if err := h.requireConfigured(msgGoogleNotConfigured); err != nil {
		h.misconfigured(w, err)
		return
	}

	// --- Step 1: CSRF state ---
	if err := h.state.CheckState(r); err != nil {
		h.logger.Warn("auth callback: rejected state", slog.String("error", err.Error()))
		http.Error(w, "Invalid OAuth state", http.StatusBadRequest)
		return
	}
	auth.ClearStateCookie(w, h.secure)

	// The user declined on the consent screen.
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: authorization denied", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusFound)
		return
	}

	// --- Step 2: exchange ---
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Missing OAuth code", http.StatusBadRequest)
		return
	}

	login, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: Google exchange failed", slog.String("error", err.Error()))
		http.Error(w, "Authentication failed: missing OAuth data", http.StatusInternalServerError)
		return
	}

	// --- Step 3: upsert ---
	user, err := h.logins.LoginWithGoogle(r.Context(), login)
	if err != nil {
		h.loginFailed(w, err)
		return
	}

	// --- Step 4 and 5 ---
	auth.SetSession(w, user.ID, h.secure)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandler) loginFailed(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError

	switch {
	case errors.Is(err, service.ErrMissingToken):
		h.logger.Error("auth callback: missing token", slog.String("error", err.Error()))
		http.Error(w, "Authentication failed: missing OAuth data", http.StatusInternalServerError)
	case errors.Is(err, apperror.ErrValidation) && errors.As(err, &appErr):
		h.logger.Warn("auth callback: incomplete profile", slog.String("field", appErr.Field))
		msg := "Authentication failed: missing email"
		if appErr.Field == "id" {
			msg = "Authentication failed: missing Google ID"
		}
		http.Error(w, msg, http.StatusBadRequest)
	default:
		h.logger.Error("auth callback: storing user failed", slog.String("error", err.Error()))
		http.Error(w, "Authentication failed: database error", http.StatusInternalServerError)
	}
}

// HandleLogout clears the session cookie and goes home.
//
// HTTP: GET /auth/logout
//
// There is no server-side session to revoke; dropping the cookie is the
// whole logout.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.requireConfigured(msgAuthNotConfigured); err != nil {
		h.misconfigured(w, err)
		return
	}

	auth.ClearSession(w, h.secure)
	http.Redirect(w, r, "/", http.StatusFound)
}
