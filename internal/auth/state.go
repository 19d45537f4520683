package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

const (
	stateCookieName = "oauth_state"
	stateIssuer     = "wapidou"
	stateTTL        = 10 * time.Minute
)

// StateSigner issues and checks the OAuth state cookie.
//
// The cookie holds an HS256 JWT whose subject is a random nonce. The same
// nonce travels to Google as the state parameter; on callback the two must
// match and the JWT must be unexpired and correctly signed. Nothing is kept
// server side.
type StateSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewStateSigner creates a signer. An empty secret is replaced by 32 random
// bytes, which means pending logins do not survive a restart.
func NewStateSigner(secret string) (*StateSigner, error) {
	if secret == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("auth: generating state secret: %w", err)
		}
		return &StateSigner{secret: key, ttl: stateTTL}, nil
	}
	if len(secret) < 16 {
		return nil, errors.New("auth: state secret must be at least 16 characters")
	}
	return &StateSigner{secret: []byte(secret), ttl: stateTTL}, nil
}

// Issue returns a fresh nonce and its signed token.
func (s *StateSigner) Issue() (nonce, token string, err error) {
	return s.issueWithTTL(s.ttl)
}

func (s *StateSigner) issueWithTTL(ttl time.Duration) (string, string, error) {
	now := time.Now()
	nonce := xid.New().String()

	c := jwt.RegisteredClaims{
		Subject:   nonce,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		Issuer:    stateIssuer,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("auth: signing state: %w", err)
	}
	return nonce, signed, nil
}

// Verify checks token and returns the nonce it carries.
func (s *StateSigner) Verify(token string) (string, error) {
	var c jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(stateIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errors.New("auth: state expired")
		}
		return "", fmt.Errorf("auth: invalid state: %w", err)
	}
	if !parsed.Valid || c.Subject == "" {
		return "", errors.New("auth: invalid state claims")
	}
	return c.Subject, nil
}

// SetStateCookie stores token for the callback to check.
func SetStateCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    token,
		Path:     "/auth/google",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearStateCookie drops the single-use state cookie.
func ClearStateCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/auth/google",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// CheckState verifies the state cookie on r against the state query
// parameter Google echoed back.
func (s *StateSigner) CheckState(r *http.Request) error {
	cookie, err := r.Cookie(stateCookieName)
	if err != nil || cookie.Value == "" {
		return errors.New("auth: missing state cookie")
	}
	nonce, err := s.Verify(cookie.Value)
	if err != nil {
		return err
	}
	if got := r.URL.Query().Get("state"); got == "" || got != nonce {
		return errors.New("auth: state mismatch")
	}
	return nil
}
