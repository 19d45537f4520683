package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetSession(t *testing.T) {
	rr := httptest.NewRecorder()
	SetSession(rr, 42, true)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]

	assert.Equal(t, SessionCookieName, c.Name)
	assert.Equal(t, "42", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 7*24*60*60, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestSetSession_NotSecureOutsideProduction(t *testing.T) {
	rr := httptest.NewRecorder()
	SetSession(rr, 1, false)

	assert.NotContains(t, rr.Header().Get("Set-Cookie"), "Secure")
}

func TestClearSession(t *testing.T) {
	rr := httptest.NewRecorder()
	ClearSession(rr, false)

	header := rr.Header().Get("Set-Cookie")
	assert.Contains(t, header, SessionCookieName+"=;")
	assert.Contains(t, header, "Max-Age=0")
	assert.Contains(t, header, "HttpOnly")
	assert.Contains(t, header, "SameSite=Lax")
}
