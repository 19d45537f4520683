package auth

import (
	"net/http"
	"strconv"
	"time"
)

// SessionCookieName is the cookie carrying the bare internal user id.
const SessionCookieName = "user-id"

// SessionMaxAge is how long the browser keeps the session cookie. Nothing on
// the server expires sessions beyond this.
const SessionMaxAge = 7 * 24 * time.Hour

// SetSession writes the session cookie for userID.
func SetSession(w http.ResponseWriter, userID int64, secure bool) {
	http.SetCookie(w, sessionCookie(strconv.FormatInt(userID, 10), int(SessionMaxAge.Seconds()), secure))
}

// ClearSession expires the session cookie. It is written with the same
// attributes as SetSession so the browser replaces the original.
func ClearSession(w http.ResponseWriter, secure bool) {
	// MaxAge < 0 is rendered as "Max-Age=0".
	http.SetCookie(w, sessionCookie("", -1, secure))
}

func sessionCookie(value string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// sessionUserID reads the session cookie. ok is false when the cookie is
// absent; err is set when it is present but not a positive integer.
func sessionUserID(r *http.Request) (id int64, ok bool, err error) {
	cookie, cerr := r.Cookie(SessionCookieName)
	if cerr != nil || cookie.Value == "" {
		return 0, false, nil
	}
	id, err = strconv.ParseInt(cookie.Value, 10, 64)
	if err != nil {
		return 0, true, err
	}
	if id <= 0 {
		return 0, true, strconv.ErrRange
	}
	return id, true, nil
}
