package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestStateSigner(t *testing.T) *StateSigner {
	t.Helper()
	s, err := NewStateSigner("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewStateSigner: %v", err)
	}
	return s
}

func TestNewStateSigner_ShortSecret(t *testing.T) {
	if _, err := NewStateSigner("short"); err == nil {
		t.Fatal("NewStateSigner() should reject secrets shorter than 16 chars")
	}
}

func TestNewStateSigner_EmptySecretGeneratesKey(t *testing.T) {
	s, err := NewStateSigner("")
	if err != nil {
		t.Fatalf("NewStateSigner(\"\") error = %v", err)
	}
	if len(s.secret) != 32 {
		t.Errorf("generated secret length = %d, want 32", len(s.secret))
	}
}

func TestStateSigner_RoundTrip(t *testing.T) {
	s := newTestStateSigner(t)

	nonce, token, err := s.Issue()
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("Issue() token does not look like a JWT: %q", token)
	}

	got, err := s.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if got != nonce {
		t.Errorf("Verify() nonce = %q, want %q", got, nonce)
	}
}

func TestStateSigner_Expired(t *testing.T) {
	s := newTestStateSigner(t)

	_, token, err := s.issueWithTTL(-time.Second)
	if err != nil {
		t.Fatalf("issueWithTTL() error = %v", err)
	}
	if _, err := s.Verify(token); err == nil {
		t.Fatal("Verify() should reject an expired state")
	}
}

func TestStateSigner_WrongSecret(t *testing.T) {
	a, _ := NewStateSigner("correct-secret-32-chars-long!!!!")
	b, _ := NewStateSigner("wrong-secret-32-chars-long!!!!!!")

	_, token, _ := a.Issue()
	if _, err := b.Verify(token); err == nil {
		t.Fatal("Verify() should fail with a different secret")
	}
}

func TestStateSigner_Garbage(t *testing.T) {
	s := newTestStateSigner(t)
	for _, in := range []string{"", "not.a.jwt", "x"} {
		if _, err := s.Verify(in); err == nil {
			t.Errorf("Verify(%q) should fail", in)
		}
	}
}

func TestCheckState(t *testing.T) {
	s := newTestStateSigner(t)
	nonce, token, _ := s.Issue()

	tests := []struct {
		name    string
		cookie  string
		query   string
		wantErr bool
	}{
		{name: "matching", cookie: token, query: nonce, wantErr: false},
		{name: "no cookie", cookie: "", query: nonce, wantErr: true},
		{name: "no query state", cookie: token, query: "", wantErr: true},
		{name: "mismatch", cookie: token, query: "other", wantErr: true},
		{name: "tampered cookie", cookie: token[:len(token)-3] + "xxx", query: nonce, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state="+tt.query, nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: stateCookieName, Value: tt.cookie})
			}
			err := s.CheckState(r)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckState() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
