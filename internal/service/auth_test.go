package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/samber/mo"
	"golang.org/x/oauth2"

	"github.com/wapidou/app/internal/apperror"
	"github.com/wapidou/app/internal/auth"
	"github.com/wapidou/app/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory repository.UserRepository. It mimics the
// SQLite upsert: same google_id keeps id and created_at.
type fakeUserRepo struct {
	users    map[int64]*model.User
	byGoogle map[string]*model.User
	nextID   int64
	// set to a non-nil error to simulate a database failure
	upsertErr error
	updateErr error
	findErr   error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:    make(map[int64]*model.User),
		byGoogle: make(map[string]*model.User),
		nextID:   1,
	}
}

func (f *fakeUserRepo) UpsertByGoogleID(_ context.Context, user *model.User) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	now := time.Now().UTC()
	if existing, ok := f.byGoogle[user.GoogleID]; ok {
		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
	} else {
		user.ID = f.nextID
		f.nextID++
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	stored := *user
	f.users[stored.ID] = &stored
	f.byGoogle[stored.GoogleID] = &stored
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) FindByGoogleID(_ context.Context, googleID string) (mo.Option[*model.User], error) {
	if f.findErr != nil {
		return mo.None[*model.User](), f.findErr
	}
	if u, ok := f.byGoogle[googleID]; ok {
		return mo.Some(u), nil
	}
	return mo.None[*model.User](), nil
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, id int64, p model.ProfileUpdate, at time.Time) (*model.User, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Picture != nil {
		u.Picture = p.Picture
	}
	u.UpdatedAt = at
	cp := *u
	return &cp, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func googleLogin(id, email, name string) *auth.GoogleLogin {
	return &auth.GoogleLogin{
		Token: &oauth2.Token{
			AccessToken:  "ya29.access-" + id,
			RefreshToken: "1//refresh-" + id,
			Expiry:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		Profile: auth.GoogleProfile{
			ID:            id,
			Email:         email,
			VerifiedEmail: true,
			Name:          name,
			Picture:       "https://example.com/" + id + ".png",
			Locale:        "en_gb",
		},
	}
}

// =========================================================================
// LoginWithGoogle TESTS
// =========================================================================

func TestLoginWithGoogle_NewUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, nil, testLogger())

	user, err := svc.LoginWithGoogle(context.Background(), googleLogin("g1", "alice@example.com", "Alice"))
	if err != nil {
		t.Fatalf("LoginWithGoogle() error = %v", err)
	}

	if user.ID == 0 {
		t.Error("User.ID should be set after upsert")
	}
	if user.GoogleID != "g1" || user.Email != "alice@example.com" || user.Name != "Alice" {
		t.Errorf("unexpected user %+v", user)
	}
	if user.AccessToken != "ya29.access-g1" {
		t.Errorf("AccessToken = %q, want plaintext without a sealer", user.AccessToken)
	}
	if user.RefreshToken == nil || *user.RefreshToken != "1//refresh-g1" {
		t.Errorf("RefreshToken = %v", user.RefreshToken)
	}
	if user.ExpiresAt == nil || user.ExpiresAt.Year() != 2030 {
		t.Errorf("ExpiresAt = %v", user.ExpiresAt)
	}
	if user.Locale == nil || *user.Locale != "en-GB" {
		t.Errorf("Locale = %v, want en-GB", user.Locale)
	}
	if !user.VerifiedEmail {
		t.Error("VerifiedEmail should be copied from the profile")
	}
}

func TestLoginWithGoogle_SecondLoginKeepsID(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, nil, testLogger())

	first, err := svc.LoginWithGoogle(context.Background(), googleLogin("g1", "a@example.com", "A"))
	if err != nil {
		t.Fatalf("first login error: %v", err)
	}
	second, err := svc.LoginWithGoogle(context.Background(), googleLogin("g1", "a@example.com", "A2"))
	if err != nil {
		t.Fatalf("second login error: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("ID changed across logins: %d → %d", first.ID, second.ID)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Error("CreatedAt changed across logins")
	}
	if second.Name != "A2" {
		t.Errorf("Name = %q, want A2", second.Name)
	}
	if len(repo.users) != 1 {
		t.Errorf("repo holds %d users, want 1", len(repo.users))
	}
}

func TestLoginWithGoogle_SealsTokens(t *testing.T) {
	sealer, err := auth.NewSealer(strings.Repeat("ab", 32))
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	svc := NewAuthService(newFakeUserRepo(), sealer, testLogger())

	user, err := svc.LoginWithGoogle(context.Background(), googleLogin("g1", "a@example.com", "A"))
	if err != nil {
		t.Fatalf("LoginWithGoogle() error = %v", err)
	}

	if !strings.HasPrefix(user.AccessToken, "v1.") {
		t.Errorf("AccessToken = %q, want sealed", user.AccessToken)
	}
	if strings.Contains(user.AccessToken, "access-g1") {
		t.Errorf("AccessToken %q leaks the plaintext", user.AccessToken)
	}
	if user.RefreshToken == nil || !strings.HasPrefix(*user.RefreshToken, "v1.") {
		t.Errorf("RefreshToken = %v, want sealed", user.RefreshToken)
	}
}

func TestLoginWithGoogle_NameFallsBackToEmail(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), nil, testLogger())

	user, err := svc.LoginWithGoogle(context.Background(), googleLogin("g1", "a@example.com", ""))
	if err != nil {
		t.Fatalf("LoginWithGoogle() error = %v", err)
	}
	if user.Name != "a@example.com" {
		t.Errorf("Name = %q, want email fallback", user.Name)
	}
}

func TestLoginWithGoogle_InvalidLogins(t *testing.T) {
	noToken := googleLogin("g1", "a@example.com", "A")
	noToken.Token.AccessToken = ""

	tests := []struct {
		name           string
		login          *auth.GoogleLogin
		wantValidation bool
	}{
		{name: "nil login", login: nil},
		{name: "nil token", login: &auth.GoogleLogin{Profile: auth.GoogleProfile{ID: "g", Email: "e@x.com"}}},
		{name: "empty access token", login: noToken},
		{name: "missing email", login: googleLogin("g1", "", "A"), wantValidation: true},
		{name: "missing id", login: googleLogin("", "a@example.com", "A"), wantValidation: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeUserRepo()
			svc := NewAuthService(repo, nil, testLogger())

			_, err := svc.LoginWithGoogle(context.Background(), tt.login)
			if err == nil {
				t.Fatal("LoginWithGoogle() should fail")
			}
			if got := errors.Is(err, apperror.ErrValidation); got != tt.wantValidation {
				t.Errorf("errors.Is(err, ErrValidation) = %v, want %v (err=%v)", got, tt.wantValidation, err)
			}
			if !tt.wantValidation && !errors.Is(err, ErrMissingToken) {
				t.Errorf("err = %v, want ErrMissingToken", err)
			}
			if len(repo.users) != 0 {
				t.Error("nothing should be stored for an invalid login")
			}
		})
	}
}

func TestLoginWithGoogle_RepositoryError(t *testing.T) {
	repo := newFakeUserRepo()
	repo.upsertErr = errors.New("database is on fire")
	svc := NewAuthService(repo, nil, testLogger())

	_, err := svc.LoginWithGoogle(context.Background(), googleLogin("g1", "a@example.com", "A"))
	if err == nil {
		t.Fatal("LoginWithGoogle() should propagate repository errors")
	}
	if errors.Is(err, apperror.ErrValidation) {
		t.Error("store failures must not look like validation errors")
	}
}

func TestNormalizeLocale(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"en", "en"},
		{"fr-fr", "fr-FR"},
		{"pt_BR", "pt-BR"},
		{"", ""},
		{"!!", ""},
	}
	for _, tt := range tests {
		got := normalizeLocale(tt.in)
		if tt.want == "" {
			if got != nil {
				t.Errorf("normalizeLocale(%q) = %q, want nil", tt.in, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("normalizeLocale(%q) = %v, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoginWithGoogle_KeepsRefreshTokenWhenGoogleOmitsIt(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, nil, testLogger())

	if _, err := svc.LoginWithGoogle(context.Background(), googleLogin("g1", "a@example.com", "A")); err != nil {
		t.Fatalf("first login error: %v", err)
	}

	again := googleLogin("g1", "a@example.com", "A")
	again.Token.RefreshToken = ""
	user, err := svc.LoginWithGoogle(context.Background(), again)
	if err != nil {
		t.Fatalf("second login error: %v", err)
	}

	if user.RefreshToken == nil || *user.RefreshToken != "1//refresh-g1" {
		t.Errorf("RefreshToken = %v, want the one from the first login", user.RefreshToken)
	}
}

func TestLoginWithGoogle_NewUserWithoutRefreshToken(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), nil, testLogger())

	login := googleLogin("g1", "a@example.com", "A")
	login.Token.RefreshToken = ""
	user, err := svc.LoginWithGoogle(context.Background(), login)
	if err != nil {
		t.Fatalf("LoginWithGoogle() error = %v", err)
	}
	if user.RefreshToken != nil {
		t.Errorf("RefreshToken = %q, want nil", *user.RefreshToken)
	}
}

func TestLoginWithGoogle_LogsNewAndReturningUsers(t *testing.T) {
	var buf bytes.Buffer
	svc := NewAuthService(newFakeUserRepo(), nil, slog.New(slog.NewTextHandler(&buf, nil)))

	for range 2 {
		if _, err := svc.LoginWithGoogle(context.Background(), googleLogin("g1", "a@example.com", "A")); err != nil {
			t.Fatalf("LoginWithGoogle() error = %v", err)
		}
	}

	out := buf.String()
	if strings.Count(out, "new user registered via Google") != 1 {
		t.Errorf("want exactly one registration line:\n%s", out)
	}
	if strings.Count(out, "user authenticated via Google") != 1 {
		t.Errorf("want exactly one returning-user line:\n%s", out)
	}
}

func TestLoginWithGoogle_LookupError(t *testing.T) {
	repo := newFakeUserRepo()
	repo.findErr = errors.New("database is locked")
	svc := NewAuthService(repo, nil, testLogger())

	_, err := svc.LoginWithGoogle(context.Background(), googleLogin("g1", "a@example.com", "A"))
	if !errors.Is(err, repo.findErr) {
		t.Fatalf("error = %v, want the lookup failure", err)
	}
	if errors.Is(err, apperror.ErrValidation) {
		t.Error("a store failure must not look like a validation error")
	}
	if len(repo.users) != 0 {
		t.Error("nothing may be stored after a failed lookup")
	}
}
