// Package api holds the JSON shapes exchanged between the browser and the
// server. The front end in web/public reads and writes exactly these fields.
package api

import "github.com/wapidou/app/internal/model"

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// FieldError describes one rejected field of a request body.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// MeResponse is the public projection of the signed-in user.
type MeResponse struct {
	ID      int64  `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// NewMeResponse projects u. Tokens and provider fields never leave the server.
func NewMeResponse(u *model.User) MeResponse {
	resp := MeResponse{ID: u.ID, Email: u.Email, Name: u.Name}
	if u.Picture != nil {
		resp.Picture = *u.Picture
	}
	return resp
}

// ProfileUpdateRequest is the PATCH /auth/me body. Absent fields are left
// unchanged.
type ProfileUpdateRequest struct {
	Name    *string `json:"name,omitempty"    validate:"omitempty,min=1,max=100"`
	Email   *string `json:"email,omitempty"   validate:"omitempty,email,max=255"`
	Picture *string `json:"picture,omitempty" validate:"omitempty,http_url,max=500"`
}

// ToModel converts the request into a store update.
func (r ProfileUpdateRequest) ToModel() model.ProfileUpdate {
	return model.ProfileUpdate{Name: r.Name, Email: r.Email, Picture: r.Picture}
}

// DBTestUser identifies who ran the diagnostics.
type DBTestUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TableInfo is one row of PRAGMA table_list.
type TableInfo struct {
	Schema       string `json:"schema"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Columns      int    `json:"ncol"`
	WithoutRowID bool   `json:"wr"`
	Strict       bool   `json:"strict"`
}

// DBTestResponse is the body of GET /api/db/testing. SQLiteVersion is a
// one-element list.
type DBTestResponse struct {
	SQLiteVersion []string    `json:"sqlite_version"`
	Tables        []TableInfo `json:"tables"`
	User          DBTestUser  `json:"user"`
}
