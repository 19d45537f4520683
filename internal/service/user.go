package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/wapidou/app/internal/api"
	"github.com/wapidou/app/internal/apperror"
	"github.com/wapidou/app/internal/model"
	"github.com/wapidou/app/internal/repository"
)

// ValidationError lists every rejected field of a request body. It matches
// apperror.ErrValidation under errors.Is.
type ValidationError struct {
	Fields []api.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return apperror.ErrValidation
}

// ProfileService reads and edits the signed-in user's own profile.
type ProfileService struct {
	users    repository.UserRepository
	validate *validator.Validate
	now      func() time.Time
	logger   *slog.Logger
}

func NewProfileService(users repository.UserRepository, logger *slog.Logger) *ProfileService {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names ("name") rather than Go ones ("Name").
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &ProfileService{
		users:    users,
		validate: v,
		now:      time.Now,
		logger:   logger,
	}
}

// UpdateProfile validates req and applies its non-nil fields to user id.
// An empty request only bumps updated_at.
//
// Returns *ValidationError for bad input and apperror.ErrNotFound when the
// row vanished between authentication and the update.
func (s *ProfileService) UpdateProfile(ctx context.Context, id int64, req api.ProfileUpdateRequest) (*model.User, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.users.UpdateProfile(ctx, id, req.ToModel(), s.now())
	if err != nil {
		return nil, fmt.Errorf("service/profile: updating user %d: %w", id, err)
	}

	s.logger.Info("profile updated", slog.Int64("userID", id))
	return user, nil
}

// Validate checks req against its struct tags.
func (s *ProfileService) Validate(req api.ProfileUpdateRequest) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("service/profile: validating request: %w", err)
	}

	out := &ValidationError{Fields: make([]api.FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, api.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "http_url":
		return "must be an http or https URL"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}
