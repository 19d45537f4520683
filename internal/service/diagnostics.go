package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/wapidou/app/internal/model"
	"github.com/wapidou/app/internal/notify"
	"github.com/wapidou/app/internal/repository"
)

const accessSubject = "Database Test Access Notification"

var accessHTML = template.Must(template.New("access").Parse(
	`<p>Hello {{.Name}},</p>
<p>You have accessed the database testing endpoint at {{.At}}.</p>
<p>This is an automated notification for security purposes.</p>
<p>Best regards,<br>The Wapidou Team</p>`))

// Notifier queues an email without waiting for delivery.
type Notifier interface {
	Notify(msg notify.Message)
}

// Diagnostics is what the database test endpoint reports.
type Diagnostics struct {
	SQLiteVersion string
	Tables        []model.TableInfo
}

// DiagnosticsService reads engine metadata and tells the user it was read.
type DiagnosticsService struct {
	db       repository.DiagnosticsRepository
	notifier Notifier
	now      func() time.Time
	logger   *slog.Logger
}

func NewDiagnosticsService(db repository.DiagnosticsRepository, notifier Notifier, logger *slog.Logger) *DiagnosticsService {
	return &DiagnosticsService{db: db, notifier: notifier, now: time.Now, logger: logger}
}

// Run collects the SQLite version and table list, then queues an access
// notification to user. The notification never delays or fails the call.
func (s *DiagnosticsService) Run(ctx context.Context, user *model.User) (*Diagnostics, error) {
	version, err := s.db.SQLiteVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/diagnostics: %w", err)
	}

	tables, err := s.db.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/diagnostics: %w", err)
	}

	s.notifyAccess(user)

	return &Diagnostics{SQLiteVersion: version, Tables: tables}, nil
}

func (s *DiagnosticsService) notifyAccess(user *model.User) {
	at := s.now().UTC().Format(time.RFC3339Nano)

	var html bytes.Buffer
	if err := accessHTML.Execute(&html, struct{ Name, At string }{user.Name, at}); err != nil {
		s.logger.Error("rendering access notification", slog.String("error", err.Error()))
		return
	}

	s.notifier.Notify(notify.Message{
		To:      user.Email,
		ToName:  user.Name,
		Subject: accessSubject,
		Text: fmt.Sprintf("Hello %s,\n\nYou have accessed the database testing endpoint at %s.\n\n"+
			"This is an automated notification for security purposes.\n\nBest regards,\nThe Wapidou Team",
			user.Name, at),
		HTML: html.String(),
	})
}
