// Package notify delivers best-effort email notifications.
package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendEndpoint = "/v3/mail/send"

// Message is one outgoing email.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a single message synchronously.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SendGridSender sends through the SendGrid v3 mail API.
type SendGridSender struct {
	apiKey string
	from   *mail.Email
	host   string
}

// SendGridOption customises a SendGridSender.
type SendGridOption func(*SendGridSender)

// WithHost points the sender at another API host, e.g. an httptest server.
func WithHost(host string) SendGridOption {
	return func(s *SendGridSender) { s.host = host }
}

func NewSendGridSender(apiKey, fromAddress string, opts ...SendGridOption) *SendGridSender {
	s := &SendGridSender{
		apiKey: apiKey,
		from:   mail.NewEmail("Wapidou", fromAddress),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	m := mail.NewSingleEmail(s.from, msg.Subject, mail.NewEmail(msg.ToName, msg.To), msg.Text, msg.HTML)

	// sendgrid.Client keeps the body on the shared request, so each send
	// gets its own client.
	req := sendgrid.GetRequest(s.apiKey, sendEndpoint, s.host)
	req.Method = "POST"
	client := &sendgrid.Client{Request: req}

	resp, err := client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("notify: sendgrid request: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("notify: sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
