// Package email sends the account lifecycle messages.
package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

type message struct {
	subject string
	text    string
	html    string
}

func welcome(name string) message {
	return message{
		subject: fmt.Sprintf("Welcome, %s", name),
		text:    fmt.Sprintf("Hey %s, Welcome to Task Manager.", name),
		html:    fmt.Sprintf("<strong>Hey %s</strong>, welcome to Task Manager.", name),
	}
}

func cancellation(name string) message {
	return message{
		subject: fmt.Sprintf("Thank you, %s", name),
		text:    fmt.Sprintf("Hey %s, thanks for the wonderful support till date. Any last feedback before we part ways?", name),
		html:    fmt.Sprintf("<strong>Hey %s</strong>, thanks for the wonderful support till date. Any last feedback before we part ways?", name),
	}
}

// SendGridMailer delivers through the SendGrid v3 API.
type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridMailer(apiKey, fromName, fromAddress string) *SendGridMailer {
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromAddress),
	}
}

func (m *SendGridMailer) SendWelcome(ctx context.Context, email, name string) error {
	return m.send(ctx, email, name, welcome(name))
}

func (m *SendGridMailer) SendCancellation(ctx context.Context, email, name string) error {
	return m.send(ctx, email, name, cancellation(name))
}

func (m *SendGridMailer) send(ctx context.Context, email, name string, msg message) error {
	to := mail.NewEmail(name, email)
	body := mail.NewSingleEmail(m.from, msg.subject, to, msg.text, msg.html)

	resp, err := m.client.SendWithContext(ctx, body)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: unexpected status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogMailer only logs; it stands in when no API key is configured.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendWelcome(_ context.Context, email, name string) error {
	m.log(email, welcome(name))
	return nil
}

func (m *LogMailer) SendCancellation(_ context.Context, email, name string) error {
	m.log(email, cancellation(name))
	return nil
}

func (m *LogMailer) log(email string, msg message) {
	m.logger.Info("email not sent, no provider configured",
		zap.String("to", email),
		zap.String("subject", msg.subject),
	)
}
