// Package mailer delivers notification email over SMTP. Delivery is always
// best-effort; callers swallow errors.
package mailer

import (
	"context"
	"log"

	"gopkg.in/gomail.v2"

	"bridge-local-platform/internal/services"
)

// SMTPMailer implements services.Mailer on gomail.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer creates a mailer against the given SMTP endpoint.
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

var _ services.Mailer = (*SMTPMailer)(nil)

// Send delivers one plain-text message.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.dialer.DialAndSend(msg)
}

// LogMailer implements services.Mailer by logging instead of sending. Used
// when no SMTP endpoint is configured.
type LogMailer struct{}

// NewLogMailer creates a mailer that only logs.
func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

var _ services.Mailer = (*LogMailer)(nil)

// Send logs the message instead of delivering it.
func (LogMailer) Send(ctx context.Context, to, subject, body string) error {
	log.Printf("Mailer (log only): to=%s subject=%q", to, subject)
	return nil
}
