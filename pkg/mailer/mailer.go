package mailer

import (
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/sajib9090/restaurant-management-backend/pkg/config"
)

// Email is the message contract of the mail collaborator.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// Mailer sends e-mails. Failures are reported to the caller but must
// never roll back the action that triggered the e-mail.
type Mailer interface {
	Send(email Email) error
}

// SMTPMailer delivers mail through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer creates a mailer from SMTP configuration.
func NewSMTPMailer(cfg *config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send delivers a single message.
func (m *SMTPMailer) Send(email Email) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email.To)
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/html", email.HTML)
	return m.dialer.DialAndSend(msg)
}

// LogMailer logs outgoing mail instead of delivering it. Used in
// development when no SMTP relay is configured, and in tests.
type LogMailer struct {
	log *zap.Logger
}

// NewLogMailer creates a mailer that only logs.
func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

// Send logs the message and reports success.
func (m *LogMailer) Send(email Email) error {
	m.log.Info("Outgoing mail (not delivered, SMTP not configured)",
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
	)
	return nil
}
