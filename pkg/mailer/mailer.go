package mailer

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/telecare/telecare/internal/config"
)

// Sender delivers plain-text mail. Satisfied by the SMTP mailer and by
// fakes in tests.
type Sender interface {
	Send(to, subject, body string) error
}

type SMTPMailer struct {
	cfg    config.SMTPConfig
	dialer *gomail.Dialer
}

func New(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Sender, cfg.Password),
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.Sender)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}
