// ABOUTME: SMTP delivery of invitation emails via gomail
// ABOUTME: Optional; a nil Mailer in the directory skips delivery entirely

package team

import (
	"fmt"
	"log/slog"

	gomail "gopkg.in/gomail.v2"
)

// Mailer delivers invitation notifications.
type Mailer interface {
	SendInvite(to, teamName, inviterName, token string) error
}

// SMTPConfig holds mail server settings for the SMTP mailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends invitation emails through an SMTP server.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	logger *slog.Logger
}

// NewSMTPMailer creates a mailer from SMTP settings.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: slog.Default().With("component", "mailer"),
	}
}

// SendInvite emails an invitation token to the target address.
func (m *SMTPMailer) SendInvite(to, teamName, inviterName, token string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("%s invited you to %s", inviterName, teamName))
	msg.SetBody("text/plain", fmt.Sprintf(
		"%s invited you to join the team %q.\n\n"+
			"Use this invitation token to accept:\n\n%s\n\n"+
			"The invitation expires in 7 days.\n",
		inviterName, teamName, token,
	))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending invite email: %w", err)
	}

	m.logger.Info("sent invitation email", "to", to, "team", teamName)
	return nil
}
