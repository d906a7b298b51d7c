package finance

import (
	"fmt"
	"net/smtp"
	"os"
	"path/filepath"

	"github.com/domodwyer/mailyak/v3"

	"github.com/certops/dcvkit/internal/vault"
)

// Mailer sends the digest and futures emails through an SMTP relay.
type Mailer struct {
	cfg vault.SMTPConfig
	// send is injectable so tests can capture the built message.
	send func(m *mailyak.MailYak) error
}

// NewMailer creates a mailer from vault SMTP settings.
func NewMailer(cfg vault.SMTPConfig) *Mailer {
	return &Mailer{
		cfg:  cfg,
		send: func(m *mailyak.MailYak) error { return m.Send() },
	}
}

// Send delivers an HTML email, attaching the named files.
func (m *Mailer) Send(subject, htmlBody string, attachments ...string) error {
	mail := mailyak.New(m.cfg.Host+":"+m.cfg.Port,
		smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host))
	mail.From(m.cfg.From)
	mail.To(m.cfg.To)
	mail.Subject(subject)
	mail.HTML().Set(htmlBody)

	for _, path := range attachments {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open attachment %s: %w", path, err)
		}
		// mailyak reads the attachment during Send; close after.
		defer f.Close()
		mail.Attach(filepath.Base(path), f)
	}

	if err := m.send(mail); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}
