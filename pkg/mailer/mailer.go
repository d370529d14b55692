package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rkfood/rkfood-backend/pkg/config"
	"github.com/rkfood/rkfood-backend/pkg/logger"
)

// Mailer sends transactional email over SMTP. When the SMTP section is not
// configured it degrades to logging the message instead of failing callers.
type Mailer struct {
	cfg  config.SMTPConfig
	logg *logger.Logger
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New constructs a Mailer from config.
func New(cfg config.SMTPConfig, logg *logger.Logger) *Mailer {
	return &Mailer{
		cfg:  cfg,
		logg: logg,
		send: smtp.SendMail,
	}
}

// Send delivers a plain-text message to a single recipient.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("recipient is required")
	}

	if !m.cfg.Enabled() {
		if m.logg != nil {
			ctx = m.logg.WithFields(ctx, map[string]any{"to": to, "subject": subject})
			m.logg.Info(ctx, "smtp disabled, skipping outbound mail")
		}
		return nil
	}

	msg := buildMessage(m.cfg.DefaultFrom, to, subject, body)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := m.send(addr, auth, m.cfg.DefaultFrom, []string{to}, msg); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}
