// Package email delivers the dashboard's transactional mail over SMTP.
package email

import (
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	"github.com/eggsplain/eggsplain-front/internal/config"
	"github.com/eggsplain/eggsplain-front/internal/log"
	mail "github.com/go-mail/mail"
)

// Delivery failure classes, used to pick the right configuration hint
var (
	ErrUnreachable = errors.New("cannot reach email server")
	ErrAuthFailed  = errors.New("email authentication failed")
)

// Sender sends mail through the configured SMTP relay
type Sender struct {
	cfg config.SMTPConfig
}

// NewSender creates a sender from SMTP configuration
func NewSender(cfg config.SMTPConfig) *Sender {
	return &Sender{cfg: cfg}
}

// Configured reports whether the relay can be used
func (s *Sender) Configured() bool {
	return s.cfg.Configured()
}

// Send delivers a message with plain-text and HTML alternatives
func (s *Sender) Send(to, subject, textBody, htmlBody string) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	if htmlBody != "" {
		m.AddAlternative("text/html", htmlBody)
	}

	d := mail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, string(s.cfg.Pass))
	d.TLSConfig = &tls.Config{ServerName: s.cfg.Host}

	if err := d.DialAndSend(m); err != nil {
		log.LogErrorWithFields("email", "SMTP send failed", map[string]any{
			"host":  s.cfg.Host,
			"to":    to,
			"error": err.Error(),
		})
		return classify(err)
	}

	log.LogInfoWithFields("email", "Email sent", map[string]any{
		"to":      to,
		"subject": subject,
	})
	return nil
}

// SendMagicLink delivers the login link email
func (s *Sender) SendMagicLink(to, link string) error {
	text := fmt.Sprintf("Sign in to eggsplain:\n\n%s\n\nThis link expires in 15 minutes. If you didn't request it, ignore this email.", link)
	html := fmt.Sprintf(`<p>Sign in to eggsplain:</p><p><a href="%s">Sign in</a></p><p>This link expires in 15 minutes. If you didn't request it, ignore this email.</p>`, link)
	return s.Send(to, "Your eggsplain sign-in link", text, html)
}

// classify maps dialer errors onto the failure classes callers report on
func classify(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "no such host"), strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "i/o timeout"):
		return fmt.Errorf("%w: %s", ErrUnreachable, msg)
	case strings.Contains(msg, "535"), strings.Contains(strings.ToLower(msg), "auth"),
		strings.Contains(msg, "Invalid login"):
		return fmt.Errorf("%w: %s", ErrAuthFailed, msg)
	default:
		return err
	}
}
