// internal/pkg/email/smtp.go
package email

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/your-org/storefront/internal/config"
)

// SMTPSender delivers email through a plain SMTP relay
type SMTPSender struct {
	config config.EmailConfig
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender creates an SMTP sender
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{config: cfg, send: smtp.SendMail}
}

func (s *SMTPSender) Send(ctx context.Context, email *Email) error {
	if s.config.SMTPHost == "" {
		return fmt.Errorf("SMTP configuration incomplete: missing host")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.config.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
	}

	serverAddr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)
	if err := s.send(serverAddr, auth, s.config.FromEmail, email.To, s.buildMessage(email)); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

func (s *SMTPSender) buildMessage(email *Email) []byte {
	from := s.config.FromEmail
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)
	}

	var msg bytes.Buffer
	headers := [][2]string{
		{"From", from},
		{"To", strings.Join(email.To, ", ")},
		{"Subject", email.Subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", `text/html; charset="utf-8"`},
	}
	for _, h := range headers {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", h[0], h[1]))
	}
	msg.WriteString("\r\n")
	msg.WriteString(email.HTMLContent)
	return msg.Bytes()
}
