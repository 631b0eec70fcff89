// internal/pkg/email/sendgrid.go
package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
)

// SendGridSender delivers email through the SendGrid v3 API
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    logrus.FieldLogger
}

// NewSendGridSender creates a SendGrid sender
func NewSendGridSender(cfg config.EmailConfig, logger logrus.FieldLogger) *SendGridSender {
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.SendGridAPIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

func (s *SendGridSender) Send(ctx context.Context, email *Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}

	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(s.fromName, s.fromEmail))
	message.Subject = email.Subject

	personalization := mail.NewPersonalization()
	for _, to := range email.To {
		personalization.AddTos(mail.NewEmail("", to))
	}
	message.AddPersonalizations(personalization)

	if email.TextContent != "" {
		message.AddContent(mail.NewContent("text/plain", email.TextContent))
	}
	message.AddContent(mail.NewContent("text/html", email.HTMLContent))
	message.AddCategories(string(email.Type))

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}

	if response.StatusCode >= 400 {
		s.logger.WithFields(logrus.Fields{
			"status": response.StatusCode,
			"body":   response.Body,
		}).Error("SendGrid rejected email")
		return fmt.Errorf("sendgrid send failed: status=%d", response.StatusCode)
	}

	s.logger.WithFields(logrus.Fields{
		"status":  response.StatusCode,
		"type":    email.Type,
		"subject": email.Subject,
	}).Debug("Email sent")
	return nil
}
