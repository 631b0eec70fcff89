// internal/pkg/email/service.go
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
)

// Sender delivers a rendered email
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// EmailService renders account emails and hands them to the configured sender
type EmailService struct {
	config    *config.Config
	sender    Sender
	logger    logrus.FieldLogger
	templates map[EmailType]*template.Template
}

// NewEmailService creates a new email service using the configured provider
func NewEmailService(cfg *config.Config, logger logrus.FieldLogger) (*EmailService, error) {
	var sender Sender
	switch cfg.Email.Provider {
	case "sendgrid":
		sender = NewSendGridSender(cfg.Email, logger)
	case "smtp":
		sender = NewSMTPSender(cfg.Email)
	case "log", "":
		sender = NewLogSender(logger)
	default:
		return nil, fmt.Errorf("unsupported email provider: %s", cfg.Email.Provider)
	}
	return NewEmailServiceWithSender(cfg, sender, logger), nil
}

// NewEmailServiceWithSender creates an email service around an explicit sender
func NewEmailServiceWithSender(cfg *config.Config, sender Sender, logger logrus.FieldLogger) *EmailService {
	return &EmailService{
		config: cfg,
		sender: sender,
		logger: logger,
		templates: map[EmailType]*template.Template{
			EmailTypePasswordReset:     template.Must(template.New("password_reset").Parse(passwordResetTemplate)),
			EmailTypeEmailVerification: template.Must(template.New("email_verification").Parse(emailVerificationTemplate)),
		},
	}
}

// SendPasswordResetEmail sends password reset email
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, userEmail, userName, resetToken string) error {
	data := PasswordResetData{
		EmailTemplateData: s.baseData(userName, userEmail),
		ResetURL:          s.link("/reset-password", resetToken),
		ExpiryTime:        formatExpiry(s.config.Auth.ResetTokenTTL),
	}

	htmlContent, err := s.renderTemplate(EmailTypePasswordReset, data)
	if err != nil {
		return fmt.Errorf("failed to render password reset template: %w", err)
	}

	return s.sender.Send(ctx, &Email{
		To:          []string{userEmail},
		Subject:     "Reset Your Password",
		HTMLContent: htmlContent,
		TextContent: fmt.Sprintf("Reset your password: %s", data.ResetURL),
		Type:        EmailTypePasswordReset,
	})
}

// SendEmailVerificationEmail sends email verification email
func (s *EmailService) SendEmailVerificationEmail(ctx context.Context, userEmail, userName, token string) error {
	data := EmailVerificationData{
		EmailTemplateData: s.baseData(userName, userEmail),
		VerificationURL:   s.link("/api/v1/auth/confirm", token),
		ExpiryTime:        formatExpiry(s.config.Auth.ConfirmTokenTTL),
	}

	htmlContent, err := s.renderTemplate(EmailTypeEmailVerification, data)
	if err != nil {
		return fmt.Errorf("failed to render email verification template: %w", err)
	}

	return s.sender.Send(ctx, &Email{
		To:          []string{userEmail},
		Subject:     "Verify Your Email Address",
		HTMLContent: htmlContent,
		TextContent: fmt.Sprintf("Confirm your email: %s", data.VerificationURL),
		Type:        EmailTypeEmailVerification,
	})
}

func (s *EmailService) baseData(userName, userEmail string) EmailTemplateData {
	return GetBaseTemplateData(s.config.App.Name, s.config.App.SiteURL, userName, userEmail)
}

func (s *EmailService) link(path, token string) string {
	return fmt.Sprintf("%s%s?token=%s", s.config.App.SiteURL, path, url.QueryEscape(token))
}

// renderTemplate renders an email template with data
func (s *EmailService) renderTemplate(emailType EmailType, data interface{}) (string, error) {
	tmpl, exists := s.templates[emailType]
	if !exists {
		return "", fmt.Errorf("template %s not found", emailType)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", emailType, err)
	}

	return buf.String(), nil
}

// LogSender writes emails to the log instead of delivering them
type LogSender struct {
	logger logrus.FieldLogger
}

// NewLogSender creates a sender for local development
func NewLogSender(logger logrus.FieldLogger) *LogSender {
	return &LogSender{logger: logger}
}

func (l *LogSender) Send(_ context.Context, email *Email) error {
	l.logger.WithFields(logrus.Fields{
		"to":      email.To,
		"subject": email.Subject,
		"type":    email.Type,
		"text":    email.TextContent,
		"sent_at": time.Now().Format(time.RFC3339),
	}).Info("Email not delivered (log provider)")
	return nil
}

const layoutHead = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.SiteName}}</title>
</head>
<body style="font-family: Arial, sans-serif; margin: 0; padding: 20px; background-color: #f4f4f4;">
    <div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 20px; border-radius: 8px;">
        <h1 style="color: #333;">{{.SiteName}}</h1>
        <p>Hello {{if .UserName}}{{.UserName}}{{else}}there{{end}},</p>`

const layoutFoot = `
        <p>If you have any questions, please contact our support team at <a href="{{.SupportURL}}">{{.SupportURL}}</a>.</p>
        <p>Best regards,<br>{{.SiteName}} Team</p>
        <hr>
        <p style="font-size: 12px; color: #666;">&copy; {{.Year}} {{.SiteName}}. All rights reserved.</p>
    </div>
</body>
</html>`

const passwordResetTemplate = layoutHead + `
        <p>We received a request to reset the password for {{.UserEmail}}.</p>
        <p><a href="{{.ResetURL}}" style="background-color: #ea580c; color: white; padding: 10px 16px; border-radius: 6px; text-decoration: none;">Reset password</a></p>
        <p>This link expires in {{.ExpiryTime}}. If you did not ask for a reset you can ignore this email.</p>` + layoutFoot

const emailVerificationTemplate = layoutHead + `
        <p>Thanks for creating an account. Please confirm {{.UserEmail}} to start shopping.</p>
        <p><a href="{{.VerificationURL}}" style="background-color: #2563eb; color: white; padding: 10px 16px; border-radius: 6px; text-decoration: none;">Confirm email</a></p>
        <p>This link expires in {{.ExpiryTime}}.</p>` + layoutFoot
