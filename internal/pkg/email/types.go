// internal/pkg/email/types.go
package email

import (
	"fmt"
	"time"
)

// EmailType represents the type of email being sent
type EmailType string

const (
	EmailTypeEmailVerification EmailType = "email_verification"
	EmailTypePasswordReset     EmailType = "password_reset"
)

// Email represents an email message
type Email struct {
	To          []string  `json:"to"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"html_content"`
	TextContent string    `json:"text_content,omitempty"`
	Type        EmailType `json:"type"`
}

// EmailTemplateData contains common data for all email templates
type EmailTemplateData struct {
	SiteName   string `json:"site_name"`
	SiteURL    string `json:"site_url"`
	SupportURL string `json:"support_url"`
	UserName   string `json:"user_name"`
	UserEmail  string `json:"user_email"`
	Year       int    `json:"year"`
}

// PasswordResetData contains data for password reset email
type PasswordResetData struct {
	EmailTemplateData
	ResetURL   string `json:"reset_url"`
	ExpiryTime string `json:"expiry_time"`
}

// EmailVerificationData contains data for email verification
type EmailVerificationData struct {
	EmailTemplateData
	VerificationURL string `json:"verification_url"`
	ExpiryTime      string `json:"expiry_time"`
}

// GetBaseTemplateData returns common template data
func GetBaseTemplateData(siteName, siteURL, userName, userEmail string) EmailTemplateData {
	return EmailTemplateData{
		SiteName:   siteName,
		SiteURL:    siteURL,
		SupportURL: siteURL + "/support",
		UserName:   userName,
		UserEmail:  userEmail,
		Year:       time.Now().Year(),
	}
}

func formatExpiry(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		hours := int(d / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	minutes := int(d / time.Minute)
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
