// internal/gateway/postgres/auth.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/your-org/storefront/internal/domain/session"
	"github.com/your-org/storefront/internal/gateway"
	"github.com/your-org/storefront/internal/pkg/auth"
	"gorm.io/gorm"
)

// VerifyCredentials checks email and password and opens a session for the
// workspace
func (c *Client) VerifyCredentials(ctx context.Context, email, password string) (*session.RawUser, error) {
	b := c.backend
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, gateway.NewError(gateway.CodeValidation, "Email and password are required")
	}

	var user User
	err := b.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, gateway.NewError(gateway.CodeInvalidCredentials, "Invalid login credentials")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := b.passwords.VerifyPassword(password, user.PasswordHash); err != nil {
		b.logger.WithField("user_id", user.ID).Warn("Sign in with wrong password")
		return nil, gateway.NewError(gateway.CodeInvalidCredentials, "Invalid login credentials")
	}

	if b.config.Auth.RequireEmailConfirmation && !user.EmailConfirmed {
		return nil, gateway.NewError(gateway.CodeEmailNotConfirmed, "Email not confirmed")
	}

	token, claims, err := b.jwt.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	if err := c.saveToken(ctx, token, claims); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	now := b.now()
	if err := b.db.WithContext(ctx).Model(&user).UpdateColumn("last_sign_in_at", now).Error; err != nil {
		b.logger.WithError(err).Warn("Failed to record sign in time")
	}

	return user.toRaw(), nil
}

// CreateAccount registers a new account with profile metadata. It never
// opens a session.
func (c *Client) CreateAccount(ctx context.Context, email, password string, metadata map[string]string) error {
	b := c.backend
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return gateway.NewError(gateway.CodeValidation, "Unable to validate email address: invalid format")
	}

	hash, err := b.passwords.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return weakPassword(err)
		}
		return err
	}

	var count int64
	if err := b.db.WithContext(ctx).Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check existing user: %w", err)
	}
	if count > 0 {
		return gateway.NewError(gateway.CodeUserExists, "User already registered")
	}

	user := &User{
		Email:          email,
		PasswordHash:   hash,
		FullName:       strings.TrimSpace(metadata["full_name"]),
		Phone:          strings.TrimSpace(metadata["phone"]),
		Role:           session.RoleCustomer,
		EmailConfirmed: !b.config.Auth.RequireEmailConfirmation,
	}
	if user.EmailConfirmed {
		now := b.now()
		user.EmailConfirmedAt = &now
	}

	if err := b.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return gateway.NewError(gateway.CodeUserExists, "User already registered")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	b.logger.WithField("user_id", user.ID).Info("Account created")

	if !b.config.Auth.RequireEmailConfirmation {
		return nil
	}

	token, err := auth.GenerateToken()
	if err != nil {
		return err
	}
	if err := b.redis.Set(ctx, emailConfirmPrefix+token, user.ID, b.config.Auth.ConfirmTokenTTL).Err(); err != nil {
		return fmt.Errorf("failed to store confirmation token: %w", err)
	}
	if err := b.mailer.SendEmailVerificationEmail(ctx, user.Email, user.FullName, token); err != nil {
		b.logger.WithError(err).WithField("user_id", user.ID).Error("Failed to send verification email")
	}
	return nil
}

// TerminateSession revokes the workspace's access token and forgets it
func (c *Client) TerminateSession(ctx context.Context) error {
	b := c.backend
	token, err := c.loadToken(ctx)
	if err != nil {
		return err
	}

	if token != "" {
		if claims, err := b.jwt.ValidateAccessToken(token); err == nil {
			if err := b.revoke(ctx, claims); err != nil {
				return fmt.Errorf("failed to revoke session: %w", err)
			}
		}
	}

	if err := c.clearToken(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// RequestPasswordReset mails a reset link. Unknown emails succeed silently.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	b := c.backend
	email = normalizeEmail(email)

	var user User
	err := b.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		b.logger.Debug("Password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}

	token, err := auth.GenerateToken()
	if err != nil {
		return err
	}
	if err := b.redis.Set(ctx, passwordResetPrefix+token, user.ID, b.config.Auth.ResetTokenTTL).Err(); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := b.mailer.SendPasswordResetEmail(ctx, user.Email, user.FullName, token); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	return nil
}

// ResumeSession returns the user of the stored access token. A missing,
// expired or revoked token yields no user and is forgotten.
func (c *Client) ResumeSession(ctx context.Context) (*session.RawUser, error) {
	b := c.backend
	token, err := c.loadToken(ctx)
	if err != nil || token == "" {
		return nil, err
	}

	claims, err := c.claims(ctx)
	if err != nil {
		return nil, err
	}
	if claims == nil {
		return nil, c.clearToken(ctx)
	}

	var user User
	err = b.db.WithContext(ctx).Where("id = ?", claims.UserID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, c.clearToken(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user.toRaw(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
