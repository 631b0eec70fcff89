// Package postgres is the data gateway backed by PostgreSQL and Redis. One
// Backend is shared by the process; every visitor workspace talks to it
// through its own Client, which carries that visitor's access token.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/catalog"
	"github.com/your-org/storefront/internal/domain/storefront"
	"github.com/your-org/storefront/internal/gateway"
	"github.com/your-org/storefront/internal/persist"
	"github.com/your-org/storefront/internal/pkg/auth"
	"gorm.io/gorm"
)

// Redis key prefixes
const (
	revokedTokenPrefix  = "revoked_token:"
	passwordResetPrefix = "password_reset:"
	emailConfirmPrefix  = "email_confirm:"
)

// Mailer delivers account emails
type Mailer interface {
	SendPasswordResetEmail(ctx context.Context, userEmail, userName, resetToken string) error
	SendEmailVerificationEmail(ctx context.Context, userEmail, userName, token string) error
}

// Backend owns the shared connections of the gateway
type Backend struct {
	db        *gorm.DB
	redis     *redis.Client
	store     persist.Store
	jwt       *auth.JWTManager
	passwords *auth.PasswordManager
	mailer    Mailer
	config    *config.Config
	logger    logrus.FieldLogger
	now       func() time.Time
}

// NewBackend creates the gateway backend. store keeps the per-workspace
// access tokens.
func NewBackend(db *gorm.DB, redisClient *redis.Client, store persist.Store, mailer Mailer, cfg *config.Config, logger logrus.FieldLogger) *Backend {
	return &Backend{
		db:        db,
		redis:     redisClient,
		store:     store,
		jwt:       auth.NewJWTManager(cfg),
		passwords: auth.NewPasswordManager(cfg),
		mailer:    mailer,
		config:    cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Client returns the gateway client of one workspace
func (b *Backend) Client(workspaceID string) *Client {
	return &Client{
		backend:  b,
		tokenKey: persist.Key(b.config.Persist.KeyPrefix, workspaceID, "gateway-session"),
	}
}

// ConfirmPasswordReset sets a new password using a token mailed by
// RequestPasswordReset. The token is single use.
func (b *Backend) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	userID, err := b.consumeToken(ctx, passwordResetPrefix+token)
	if err != nil {
		return err
	}

	hash, err := b.passwords.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return weakPassword(err)
		}
		return err
	}

	result := b.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Update("password_hash", hash)
	if result.Error != nil {
		return fmt.Errorf("failed to update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gateway.NewError(gateway.CodeNotFound, "User not found")
	}

	b.logger.WithField("user_id", userID).Info("Password reset completed")
	return nil
}

// ConfirmEmail marks an account's email as confirmed using a token mailed
// at sign-up
func (b *Backend) ConfirmEmail(ctx context.Context, token string) error {
	userID, err := b.consumeToken(ctx, emailConfirmPrefix+token)
	if err != nil {
		return err
	}

	now := b.now()
	result := b.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"email_confirmed":    true,
		"email_confirmed_at": now,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to confirm email: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gateway.NewError(gateway.CodeNotFound, "User not found")
	}
	return nil
}

func (b *Backend) consumeToken(ctx context.Context, key string) (string, error) {
	userID, err := b.redis.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", gateway.NewError(gateway.CodeInvalidToken, "Link is invalid or has expired")
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return userID, nil
}

func (b *Backend) isRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.redis.Exists(ctx, revokedTokenPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token: %w", err)
	}
	return n > 0, nil
}

func (b *Backend) revoke(ctx context.Context, claims *auth.Claims) error {
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		if remaining := claims.ExpiresAt.Sub(b.now()); remaining > 0 {
			ttl = remaining
		}
	}
	return b.redis.Set(ctx, revokedTokenPrefix+claims.ID, "1", ttl).Err()
}

func weakPassword(err error) error {
	var policy *auth.PolicyError
	if errors.As(err, &policy) {
		return gateway.NewError(gateway.CodeWeakPassword, policy.Message)
	}
	return gateway.NewError(gateway.CodeWeakPassword, err.Error())
}

func unauthorized() error {
	return gateway.NewError(gateway.CodeUnauthorized, "Not authorized")
}

var (
	_ storefront.Gateway   = (*Client)(nil)
	_ catalog.Gateway      = (*Client)(nil)
	_ catalog.Gateway      = (*Backend)(nil)
	_ catalog.ReviewWriter = (*Client)(nil)
)
