// internal/gateway/postgres/client.go
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/your-org/storefront/internal/persist"
	"github.com/your-org/storefront/internal/pkg/auth"
)

// tokenVersion is the schema version of the stored access token
const tokenVersion = 1

// Client is the gateway as seen by one workspace. It remembers the access
// token issued at sign-in between calls and across restarts.
type Client struct {
	backend  *Backend
	tokenKey string
}

type storedToken struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (c *Client) saveToken(ctx context.Context, token string, claims *auth.Claims) error {
	stored := storedToken{AccessToken: token}
	if claims.ExpiresAt != nil {
		stored.ExpiresAt = claims.ExpiresAt.Time
	}
	return persist.SaveState(ctx, c.backend.store, c.tokenKey, tokenVersion, stored)
}

func (c *Client) loadToken(ctx context.Context) (string, error) {
	var stored storedToken
	err := persist.LoadState(ctx, c.backend.store, c.tokenKey, tokenVersion, &stored)
	if errors.Is(err, persist.ErrNotFound) || errors.Is(err, persist.ErrIncompatible) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return stored.AccessToken, nil
}

func (c *Client) clearToken(ctx context.Context) error {
	return c.backend.store.Delete(ctx, c.tokenKey)
}

// claims returns the claims of the live access token, or nil when the
// workspace has no usable session
func (c *Client) claims(ctx context.Context) (*auth.Claims, error) {
	token, err := c.loadToken(ctx)
	if err != nil || token == "" {
		return nil, err
	}

	claims, err := c.backend.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, nil
	}

	revoked, err := c.backend.isRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, nil
	}
	return claims, nil
}

// authorize resolves the caller and checks it acts on its own rows
func (c *Client) authorize(ctx context.Context, identityID string) (*auth.Claims, error) {
	claims, err := c.claims(ctx)
	if err != nil {
		return nil, err
	}
	if claims == nil || claims.UserID != identityID {
		return nil, unauthorized()
	}
	return claims, nil
}

// caller resolves the signed-in user for calls that only carry row ids
func (c *Client) caller(ctx context.Context) (*auth.Claims, error) {
	claims, err := c.claims(ctx)
	if err != nil {
		return nil, err
	}
	if claims == nil {
		return nil, unauthorized()
	}
	return claims, nil
}
