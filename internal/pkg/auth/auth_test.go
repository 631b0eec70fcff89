package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/config"
)

func testConfig() *config.Config {
	cfg := config.FromEnv()
	cfg.JWT.Secret = "0123456789abcdef0123456789abcdef"
	cfg.JWT.AccessTokenExpiry = time.Hour
	cfg.Security.BcryptCost = 4
	return cfg
}

func TestAccessToken_RoundTrip(t *testing.T) {
	manager := NewJWTManager(testConfig())

	token, issued, err := manager.GenerateAccessToken("u1", "asha@example.com", "customer")
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)

	claims, err := manager.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, issued.ID, claims.ID)
	assert.Equal(t, "customer", claims.Role)
}

func TestAccessToken_Expired(t *testing.T) {
	manager := NewJWTManager(testConfig())
	token, _, err := manager.GenerateAccessToken("u1", "asha@example.com", "customer")
	require.NoError(t, err)

	manager.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = manager.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestAccessToken_WrongSecret(t *testing.T) {
	token, _, err := NewJWTManager(testConfig()).GenerateAccessToken("u1", "a@example.com", "customer")
	require.NoError(t, err)

	other := testConfig()
	other.JWT.Secret = "ffffffffffffffffffffffffffffffff"
	_, err = NewJWTManager(other).ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestExtractTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromHeader("Bearer abc"))
	assert.Equal(t, "", ExtractTokenFromHeader("Basic abc"))
	assert.Equal(t, "", ExtractTokenFromHeader(""))
}

func TestPassword_HashAndVerify(t *testing.T) {
	manager := NewPasswordManager(testConfig())

	hash, err := manager.HashPassword("kurta-lover-7")
	require.NoError(t, err)
	assert.NoError(t, manager.VerifyPassword("kurta-lover-7", hash))
	assert.Error(t, manager.VerifyPassword("kurta-lover-8", hash))
}

func TestPassword_Validation(t *testing.T) {
	manager := NewPasswordManager(testConfig())

	cases := map[string]string{
		"short":    "abc",
		"common":   "Password",
		"repeats":  "aaaab-long-enough",
		"too long": string(make([]byte, 80)),
	}
	for name, password := range cases {
		t.Run(name, func(t *testing.T) {
			err := manager.ValidatePassword(password)
			assert.True(t, errors.Is(err, ErrWeakPassword))
		})
	}

	assert.NoError(t, manager.ValidatePassword("s3cret-pass"))
}

func TestGenerateToken(t *testing.T) {
	first, err := GenerateToken()
	require.NoError(t, err)
	second, err := GenerateToken()
	require.NoError(t, err)

	assert.Len(t, first, 43)
	assert.NotEqual(t, first, second)
}
