// internal/pkg/auth/password.go
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/your-org/storefront/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// Password length limits. bcrypt ignores everything past 72 bytes.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

// ErrWeakPassword matches every password policy failure
var ErrWeakPassword = errors.New("weak password")

// PolicyError is a password policy failure. Message is safe to show to the
// visitor.
type PolicyError struct {
	Message string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("%s: %s", ErrWeakPassword, e.Message)
}

func (e *PolicyError) Is(target error) bool {
	return target == ErrWeakPassword
}

func policyError(format string, args ...interface{}) error {
	return &PolicyError{Message: fmt.Sprintf(format, args...)}
}

var commonPasswords = []string{
	"password", "123456", "password123", "admin", "qwerty", "letmein",
	"welcome", "monkey", "dragon", "password1", "123456789", "football",
}

// PasswordManager handles password operations
type PasswordManager struct {
	config *config.Config
}

// NewPasswordManager creates a new password manager
func NewPasswordManager(cfg *config.Config) *PasswordManager {
	return &PasswordManager{
		config: cfg,
	}
}

// HashPassword hashes a password using bcrypt
func (p *PasswordManager) HashPassword(password string) (string, error) {
	if err := p.ValidatePassword(password); err != nil {
		return "", err
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), p.config.Security.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashedBytes), nil
}

// VerifyPassword verifies a password against its hash
func (p *PasswordManager) VerifyPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// ValidatePassword validates password strength. The returned error message
// is safe to show to the visitor.
func (p *PasswordManager) ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return policyError("Password should be at least %d characters", MinPasswordLength)
	}

	if len(password) > MaxPasswordLength {
		return policyError("Password should be no more than %d characters", MaxPasswordLength)
	}

	if hasRepeatRun(password, 4) {
		return policyError("Password cannot repeat the same character more than 3 times")
	}

	lower := strings.ToLower(password)
	for _, common := range commonPasswords {
		if lower == common {
			return policyError("Password is too common and easily guessable")
		}
	}

	return nil
}

// GenerateToken returns a random URL-safe token for emailed links
func GenerateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hasRepeatRun(s string, n int) bool {
	run := 1
	for i := 1; i < len(s); i++ {
		if s[i] == s[i-1] {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}
