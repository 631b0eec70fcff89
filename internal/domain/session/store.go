// internal/domain/session/store.go
package session

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/gateway"
)

// Messages surfaced when the gateway gives nothing better
const (
	MessageUnexpected = "An unexpected error occurred"
	MessageAuthFailed = "Authentication failed"
)

// PersistVersion is the schema version of Persisted
const PersistVersion = 1

// Gateway is the slice of the remote data gateway the session store uses
type Gateway interface {
	VerifyCredentials(ctx context.Context, email, password string) (*RawUser, error)
	CreateAccount(ctx context.Context, email, password string, metadata map[string]string) error
	TerminateSession(ctx context.Context) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResumeSession(ctx context.Context) (*RawUser, error)
}

// AuthError is the failure result of a session operation
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// State is a read-only snapshot of the store
type State struct {
	Identity        *Identity `json:"user"`
	IsAuthenticated bool      `json:"is_authenticated"`
	IsLoading       bool      `json:"is_loading"`
}

// Persisted is the part of the state that survives a restart
type Persisted struct {
	Identity        *Identity `json:"user"`
	IsAuthenticated bool      `json:"is_authenticated"`
}

// Store holds the current identity
type Store struct {
	gateway Gateway
	logger  logrus.FieldLogger

	opMu sync.Mutex

	mu        sync.RWMutex
	identity  *Identity
	isLoading bool
}

// NewStore creates an empty session store
func NewStore(gw Gateway, logger logrus.FieldLogger) *Store {
	return &Store{gateway: gw, logger: logger}
}

// SignIn verifies credentials and makes the returned user the current identity
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.SetLoading(true)
	defer s.SetLoading(false)

	raw, err := s.gateway.VerifyCredentials(ctx, email, password)
	if err != nil {
		return s.authError("sign in", err)
	}
	if raw == nil {
		return &AuthError{Message: MessageAuthFailed}
	}

	s.SetIdentity(NormalizeIdentity(raw))
	return nil
}

// SignUp creates an account. It never signs the visitor in; the caller is
// expected to ask for email verification and then sign in.
func (s *Store) SignUp(ctx context.Context, email, password string, profile Profile) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.SetLoading(true)
	defer s.SetLoading(false)

	if err := s.gateway.CreateAccount(ctx, email, password, profile.Metadata()); err != nil {
		return s.authError("sign up", err)
	}
	return nil
}

// SignOut ends the gateway session and always clears the local identity
func (s *Store) SignOut(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.SetLoading(true)

	if err := s.gateway.TerminateSession(ctx); err != nil {
		s.logger.WithError(err).Warn("Error terminating gateway session")
	}

	s.mu.Lock()
	s.identity = nil
	s.isLoading = false
	s.mu.Unlock()
}

// ResetPassword asks the gateway to email a reset link
func (s *Store) ResetPassword(ctx context.Context, email string) error {
	if err := s.gateway.RequestPasswordReset(ctx, email); err != nil {
		return s.authError("reset password", err)
	}
	return nil
}

// SetIdentity replaces the current identity. Nil signs the visitor out locally.
func (s *Store) SetIdentity(identity *Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = identity
}

// SetLoading sets the loading flag
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isLoading = loading
}

// Identity returns a copy of the current identity, or nil
func (s *Store) Identity() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	identity := *s.identity
	return &identity
}

// IsAuthenticated reports whether an identity is present
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil
}

// IsLoading reports whether an operation is in flight
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLoading
}

// Snapshot returns the current state
func (s *Store) Snapshot() State {
	identity := s.Identity()
	return State{
		Identity:        identity,
		IsAuthenticated: identity != nil,
		IsLoading:       s.IsLoading(),
	}
}

// Persisted returns the state that survives a restart
func (s *Store) Persisted() Persisted {
	identity := s.Identity()
	return Persisted{Identity: identity, IsAuthenticated: identity != nil}
}

// Restore loads persisted state. The authenticated flag is derived from the
// identity, never trusted from the blob.
func (s *Store) Restore(p Persisted) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = p.Identity
	s.isLoading = false
}

func (s *Store) authError(op string, err error) error {
	if gwErr, ok := gateway.AsError(err); ok {
		return &AuthError{Message: gwErr.Message}
	}
	s.logger.WithError(err).WithField("operation", op).Error("Unexpected gateway failure")
	return &AuthError{Message: MessageUnexpected}
}
