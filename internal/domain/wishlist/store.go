// internal/domain/wishlist/store.go
package wishlist

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/notify"
)

// PersistVersion is the schema version of Persisted
const PersistVersion = 1

// Gateway is the slice of the remote data gateway the wishlist store uses
type Gateway interface {
	ListWishlistLines(ctx context.Context, identityID string) ([]Line, error)
	InsertWishlistLine(ctx context.Context, identityID, productID string) error
	DeleteWishlistLine(ctx context.Context, identityID, productID string) error
}

// State is a read-only snapshot of the store
type State struct {
	Lines     []Line `json:"items"`
	IsLoading bool   `json:"is_loading"`
}

// Persisted is the part of the state that survives a restart
type Persisted struct {
	Lines []Line `json:"items"`
}

// Store keeps the visitor's wishlist in sync with the gateway
type Store struct {
	gateway  Gateway
	notifier notify.Notifier
	logger   logrus.FieldLogger

	opMu sync.Mutex

	mu        sync.RWMutex
	lines     []Line
	isLoading bool
}

// NewStore creates an empty wishlist store
func NewStore(gw Gateway, notifier notify.Notifier, logger logrus.FieldLogger) *Store {
	return &Store{
		gateway:  gw,
		notifier: notifier,
		logger:   logger,
		lines:    []Line{},
	}
}

// Fetch replaces the lines with the gateway's current list
func (s *Store) Fetch(ctx context.Context, identityID string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.fetch(ctx, identityID)
}

// Add saves a product, then re-fetches the list. A failed re-fetch does not
// undo the reported success.
func (s *Store) Add(ctx context.Context, identityID, productID string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.gateway.InsertWishlistLine(ctx, identityID, productID); err != nil {
		s.logger.WithError(err).WithField("product_id", productID).Error("Error adding to wishlist")
		s.notifier.Error("Failed to add to wishlist")
		return err
	}

	if err := s.fetch(ctx, identityID); err != nil {
		s.logger.WithError(err).WithField("product_id", productID).Warn("Wishlist re-fetch failed after add")
	}

	s.notifier.Success("Added to wishlist")
	return nil
}

// Remove deletes every line for productID
func (s *Store) Remove(ctx context.Context, identityID, productID string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.gateway.DeleteWishlistLine(ctx, identityID, productID); err != nil {
		s.logger.WithError(err).WithField("product_id", productID).Error("Error removing from wishlist")
		s.notifier.Error("Failed to remove from wishlist")
		return err
	}

	s.mu.Lock()
	lines := make([]Line, 0, len(s.lines))
	for _, line := range s.lines {
		if line.ProductID != productID {
			lines = append(lines, line)
		}
	}
	s.lines = lines
	s.mu.Unlock()

	s.notifier.Success("Removed from wishlist")
	return nil
}

// Contains reports whether productID is saved locally
func (s *Store) Contains(productID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, line := range s.lines {
		if line.ProductID == productID {
			return true
		}
	}
	return false
}

// Clear empties the local list
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = []Line{}
}

// Lines returns a copy of the current lines
func (s *Store) Lines() []Line {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Line{}, s.lines...)
}

// IsLoading reports whether a fetch is in flight
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLoading
}

// Snapshot returns the current state
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{Lines: append([]Line{}, s.lines...), IsLoading: s.isLoading}
}

// Persisted returns the state that survives a restart
func (s *Store) Persisted() Persisted {
	return Persisted{Lines: s.Lines()}
}

// Restore loads persisted state
func (s *Store) Restore(p Persisted) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = p.Lines
	if s.lines == nil {
		s.lines = []Line{}
	}
	s.isLoading = false
}

func (s *Store) fetch(ctx context.Context, identityID string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	lines, err := s.gateway.ListWishlistLines(ctx, identityID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", identityID).Error("Error fetching wishlist")
		s.notifier.Error("Failed to load wishlist")
		return err
	}
	if lines == nil {
		lines = []Line{}
	}

	s.mu.Lock()
	s.lines = lines
	s.mu.Unlock()
	return nil
}

func (s *Store) setLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isLoading = loading
}
