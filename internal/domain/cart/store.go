// internal/domain/cart/store.go
package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/notify"
)

// PersistVersion is the schema version of Persisted
const PersistVersion = 1

// ErrInvalidQuantity is returned when a quantity below one is requested
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Gateway is the slice of the remote data gateway the cart store uses
type Gateway interface {
	ListCartLines(ctx context.Context, identityID string) ([]Line, error)
	UpsertCartLine(ctx context.Context, identityID, productID string, variantID *string, quantity int) error
	UpdateCartLineQuantity(ctx context.Context, lineID string, quantity int) error
	DeleteCartLine(ctx context.Context, lineID string) error
}

// State is a read-only snapshot of the store
type State struct {
	Lines       []Line          `json:"items"`
	IsLoading   bool            `json:"is_loading"`
	TotalItems  int             `json:"total_items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Persisted is the part of the state that survives a restart
type Persisted struct {
	Lines       []Line          `json:"items"`
	TotalItems  int             `json:"total_items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Store keeps the visitor's cart lines in sync with the gateway
type Store struct {
	gateway  Gateway
	notifier notify.Notifier
	logger   logrus.FieldLogger

	// opMu serializes operations; mu guards the fields below it
	opMu sync.Mutex

	mu        sync.RWMutex
	lines     []Line
	isLoading bool
	totals    Totals
}

// NewStore creates an empty cart store
func NewStore(gw Gateway, notifier notify.Notifier, logger logrus.FieldLogger) *Store {
	return &Store{
		gateway:  gw,
		notifier: notifier,
		logger:   logger,
		lines:    []Line{},
		totals:   Totals{TotalAmount: decimal.Zero},
	}
}

// Fetch replaces the lines with the gateway's current list
func (s *Store) Fetch(ctx context.Context, identityID string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.fetch(ctx, identityID)
}

// Add upserts a line on the gateway, then re-fetches the whole cart so the
// local list matches whatever merge the gateway applied. Once the upsert has
// landed Add reports success; a failed re-fetch only leaves the local list
// stale.
func (s *Store) Add(ctx context.Context, req AddRequest) error {
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	err := s.gateway.UpsertCartLine(ctx, req.IdentityID, req.ProductID, req.VariantID, quantity)
	if err != nil {
		s.logger.WithError(err).WithField("product_id", req.ProductID).Error("Error adding to cart")
		s.notifier.Error("Failed to add item to cart")
		return err
	}

	if err := s.fetch(ctx, req.IdentityID); err != nil {
		s.logger.WithError(err).WithField("product_id", req.ProductID).Warn("Cart re-fetch failed after add")
	}

	s.notifier.Success("Item added to cart")
	return nil
}

// UpdateQuantity sets the quantity of one line. Quantities below one are
// rejected without contacting the gateway.
func (s *Store) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.gateway.UpdateCartLineQuantity(ctx, lineID, quantity); err != nil {
		s.logger.WithError(err).WithField("line_id", lineID).Error("Error updating cart")
		s.notifier.Error("Failed to update cart")
		return err
	}

	s.mu.Lock()
	lines := make([]Line, len(s.lines))
	for i, line := range s.lines {
		if line.ID == lineID {
			line.Quantity = quantity
		}
		lines[i] = line
	}
	s.setLinesLocked(lines)
	s.mu.Unlock()

	s.notifier.Success("Cart updated")
	return nil
}

// Remove deletes one line
func (s *Store) Remove(ctx context.Context, lineID string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.gateway.DeleteCartLine(ctx, lineID); err != nil {
		s.logger.WithError(err).WithField("line_id", lineID).Error("Error removing from cart")
		s.notifier.Error("Failed to remove item")
		return err
	}

	s.mu.Lock()
	lines := make([]Line, 0, len(s.lines))
	for _, line := range s.lines {
		if line.ID != lineID {
			lines = append(lines, line)
		}
	}
	s.setLinesLocked(lines)
	s.mu.Unlock()

	s.notifier.Success("Item removed from cart")
	return nil
}

// Checkout hands a copy of the current lines to place while holding the
// operation lock, so no add, update or remove can interleave with it. The
// local cart is emptied only when place returns nil.
func (s *Store) Checkout(place func(lines []Line) error) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := place(s.Lines()); err != nil {
		return err
	}
	s.Clear()
	return nil
}

// Clear empties the local cart without contacting the gateway
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLinesLocked([]Line{})
}

// Lines returns a copy of the current lines
func (s *Store) Lines() []Line {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Line{}, s.lines...)
}

// Totals returns the current aggregates
func (s *Store) Totals() Totals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totals
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
	return State{
		Lines:       append([]Line{}, s.lines...),
		IsLoading:   s.isLoading,
		TotalItems:  s.totals.TotalItems,
		TotalAmount: s.totals.TotalAmount,
	}
}

// Persisted returns the state that survives a restart
func (s *Store) Persisted() Persisted {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Persisted{
		Lines:       append([]Line{}, s.lines...),
		TotalItems:  s.totals.TotalItems,
		TotalAmount: s.totals.TotalAmount,
	}
}

// Restore loads persisted state. Aggregates are recomputed from the lines.
func (s *Store) Restore(p Persisted) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := p.Lines
	if lines == nil {
		lines = []Line{}
	}
	s.setLinesLocked(lines)
	s.isLoading = false
}

func (s *Store) fetch(ctx context.Context, identityID string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	lines, err := s.gateway.ListCartLines(ctx, identityID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", identityID).Error("Error fetching cart")
		s.notifier.Error("Failed to load cart")
		return err
	}
	if lines == nil {
		lines = []Line{}
	}

	s.mu.Lock()
	s.setLinesLocked(lines)
	s.mu.Unlock()
	return nil
}

func (s *Store) setLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isLoading = loading
}

func (s *Store) setLinesLocked(lines []Line) {
	s.lines = lines
	s.totals = CalculateTotals(lines)
}
