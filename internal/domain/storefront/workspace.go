// Package storefront ties the per-visitor stores together. A Workspace holds
// everything one visitor's browser session keeps in memory.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/catalog"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/domain/session"
	"github.com/your-org/storefront/internal/domain/wishlist"
	"github.com/your-org/storefront/internal/notify"
	"github.com/your-org/storefront/internal/persist"
	"golang.org/x/sync/errgroup"
)

// Blob names under a workspace's key scope
const (
	AuthStorage     = "auth-storage"
	CartStorage     = "cart-storage"
	WishlistStorage = "wishlist-storage"
)

// Gateway is everything a workspace needs from the remote data gateway
type Gateway interface {
	session.Gateway
	cart.Gateway
	wishlist.Gateway
	checkout.Gateway
	catalog.ReviewWriter
}

// Options are shared by every workspace
type Options struct {
	Store      persist.Store
	KeyPrefix  string
	Checkout   config.CheckoutConfig
	ToastLimit int
	Logger     logrus.FieldLogger
}

// Workspace is one visitor's session, cart, wishlist and pending toasts
type Workspace struct {
	ID       string
	Session  *session.Store
	Cart     *cart.Store
	Wishlist *wishlist.Store
	Checkout *checkout.Service
	Reviews  catalog.ReviewWriter
	Toasts   *notify.Queue

	gateway Gateway
	store   persist.Store
	prefix  string
	logger  logrus.FieldLogger

	mu       sync.Mutex
	lastSeen time.Time
}

// New builds an empty workspace bound to gw
func New(id string, gw Gateway, opts Options) *Workspace {
	logger := opts.Logger.WithField("workspace", id)
	toasts := notify.NewQueue(opts.ToastLimit, logger)

	return &Workspace{
		ID:       id,
		Session:  session.NewStore(gw, logger),
		Cart:     cart.NewStore(gw, toasts, logger),
		Wishlist: wishlist.NewStore(gw, toasts, logger),
		Checkout: checkout.NewService(gw, opts.Checkout, logger),
		Reviews:  gw,
		Toasts:   toasts,
		gateway:  gw,
		store:    opts.Store,
		prefix:   opts.KeyPrefix,
		logger:   logger,
		lastSeen: time.Now(),
	}
}

// Rehydrate loads the persisted snapshots. A missing or unreadable blob
// leaves the matching store empty.
func (w *Workspace) Rehydrate(ctx context.Context) error {
	var auth session.Persisted
	if ok, err := w.load(ctx, AuthStorage, session.PersistVersion, &auth); err != nil {
		return err
	} else if ok {
		w.Session.Restore(auth)
	}

	var c cart.Persisted
	if ok, err := w.load(ctx, CartStorage, cart.PersistVersion, &c); err != nil {
		return err
	} else if ok {
		w.Cart.Restore(c)
	}

	var wl wishlist.Persisted
	if ok, err := w.load(ctx, WishlistStorage, wishlist.PersistVersion, &wl); err != nil {
		return err
	} else if ok {
		w.Wishlist.Restore(wl)
	}

	return nil
}

// Resume asks the gateway for the current session. When a user comes back
// the identity is refreshed and both lists are fetched concurrently; when the
// gateway has no session any stale local identity is dropped.
func (w *Workspace) Resume(ctx context.Context) error {
	w.Session.SetLoading(true)
	defer w.Session.SetLoading(false)

	raw, err := w.gateway.ResumeSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to resume session: %w", err)
	}

	if raw == nil {
		if w.Session.IsAuthenticated() {
			w.logger.Info("Gateway session ended, clearing local identity")
			w.Session.SetIdentity(nil)
			w.Reset()
		}
		return nil
	}

	identity := session.NormalizeIdentity(raw)
	w.Session.SetIdentity(identity)
	return w.LoadLists(ctx, identity.ID)
}

// LoadLists fetches cart and wishlist for identityID concurrently
func (w *Workspace) LoadLists(ctx context.Context, identityID string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Cart.Fetch(gctx, identityID)
	})
	g.Go(func() error {
		return w.Wishlist.Fetch(gctx, identityID)
	})
	return g.Wait()
}

// SignIn signs the visitor in and loads their lists
func (w *Workspace) SignIn(ctx context.Context, email, password string) error {
	if err := w.Session.SignIn(ctx, email, password); err != nil {
		return err
	}
	if identity := w.Session.Identity(); identity != nil {
		if err := w.LoadLists(ctx, identity.ID); err != nil {
			w.logger.WithError(err).Warn("Signed in but failed to load lists")
		}
	}
	return nil
}

// SignOut ends the session and drops the previous identity's lists
func (w *Workspace) SignOut(ctx context.Context) {
	w.Session.SignOut(ctx)
	w.Reset()
}

// Reset clears cart and wishlist locally
func (w *Workspace) Reset() {
	w.Cart.Clear()
	w.Wishlist.Clear()
}

// Persist saves the three snapshots
func (w *Workspace) Persist(ctx context.Context) error {
	if err := persist.SaveState(ctx, w.store, w.key(AuthStorage), session.PersistVersion, w.Session.Persisted()); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	if err := persist.SaveState(ctx, w.store, w.key(CartStorage), cart.PersistVersion, w.Cart.Persisted()); err != nil {
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	if err := persist.SaveState(ctx, w.store, w.key(WishlistStorage), wishlist.PersistVersion, w.Wishlist.Persisted()); err != nil {
		return fmt.Errorf("failed to persist wishlist: %w", err)
	}
	return nil
}

// Touch marks the workspace as used now
func (w *Workspace) Touch(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastSeen = now
}

// LastSeen returns when the workspace was last used
func (w *Workspace) LastSeen() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

func (w *Workspace) key(name string) string {
	return persist.Key(w.prefix, w.ID, name)
}

func (w *Workspace) load(ctx context.Context, name string, version int, dest any) (bool, error) {
	err := persist.LoadState(ctx, w.store, w.key(name), version, dest)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, persist.ErrNotFound):
		return false, nil
	case errors.Is(err, persist.ErrIncompatible):
		w.logger.WithError(err).WithField("blob", name).Warn("Discarding persisted state")
		return false, nil
	default:
		return false, fmt.Errorf("failed to load %s: %w", name, err)
	}
}
