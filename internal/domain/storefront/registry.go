package storefront

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// buildTimeout bounds rehydrating and resuming a workspace that is not in memory
const buildTimeout = 10 * time.Second

// GatewayFactory returns the gateway client for one workspace
type GatewayFactory func(workspaceID string) Gateway

// Registry owns the live workspaces
type Registry struct {
	factory GatewayFactory
	opts    Options
	logger  logrus.FieldLogger
	now     func() time.Time

	group singleflight.Group

	mu         sync.RWMutex
	workspaces map[string]*Workspace
}

// NewRegistry creates an empty registry
func NewRegistry(factory GatewayFactory, opts Options) *Registry {
	return &Registry{
		factory:    factory,
		opts:       opts,
		logger:     opts.Logger,
		now:        time.Now,
		workspaces: make(map[string]*Workspace),
	}
}

// Get returns the live workspace for id, building it from persisted state
// and the gateway session when it is not in memory. The build is shared by
// every concurrent caller, so it does not inherit the first caller's
// cancellation.
func (r *Registry) Get(ctx context.Context, id string) (*Workspace, error) {
	r.mu.RLock()
	ws, ok := r.workspaces[id]
	r.mu.RUnlock()
	if ok {
		ws.Touch(r.now())
		return ws, nil
	}

	v, err, _ := r.group.Do(id, func() (interface{}, error) {
		r.mu.RLock()
		existing, ok := r.workspaces[id]
		r.mu.RUnlock()
		if ok {
			return existing, nil
		}

		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), buildTimeout)
		defer cancel()

		ws := New(id, r.factory(id), r.opts)
		if err := ws.Rehydrate(buildCtx); err != nil {
			return nil, err
		}
		if err := ws.Resume(buildCtx); err != nil {
			r.logger.WithError(err).WithField("workspace", id).Warn("Error resuming session")
		}

		r.mu.Lock()
		r.workspaces[id] = ws
		r.mu.Unlock()
		return ws, nil
	})
	if err != nil {
		return nil, err
	}

	ws = v.(*Workspace)
	ws.Touch(r.now())
	return ws, nil
}

// Len returns the number of live workspaces
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workspaces)
}

// Sweep persists and drops workspaces idle for longer than idle
func (r *Registry) Sweep(ctx context.Context, idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	expired := make([]*Workspace, 0)
	for id, ws := range r.workspaces {
		if ws.LastSeen().Before(cutoff) {
			expired = append(expired, ws)
			delete(r.workspaces, id)
		}
	}
	r.mu.Unlock()

	for _, ws := range expired {
		if err := ws.Persist(ctx); err != nil {
			r.logger.WithError(err).WithField("workspace", ws.ID).Error("Error persisting idle workspace")
		}
	}

	if len(expired) > 0 {
		r.logger.WithField("count", len(expired)).Debug("Swept idle workspaces")
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done
func (r *Registry) Run(ctx context.Context, every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx, idle)
		}
	}
}

// Shutdown persists every live workspace
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.RLock()
	workspaces := make([]*Workspace, 0, len(r.workspaces))
	for _, ws := range r.workspaces {
		workspaces = append(workspaces, ws)
	}
	r.mu.RUnlock()

	var firstErr error
	for _, ws := range workspaces {
		if err := ws.Persist(ctx); err != nil {
			r.logger.WithError(err).WithField("workspace", ws.ID).Error("Error persisting workspace")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
