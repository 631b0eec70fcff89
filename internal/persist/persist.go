// Package persist is the key/value blob store that keeps visitor state
// across process restarts.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNotFound is returned when no blob exists under a key
	ErrNotFound = errors.New("persisted state not found")
	// ErrIncompatible is returned for blobs written by another schema version
	ErrIncompatible = errors.New("persisted state has an incompatible version")
)

// Store is an opaque blob store
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

type envelope struct {
	Version int             `json:"version"`
	State   json.RawMessage `json:"state"`
}

// Encode wraps state in a versioned envelope
func Encode(version int, state any) ([]byte, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal state failed: %w", err)
	}
	return json.Marshal(envelope{Version: version, State: raw})
}

// Decode unwraps a versioned envelope into dest. Any blob that is not a
// well-formed envelope of the expected version yields ErrIncompatible.
func Decode(data []byte, version int, dest any) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrIncompatible, err)
	}
	if env.Version != version || len(env.State) == 0 {
		return fmt.Errorf("%w: got version %d, want %d", ErrIncompatible, env.Version, version)
	}
	if err := json.Unmarshal(env.State, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrIncompatible, err)
	}
	return nil
}

// SaveState encodes state and stores it under key
func SaveState(ctx context.Context, store Store, key string, version int, state any) error {
	data, err := Encode(version, state)
	if err != nil {
		return err
	}
	return store.Save(ctx, key, data)
}

// LoadState loads and decodes the blob under key into dest
func LoadState(ctx context.Context, store Store, key string, version int, dest any) error {
	data, err := store.Load(ctx, key)
	if err != nil {
		return err
	}
	return Decode(data, version, dest)
}

// Key builds the blob key for one visitor scope
func Key(prefix, scope, name string) string {
	return fmt.Sprintf("%s:%s:%s", prefix, scope, name)
}

// MemoryStore keeps blobs in process memory
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (m *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStore) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}
