package governance

import (
	"context"
	"fmt"
	"sync"
)

// Store is the append-only persistence collaborator for governance updates.
// No external read surface is required for this stream; Recent exists for
// operational inspection only.
type Store interface {
	Append(ctx context.Context, update Update) error
	Recent(ctx context.Context, limit int) ([]Update, error)
}

// PersistenceError reports a failed operation against the tender_updates stream.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s on tender_updates failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// MemoryStore is a transient Store for tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	updates []Update
}

// NewMemoryStore creates an empty in-memory update store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(ctx context.Context, update Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, update)
	return nil
}

func (s *MemoryStore) Recent(ctx context.Context, limit int) ([]Update, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.updates)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Update, 0, n)
	for i := len(s.updates) - 1; i >= len(s.updates)-n; i-- {
		out = append(out, s.updates[i])
	}
	return out, nil
}
