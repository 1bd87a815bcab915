package memory

import (
	"context"
	"sync"

	"costmanager/internal/core"
)

// Store keeps cost items in a slice guarded by a RWMutex. Appends are atomic
// with respect to Scan.
type Store struct {
	mu    sync.RWMutex
	items []core.CostItem
}

func New() *Store {
	return &Store{}
}

// Append stores the item at the end of the sequence.
func (s *Store) Append(ctx context.Context, item core.CostItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, item)
	return nil
}

// Ping reports ctx errors only; the slice is always available.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Scan returns a copy of every item in insertion order.
func (s *Store) Scan(ctx context.Context) ([]core.CostItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.CostItem, len(s.items))
	copy(out, s.items)
	return out, nil
}

// Len returns the number of stored items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
