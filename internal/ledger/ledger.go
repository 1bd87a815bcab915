// Package ledger owns the append-only sequence of cost items and the user
// total projection computed over it.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"costmanager/internal/core"
)

// Store is the persistence port behind the ledger. Implementations must
// return items from Scan in insertion order. Ping must not read the items.
type Store interface {
	Append(ctx context.Context, item core.CostItem) error
	Scan(ctx context.Context) ([]core.CostItem, error)
	Ping(ctx context.Context) error
}

// Clock supplies the creation timestamp for new items.
type Clock func() time.Time

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(l *Ledger) {
		if c != nil {
			l.now = c
		}
	}
}

// Ledger is the single write path for cost items.
type Ledger struct {
	mu    sync.Mutex
	store Store
	now   Clock
	last  time.Time
}

// New creates a ledger backed by store.
func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Add validates the input, stamps it with the ledger clock and appends it.
// Nothing is stored when validation fails.
func (l *Ledger) Add(ctx context.Context, userID, description, category string, sum float64) (core.CostItem, error) {
	item := core.CostItem{
		UserID:      strings.TrimSpace(userID),
		Description: strings.TrimSpace(description),
		Category:    strings.TrimSpace(category),
		Sum:         sum,
	}
	if err := item.Validate(); err != nil {
		return core.CostItem{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Dates never go backwards in insertion order, even if the clock does.
	now := l.now().UTC()
	if now.Before(l.last) {
		now = l.last
	}
	item.Date = now

	if err := l.store.Append(ctx, item); err != nil {
		return core.CostItem{}, fmt.Errorf("append cost item: %w", err)
	}
	l.last = now
	return item, nil
}

// All returns every cost item in insertion order.
func (l *Ledger) All(ctx context.Context) ([]core.CostItem, error) {
	items, err := l.store.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan ledger: %w", err)
	}
	return items, nil
}

// Ping checks that the backing store is reachable.
func (l *Ledger) Ping(ctx context.Context) error {
	if err := l.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping store: %w", err)
	}
	return nil
}
