package ledger

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"costmanager/internal/core"
	"costmanager/internal/storage/memory"
)

// stepClock returns a fixed sequence of instants.
type stepClock struct {
	mu    sync.Mutex
	times []time.Time
	i     int
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.times[c.i]
	if c.i < len(c.times)-1 {
		c.i++
	}
	return t
}

type failingStore struct{}

func (failingStore) Append(context.Context, core.CostItem) error {
	return errors.New("disk full")
}

func (failingStore) Scan(context.Context) ([]core.CostItem, error) {
	return nil, errors.New("disk gone")
}

func (failingStore) Ping(context.Context) error { return errors.New("disk gone") }

func TestAddAssignsClockDate(t *testing.T) {
	at := time.Date(2025, 2, 14, 9, 30, 0, 0, time.UTC)
	store := memory.New()
	l := New(store, WithClock(func() time.Time { return at }))

	item, err := l.Add(context.Background(), "123123", "milk", "food", 15)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !item.Date.Equal(at) {
		t.Fatalf("expected date %v, got %v", at, item.Date)
	}
	if item.UserID != "123123" || item.Description != "milk" || item.Category != "food" || item.Sum != 15 {
		t.Fatalf("unexpected item %+v", item)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one stored item, got %d", store.Len())
	}
}

func TestAddRejectsInvalidWithoutWriting(t *testing.T) {
	store := memory.New()
	l := New(store)
	ctx := context.Background()

	cases := []struct {
		name            string
		user, desc, cat string
		sum             float64
	}{
		{"negative sum", "u", "d", "c", -5},
		{"empty user", "", "d", "c", 10},
		{"empty description", "u", " ", "c", 10},
		{"empty category", "u", "d", "", 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.Add(ctx, tc.user, tc.desc, tc.cat, tc.sum)
			if !errors.Is(err, core.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if store.Len() != 0 {
		t.Fatalf("invalid adds must not write, got %d items", store.Len())
	}
}

func TestAddTrimsFields(t *testing.T) {
	l := New(memory.New())
	item, err := l.Add(context.Background(), " 42 ", " coffee ", " food ", 2.5)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if item.UserID != "42" || item.Description != "coffee" || item.Category != "food" {
		t.Fatalf("fields not trimmed: %+v", item)
	}
}

func TestAddDatesNeverGoBackwards(t *testing.T) {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := &stepClock{times: []time.Time{base, base.Add(-time.Hour), base.Add(time.Minute)}}
	l := New(memory.New(), WithClock(clock.Now))
	ctx := context.Background()

	var dates []time.Time
	for i := 0; i < 3; i++ {
		item, err := l.Add(ctx, "u", "d", "c", 1)
		if err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
		dates = append(dates, item.Date)
	}
	for i := 1; i < len(dates); i++ {
		if dates[i].Before(dates[i-1]) {
			t.Fatalf("date %d (%v) before date %d (%v)", i, dates[i], i-1, dates[i-1])
		}
	}
}

func TestAddStoreFailure(t *testing.T) {
	l := New(failingStore{})
	_, err := l.Add(context.Background(), "u", "d", "c", 1)
	if err == nil || errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if _, err := l.All(context.Background()); err == nil {
		t.Fatalf("expected scan error")
	}
}

func TestConcurrentAddsAreAllStored(t *testing.T) {
	store := memory.New()
	l := New(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Add(ctx, "u", "d", "c", 1); err != nil {
				t.Errorf("add: %v", err)
			}
		}()
	}
	wg.Wait()

	items, err := l.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(items) != 50 {
		t.Fatalf("expected 50 items, got %d", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i].Date.Before(items[i-1].Date) {
			t.Fatalf("insertion order and date order disagree at %d", i)
		}
	}
}

func TestPingDelegatesToStore(t *testing.T) {
	if err := New(memory.New()).Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	err := New(failingStore{}).Ping(context.Background())
	if err == nil || !strings.Contains(err.Error(), "ping store") {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}
