package ledger

import (
	"context"
	"testing"

	"costmanager/internal/storage/memory"
)

func TestGetUserTotals(t *testing.T) {
	l := New(memory.New())
	v := NewUserView(l)
	ctx := context.Background()

	adds := []struct {
		user string
		sum  float64
	}{
		{"123123", 15},
		{"999", 100},
		{"123123", 5},
		{"999", 0.1},
		{"999", 0.2},
	}
	for _, a := range adds {
		if _, err := l.Add(ctx, a.user, "item", "food", a.sum); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	got, err := v.GetUser(ctx, "123123")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.UserID != "123123" || got.Total != 20 {
		t.Fatalf("expected {123123 20}, got %+v", got)
	}

	other, _ := v.GetUser(ctx, "999")
	if other.Total != 100.3 {
		t.Fatalf("expected exact 100.3, got %v", other.Total)
	}
}

func TestGetUserWithoutItemsIsZero(t *testing.T) {
	l := New(memory.New())
	v := NewUserView(l)
	if _, err := l.Add(context.Background(), "someone", "x", "y", 3); err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := v.GetUser(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Total != 0 || got.UserID != "nobody" {
		t.Fatalf("expected zero total, got %+v", got)
	}
}

func TestGetUserMatchesExactly(t *testing.T) {
	l := New(memory.New())
	v := NewUserView(l)
	ctx := context.Background()
	_, _ = l.Add(ctx, "12", "x", "y", 1)
	_, _ = l.Add(ctx, "123", "x", "y", 2)

	got, _ := v.GetUser(ctx, "12")
	if got.Total != 1 {
		t.Fatalf("prefix ids must not match, got %v", got.Total)
	}
}
