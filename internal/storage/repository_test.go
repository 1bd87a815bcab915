package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"costmanager/internal/core"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "costs.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestAppendAndScanPreservesOrder(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 2, 10, 8, 0, 0, 123456789, time.UTC)

	want := []core.CostItem{
		{UserID: "123123", Description: "milk", Category: "food", Sum: 15, Date: base},
		{UserID: "123123", Description: "bus", Category: "transport", Sum: 5.25, Date: base.Add(time.Second)},
		{UserID: "7", Description: "rent", Category: "housing", Sum: 0, Date: base.Add(2 * time.Second)},
	}
	for _, it := range want {
		if err := repo.Append(ctx, it); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := repo.Scan(ctx)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].UserID != want[i].UserID || got[i].Description != want[i].Description ||
			got[i].Category != want[i].Category || got[i].Sum != want[i].Sum || !got[i].Date.Equal(want[i].Date) {
			t.Fatalf("item %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	repo, path := newTestRepo(t)
	ctx := context.Background()
	if err := repo.Append(ctx, core.CostItem{UserID: "u", Description: "d", Category: "c", Sum: 1, Date: time.Now()}); err != nil {
		t.Fatalf("append: %v", err)
	}
	repo.Close()

	again, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	items, err := again.Scan(ctx)
	if err != nil || len(items) != 1 {
		t.Fatalf("expected 1 item after reopen, got %d err=%v", len(items), err)
	}

	version, dirty, err := again.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if version != 2 || dirty {
		t.Fatalf("expected clean version 2, got %d dirty=%v", version, dirty)
	}
}

func TestUserRegistry(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Get(ctx, "123123"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	users := []core.User{{ID: "123123", FirstName: "mosh", LastName: "israeli"}}
	if err := repo.UpsertUsers(ctx, users); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	u, err := repo.Get(ctx, "123123")
	if err != nil || u.FirstName != "mosh" || u.LastName != "israeli" {
		t.Fatalf("unexpected user %+v err=%v", u, err)
	}

	// Upsert updates in place.
	users[0].LastName = "cohen"
	if err := repo.UpsertUsers(ctx, users); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	u, _ = repo.Get(ctx, "123123")
	if u.LastName != "cohen" {
		t.Fatalf("expected updated last name, got %+v", u)
	}
}

func TestPing(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	if _, err := repo.db.ExecContext(ctx, `UPDATE schema_migrations SET dirty = 1`); err != nil {
		t.Fatalf("mark dirty: %v", err)
	}
	if err := repo.Ping(ctx); err == nil || !strings.Contains(err.Error(), "dirty") {
		t.Fatalf("expected dirty schema error, got %v", err)
	}

	if _, err := repo.db.ExecContext(ctx, `UPDATE schema_migrations SET version = 1, dirty = 0`); err != nil {
		t.Fatalf("rewind version: %v", err)
	}
	if err := repo.Ping(ctx); err == nil || !strings.Contains(err.Error(), "behind 2") {
		t.Fatalf("expected outdated schema error, got %v", err)
	}
}

func TestLatestMigrationVersion(t *testing.T) {
	v, err := latestMigrationVersion()
	if err != nil || v != 2 {
		t.Fatalf("latestMigrationVersion() = %d, %v", v, err)
	}
}
