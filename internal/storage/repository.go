package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"costmanager/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists the ledger and the user registry in one SQLite
// database. Cost rows are ordered by an autoincrement sequence.
type SQLiteRepository struct {
	db            *sql.DB
	schemaVersion uint
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// One writer keeps appends serialized at the driver level too.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	latest, err := latestMigrationVersion()
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db, schemaVersion: latest}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection and that the schema is clean and at
// the latest embedded migration. It implements ledger.Store.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	version, dirty, err := r.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("schema version %d is dirty", version)
	}
	if version < r.schemaVersion {
		return fmt.Errorf("schema version %d behind %d", version, r.schemaVersion)
	}
	return nil
}

// SchemaVersion reads the applied migration version from the
// golang-migrate bookkeeping table.
func (r *SQLiteRepository) SchemaVersion(ctx context.Context) (uint, bool, error) {
	var (
		version int64
		dirty   bool
	)
	err := r.db.QueryRowContext(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).
		Scan(&version, &dirty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return uint(version), dirty, nil
}

// Append implements ledger.Store.
func (r *SQLiteRepository) Append(ctx context.Context, item core.CostItem) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO costs (user_id, description, category, amount, created_ns) VALUES (?, ?, ?, ?, ?)`,
		item.UserID, item.Description, item.Category, item.Sum, item.Date.UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("insert cost: %w", err)
	}

	seq, _ := res.LastInsertId()
	slog.DebugContext(ctx, "Cost saved to SQLite",
		"seq", seq,
		"user_id", item.UserID,
		"category", item.Category,
		"sum", item.Sum)
	return nil
}

// Scan implements ledger.Store.
func (r *SQLiteRepository) Scan(ctx context.Context) ([]core.CostItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, description, category, amount, created_ns FROM costs ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query costs: %w", err)
	}
	defer rows.Close()

	var items []core.CostItem
	for rows.Next() {
		var (
			it        core.CostItem
			createdNs int64
		)
		if err := rows.Scan(&it.UserID, &it.Description, &it.Category, &it.Sum, &createdNs); err != nil {
			return nil, fmt.Errorf("scan cost row: %w", err)
		}
		it.Date = time.Unix(0, createdNs).UTC()
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate costs: %w", err)
	}
	return items, nil
}

// Get implements users.Registry.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, first_name, last_name FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.FirstName, &u.LastName)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("user %q: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// UpsertUsers inserts or updates registry entries in one transaction.
func (r *SQLiteRepository) UpsertUsers(ctx context.Context, users []core.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO users (id, first_name, last_name) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET first_name = excluded.first_name, last_name = excluded.last_name`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, u := range users {
		if _, err := stmt.ExecContext(ctx, u.ID, u.FirstName, u.LastName); err != nil {
			return fmt.Errorf("upsert user %q: %w", u.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit users: %w", err)
	}
	slog.InfoContext(ctx, "User registry seeded", "count", len(users))
	return nil
}
