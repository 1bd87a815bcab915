package backend

import (
	"context"
	"time"

	"costmanager/internal/ledger"
	"costmanager/internal/services"
	"costmanager/internal/users"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds the collaborators the cost service is built from.
type BackendResult struct {
	Store    ledger.Store
	Registry users.Registry
	// Publisher is nil when no broker is configured or reachable.
	Publisher services.Publisher
	// UserCache is the cache in front of Registry.
	UserCache *users.CachedRegistry
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// AMQP (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// User registry
	UsersSeedFile string
	UserCacheSize int
	UserCacheTTL  time.Duration
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
