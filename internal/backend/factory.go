package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"costmanager/internal/amqp"
	"costmanager/internal/cache"
	"costmanager/internal/core"
	applog "costmanager/internal/log"
	"costmanager/internal/storage"
	"costmanager/internal/storage/memory"
	"costmanager/internal/users"
)

const (
	defaultUserCacheSize = 256
	defaultUserCacheTTL  = 5 * time.Minute
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	seed, err := users.LoadSeedFile(config.UsersSeedFile)
	if err != nil {
		return nil, fmt.Errorf("load users seed: %w", err)
	}

	var result *BackendResult
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(ctx, config, seed)
	case MemoryBackend:
		result, err = f.createMemoryBackend(seed)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	f.wrapRegistryCache(result, config)
	f.attachPublisher(result, config)
	return result, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config, seed []core.User) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	if err := repo.UpsertUsers(ctx, seed); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("seed users: %w", err)
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"seeded_users", len(seed))

	return &BackendResult{
		Store:    repo,
		Registry: repo,
		Cleanup:  repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(seed []core.User) (*BackendResult, error) {
	f.logger.Info("Initialized memory backend", "seeded_users", len(seed))

	return &BackendResult{
		Store:    memory.New(),
		Registry: users.NewMemoryRegistry(seed),
	}, nil
}

// wrapRegistryCache fronts the registry with a TTL LRU cache swept in the
// background.
func (f *DefaultFactory) wrapRegistryCache(result *BackendResult, config Config) {
	size, ttl := config.UserCacheSize, config.UserCacheTTL
	if size <= 0 {
		size = defaultUserCacheSize
	}
	if ttl <= 0 {
		ttl = defaultUserCacheTTL
	}

	lru := cache.NewLRUCache[core.User](size, ttl)
	result.UserCache = users.NewCachedRegistry(result.Registry, lru)
	result.Registry = result.UserCache

	manager := cache.NewManager()
	manager.Register(lru)
	manager.StartCleanup(ttl)

	result.Cleanup = chainCleanup(func() error {
		manager.Stop()
		return nil
	}, result.Cleanup)
}

// attachPublisher connects to the broker when configured. An unreachable
// broker is logged and the backend runs without events.
func (f *DefaultFactory) attachPublisher(result *BackendResult, config Config) {
	if config.AMQPURL == "" {
		return
	}

	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		return
	}

	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	result.Publisher = client
	result.Cleanup = chainCleanup(client.Close, result.Cleanup)
}

// chainCleanup runs first then rest, joining their errors.
func chainCleanup(first, rest CleanupFunc) CleanupFunc {
	return func() error {
		var errs []error
		if first != nil {
			errs = append(errs, first())
		}
		if rest != nil {
			errs = append(errs, rest())
		}
		return errors.Join(errs...)
	}
}
