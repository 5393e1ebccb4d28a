package storage

import (
	"context"
	"fmt"

	"fieldsync/internal/config"
)

// Store is a durable string key-value store. Values are opaque text;
// callers serialize before writing.
type Store interface {
	// Get returns ok=false when the key has never been written or was removed.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Open builds the backend named by cfg.Backend.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		return NewSQLiteStore(cfg.Path)
	case config.BackendCouch:
		return NewCouchStore(ctx, cfg.Couch.URL, cfg.Couch.Database)
	case config.BackendRedis:
		return NewRedisStore(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	case config.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
