package app

import (
	"context"
	"fmt"

	"github.com/taskloop/taskloop/internal/auth"
	"github.com/taskloop/taskloop/internal/platform/cache"
	"github.com/taskloop/taskloop/internal/platform/db"
	"github.com/taskloop/taskloop/internal/todo"
)

// Stores bundles the configured store drivers and their cleanup.
type Stores struct {
	Auth  auth.Store
	Todos todo.Store
	close func()
}

// Close releases any underlying connections.
func (s *Stores) Close() {
	if s != nil && s.close != nil {
		s.close()
	}
}

// NewStores builds the auth and todo stores selected by STORE_DRIVER.
func NewStores(ctx context.Context, cfg *Config) (*Stores, error) {
	switch cfg.StoreDriver {
	case "memory":
		return &Stores{Auth: auth.NewMemoryStore(), Todos: todo.NewMemoryStore()}, nil
	case "redis":
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Auth:  auth.NewRedisStore(client),
			Todos: todo.NewRedisStore(client),
			close: func() { _ = client.Close() },
		}, nil
	case "postgres":
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		// Todos stay in memory; the original kept them unpersisted and only
		// user records have a schema.
		return &Stores{
			Auth:  auth.NewPGStore(pool),
			Todos: todo.NewMemoryStore(),
			close: pool.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
