package items

import (
	"context"
	"fmt"

	"insider-hq/relay/pkg/config"
)

// Store persists items. Implementations are safe for concurrent use and
// return items in insertion order; replacing an item keeps its position.
type Store interface {
	// Get returns the item at path or an error wrapping ErrNotFound.
	Get(ctx context.Context, path string) (*Item, error)

	// Put inserts or replaces the item at it.Path.
	Put(ctx context.Context, it *Item) error

	// List returns the items of one kind, or all items when kind is "".
	List(ctx context.Context, kind string) ([]*Item, error)

	// Delete removes the item at path. Deleting a missing item returns an
	// error wrapping ErrNotFound.
	Delete(ctx context.Context, path string) error

	// Close releases the backend.
	Close() error
}

// Maintainer is implemented by stores needing periodic housekeeping.
type Maintainer interface {
	Maintain(ctx context.Context) error
}

// Open creates the store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.ItemsConfig) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(ctx, cfg.SQLite)
	case "redis":
		return NewRedisStore(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown items backend %q", cfg.Backend)
	}
}
