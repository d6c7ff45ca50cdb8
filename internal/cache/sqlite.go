package cache

import (
	"context"
	"errors"
	"time"

	"djvu-viewer/internal/database"
)

// SQLiteCache stores entries in the objectcache table of the service database.
type SQLiteCache struct {
	db *database.Database
}

// NewSQLiteCache returns a SharedCache backed by db.
func NewSQLiteCache(db *database.Database) *SQLiteCache {
	return &SQLiteCache{db: db}
}

func (c *SQLiteCache) Name() string { return "sqlite" }

func (c *SQLiteCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.db.CacheGet(ctx, key)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrMiss
	}
	return value, err
}

func (c *SQLiteCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.db.CacheSet(ctx, key, value, ttl)
}

func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	return c.db.CacheDelete(ctx, key)
}
