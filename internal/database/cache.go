package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// CacheGet returns the value stored under key. Missing and expired entries
// are ErrNotFound.
func (d *Database) CacheGet(ctx context.Context, key string) (value []byte, err error) {
	start := time.Now()
	defer func() { recordQuery("cache_get", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.db.QueryRowContext(ctx, `
		SELECT value FROM objectcache
		WHERE key = ? AND (expires_at = 0 OR expires_at > ?)
	`, key, time.Now().Unix()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return value, err
}

// CacheSet stores value under key. A ttl of zero never expires.
func (d *Database) CacheSet(ctx context.Context, key string, value []byte, ttl time.Duration) (err error) {
	start := time.Now()
	defer func() { recordQuery("cache_set", start, err) }()

	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).Unix()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO objectcache (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`, key, value, expiresAt)
	return err
}

// CacheDelete removes key. Deleting a missing key is not an error.
func (d *Database) CacheDelete(ctx context.Context, key string) (err error) {
	start := time.Now()
	defer func() { recordQuery("cache_delete", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, "DELETE FROM objectcache WHERE key = ?", key)
	return err
}

// PurgeExpiredCache removes expired cache entries.
func (d *Database) PurgeExpiredCache(ctx context.Context) (purged int64, err error) {
	start := time.Now()
	defer func() { recordQuery("cache_purge", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx,
		"DELETE FROM objectcache WHERE expires_at != 0 AND expires_at <= ?", time.Now().Unix())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
