package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"djvu-viewer/internal/logging"
)

// BadgerCache stores entries in a badger key-value directory.
type BadgerCache struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a badger store in dir. An empty dir keeps
// the store in memory.
func OpenBadger(dir string) (*BadgerCache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(logging.BadgerLogger{})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger cache at %q: %w", dir, err)
	}
	logging.Info("Badger cache opened at %s", dir)
	return &BadgerCache{db: db}, nil
}

func (c *BadgerCache) Name() string { return "badger" }

func (c *BadgerCache) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrMiss
	}
	return value, err
}

func (c *BadgerCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

func (c *BadgerCache) Delete(_ context.Context, key string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// RunGC reclaims value log space. It returns nil when there was nothing to
// rewrite.
func (c *BadgerCache) RunGC() error {
	err := c.db.RunValueLogGC(0.5)
	if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
		return nil
	}
	return err
}

// Close flushes and closes the store.
func (c *BadgerCache) Close() error {
	return c.db.Close()
}
