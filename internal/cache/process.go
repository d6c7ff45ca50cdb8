package cache

import (
	"sync"

	"djvu-viewer/internal/metrics"
)

// ProcessCache is the in-process mirror of the shared cache. The mutex only
// keeps the map memory-safe; callers may still compute the same entry twice.
type ProcessCache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewProcessCache returns an empty ProcessCache.
func NewProcessCache() *ProcessCache {
	return &ProcessCache{entries: make(map[string]entry)}
}

func (c *ProcessCache) get(key string) (entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

func (c *ProcessCache) set(key string, e entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
	metrics.CacheProcessEntries.Set(float64(len(c.entries)))
}

func (c *ProcessCache) delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	metrics.CacheProcessEntries.Set(float64(len(c.entries)))
}

// Len returns the number of mirrored entries.
func (c *ProcessCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every mirrored entry.
func (c *ProcessCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	metrics.CacheProcessEntries.Set(0)
}
