package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"djvu-viewer/internal/djvu"
	"djvu-viewer/internal/logging"
	"djvu-viewer/internal/metrics"
)

// File identifies a document by its content hash.
type File interface {
	SHA() string
}

// TreeLoader produces the geometry tree of a document on a cache miss.
// A nil tree with a nil error means the document has no geometry.
type TreeLoader interface {
	MetaTree(ctx context.Context, file File) (*djvu.Node, error)
}

// Service answers page geometry lookups through the process and shared tiers.
type Service struct {
	shared  SharedCache
	process *ProcessCache
	policy  Policy
	loader  TreeLoader
}

// NewService returns a Service over shared. A nil shared cache is replaced
// by a MemoryCache.
func NewService(shared SharedCache, policy Policy, loader TreeLoader) *Service {
	if shared == nil {
		shared = NewMemoryCache()
	}
	if policy.KeyPrefix == "" {
		policy.KeyPrefix = DefaultPolicy().KeyPrefix
	}
	return &Service{
		shared:  shared,
		process: NewProcessCache(),
		policy:  policy,
		loader:  loader,
	}
}

// Process returns the process-local tier.
func (s *Service) Process() *ProcessCache { return s.process }

// Backend returns the name of the shared tier.
func (s *Service) Backend() string { return s.shared.Name() }

// DimensionInfo returns the page geometry of file. Documents whose metadata
// is missing or unparsable are remembered as failed and yield
// djvu.ErrMissingData without consulting the loader again. Corrupt metadata
// and loader errors such as I/O failures are returned and never cached.
func (s *Service) DimensionInfo(ctx context.Context, file File) (*djvu.DimensionInfo, error) {
	sha := file.SHA()
	if sha == "" {
		return nil, fmt.Errorf("%w: file has no content hash", djvu.ErrMissingData)
	}
	key := s.policy.DimensionsKey(sha)

	if e, ok := s.process.get(key); ok {
		recordLookup("process", e)
		return e.result()
	}
	metrics.CacheRequestsTotal.WithLabelValues("process", "miss").Inc()

	if e, ok := s.lookupShared(ctx, key); ok {
		recordLookup("shared", e)
		s.process.set(key, e)
		return e.result()
	}
	metrics.CacheRequestsTotal.WithLabelValues("shared", "miss").Inc()
	logging.Debug("Dimension cache miss for %s", key)

	meta, err := s.loader.MetaTree(ctx, file)
	var e entry
	switch {
	case err == nil && meta != nil:
		e.Info = djvu.ExtractDimensions(meta)
	case err == nil, errors.Is(err, djvu.ErrInvalid), errors.Is(err, djvu.ErrMissingData):
		logging.Debug("Recording failed dimension extraction for %s: %v", key, err)
		e.Failed = true
	default:
		return nil, err
	}

	s.store(ctx, key, e)
	return e.result()
}

// Invalidate drops the cached geometry of file from both tiers.
func (s *Service) Invalidate(ctx context.Context, file File) error {
	key := s.policy.DimensionsKey(file.SHA())
	s.process.delete(key)
	return s.shared.Delete(ctx, key)
}

func (s *Service) lookupShared(ctx context.Context, key string) (entry, bool) {
	data, err := s.shared.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			logging.Warn("Shared cache (%s) lookup failed for %s: %v", s.shared.Name(), key, err)
		}
		return entry{}, false
	}

	e, err := decodeEntry(data)
	if err != nil {
		logging.Warn("Ignoring unreadable cache entry %s: %v", key, err)
		return entry{}, false
	}
	return e, true
}

// store writes e to both tiers. A failed shared write only costs a
// recomputation later, so it is logged and not returned.
func (s *Service) store(ctx context.Context, key string, e entry) {
	s.process.set(key, e)

	data, err := e.encode()
	if err == nil {
		err = s.shared.Set(ctx, key, data, s.policy.TTL)
	}
	status := "success"
	if err != nil {
		status = "error"
		logging.Warn("Shared cache (%s) write failed for %s: %v", s.shared.Name(), key, err)
	}
	metrics.CacheWritesTotal.WithLabelValues(s.shared.Name(), status).Inc()
}

func recordLookup(tier string, e entry) {
	result := "hit"
	if e.Failed {
		result = "failed"
	}
	metrics.CacheRequestsTotal.WithLabelValues(tier, result).Inc()
}

// ParseBackend normalizes a CACHE_BACKEND value.
func ParseBackend(s string) (string, error) {
	switch b := strings.ToLower(strings.TrimSpace(s)); b {
	case "", "sqlite":
		return "sqlite", nil
	case "badger", "memory":
		return b, nil
	default:
		return "", fmt.Errorf("unknown cache backend %q (want sqlite, badger or memory)", s)
	}
}
