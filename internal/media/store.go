package media

import (
	"context"
	"sync"

	"djvu-viewer/internal/database"
)

// MemoryStore is a Store held in memory, used by the command line tool and
// tests.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]string)}
}

func (s *MemoryStore) GetMetadata(_ context.Context, sha string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[sha]
	if !ok {
		return "", database.ErrNotFound
	}
	return blob, nil
}

func (s *MemoryStore) SetMetadata(_ context.Context, sha, blob string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[sha] = blob
	return nil
}
