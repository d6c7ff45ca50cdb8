package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"djvu-viewer/internal/djvu"
)

// ErrMiss is returned by SharedCache.Get when the key holds no live entry.
var ErrMiss = errors.New("cache: miss")

// SharedCache is a byte-oriented cache shared beyond the current process.
type SharedCache interface {
	// Get returns the value stored under key or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Name identifies the backend in logs and metrics.
	Name() string
}

// Policy controls cache keys and entry lifetime.
type Policy struct {
	KeyPrefix string
	TTL       time.Duration // zero keeps entries until evicted
}

// DefaultPolicy returns the prefix "djvu" with entries that never expire.
func DefaultPolicy() Policy {
	return Policy{KeyPrefix: "djvu"}
}

// DimensionsKey returns the key holding the page geometry of the document
// with the given content hash.
func (p Policy) DimensionsKey(sha string) string {
	return p.KeyPrefix + ":dimensions:" + sha
}

// entry is a cached lookup result: page geometry, or a marker recording
// that the document's metadata could not be used.
type entry struct {
	Failed bool                `json:"failed,omitempty"`
	Info   *djvu.DimensionInfo `json:"info,omitempty"`
}

func (e entry) result() (*djvu.DimensionInfo, error) {
	if e.Failed || e.Info == nil {
		return nil, fmt.Errorf("%w: no usable metadata", djvu.ErrMissingData)
	}
	return e.Info, nil
}

func (e entry) encode() ([]byte, error) {
	return json.Marshal(e)
}

func decodeEntry(data []byte) (entry, error) {
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return entry{}, err
	}
	if !e.Failed && e.Info == nil {
		return entry{}, errors.New("entry has neither geometry nor failure marker")
	}
	if e.Info != nil && len(e.Info.DimensionsByPage) != e.Info.PageCount {
		return entry{}, fmt.Errorf("entry lists %d pages for page count %d",
			len(e.Info.DimensionsByPage), e.Info.PageCount)
	}
	return e, nil
}
