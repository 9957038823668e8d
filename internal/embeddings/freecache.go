package embeddings

import (
	"context"
	"errors"
	"time"

	"github.com/coocood/freecache"

	"github.com/spigell/talentmatch/internal/matching"
)

// minCacheSize mirrors the smallest size freecache accepts.
const minCacheSize = 512 * 1024

// Memory is an in-process cache backed by freecache.
type Memory struct {
	cache     *freecache.Cache
	ttlSecond int
}

// NewMemory allocates sizeBytes for the cache. A ttl of zero keeps entries
// until they are evicted.
func NewMemory(sizeBytes int, ttl time.Duration) *Memory {
	return &Memory{
		cache:     freecache.NewCache(max(sizeBytes, minCacheSize)),
		ttlSecond: int(ttl / time.Second),
	}
}

func (m *Memory) Get(_ context.Context, key string) (matching.Vector, bool, error) {
	data, err := m.cache.Get([]byte(key))
	if errors.Is(err, freecache.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	vec, err := decode(data)
	if err != nil {
		m.cache.Del([]byte(key))
		return nil, false, err
	}
	return vec, true, nil
}

func (m *Memory) Set(_ context.Context, key string, vec matching.Vector) error {
	return m.cache.Set([]byte(key), encode(vec), m.ttlSecond)
}

// HitRate reports the ratio of hits to lookups.
func (m *Memory) HitRate() float64 {
	return m.cache.HitRate()
}

func (m *Memory) EntryCount() int64 {
	return m.cache.EntryCount()
}
