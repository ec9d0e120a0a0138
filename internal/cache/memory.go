package cache

import (
	"slices"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache keeps vectors in process with per-entry expiry
type MemoryCache struct {
	vectors *gocache.Cache
}

// NewMemoryCache creates a memory cache; ttl <= 0 keeps entries until cleared
func NewMemoryCache(ttl time.Duration, cleanupInterval time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &MemoryCache{vectors: gocache.New(ttl, cleanupInterval)}
}

// Get returns a copy of the cached vector
func (c *MemoryCache) Get(key string) ([]float32, bool) {
	val, found := c.vectors.Get(key)
	if !found {
		return nil, false
	}
	vec, ok := val.([]float32)
	if !ok || len(vec) == 0 {
		return nil, false
	}
	return slices.Clone(vec), true
}

// Set stores a copy of vec; ttl 0 uses the cache default
func (c *MemoryCache) Set(key string, vec []float32, ttl time.Duration) error {
	if len(vec) == 0 {
		return ErrEmptyVector
	}
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.vectors.Set(key, slices.Clone(vec), ttl)
	return nil
}

// Delete removes a vector
func (c *MemoryCache) Delete(key string) error {
	c.vectors.Delete(key)
	return nil
}

// Clear removes every vector
func (c *MemoryCache) Clear() error {
	c.vectors.Flush()
	return nil
}

// Len returns the number of entries, including expired ones not yet evicted
func (c *MemoryCache) Len() int {
	return c.vectors.ItemCount()
}
