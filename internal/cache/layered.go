package cache

import (
	"errors"
	"time"
)

// LayeredCache puts a memory cache in front of a disk cache. Vectors
// embedded by an earlier process are served from disk and promoted.
type LayeredCache struct {
	memory *MemoryCache
	disk   *DiskCache
}

// NewLayeredCache creates a memory layer over a disk layer rooted at diskDir
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(memoryTTL, 10*time.Minute),
		disk:   NewDiskCache(diskDir, diskTTL),
	}
}

// Get checks memory, then disk
func (c *LayeredCache) Get(key string) ([]float32, bool) {
	if vec, ok := c.memory.Get(key); ok {
		return vec, true
	}
	vec, ok := c.disk.Get(key)
	if !ok {
		return nil, false
	}
	_ = c.memory.Set(key, vec, 0)
	return vec, true
}

// Set writes both layers. A disk failure leaves the memory copy in place.
func (c *LayeredCache) Set(key string, vec []float32, ttl time.Duration) error {
	if err := c.memory.Set(key, vec, ttl); err != nil {
		return err
	}
	return c.disk.Set(key, vec, 0)
}

// Delete removes the vector from both layers
func (c *LayeredCache) Delete(key string) error {
	return errors.Join(c.memory.Delete(key), c.disk.Delete(key))
}

// Clear empties both layers
func (c *LayeredCache) Clear() error {
	return errors.Join(c.memory.Clear(), c.disk.Clear())
}
