// Package cache memoizes embedding vectors in memory and on disk.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// Cache stores embedding vectors by key. Implementations keep their own
// copy of a vector, so callers may modify what they pass in or get back.
type Cache interface {
	Get(key string) ([]float32, bool)
	Set(key string, vec []float32, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// ErrEmptyVector is returned when storing a vector with no components
var ErrEmptyVector = errors.New("cache: empty vector")

const keyPrefix = "factcheck:v1:"

// Key derives a cache key from its parts (e.g. embedding model and text).
// Parts are separated by NUL so ("ab","c") and ("a","bc") differ.
func Key(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// New builds the cache described by the arguments: a memory cache alone
// when dir is empty, memory over disk otherwise.
func New(memoryTTL time.Duration, dir string, diskTTL time.Duration) Cache {
	if dir == "" {
		return NewMemoryCache(memoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(memoryTTL, dir, diskTTL)
}
