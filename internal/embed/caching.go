package embed

import (
	"context"

	"github.com/ppiankov/factcheck/internal/cache"
	"github.com/ppiankov/factcheck/internal/logger"
)

// CachingEmbedder memoizes another embedder. Keys include the model name so
// switching models never serves stale vectors.
type CachingEmbedder struct {
	inner Embedder
	cache cache.Cache
}

// NewCachingEmbedder wraps inner with c
func NewCachingEmbedder(inner Embedder, c cache.Cache) *CachingEmbedder {
	return &CachingEmbedder{inner: inner, cache: c}
}

// Model returns the wrapped embedder's model
func (e *CachingEmbedder) Model() string { return e.inner.Model() }

// Dimensions returns the wrapped embedder's dimension
func (e *CachingEmbedder) Dimensions() int { return e.inner.Dimensions() }

// Embed implements Embedder
func (e *CachingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.Key(e.inner.Model(), text)
	if v, ok := e.cache.Get(key); ok {
		return v, nil
	}

	v, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.store(key, v)
	return v, nil
}

// EmbedBatch implements BatchEmbedder; only cache misses reach the backend
func (e *CachingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var missIdx []int
	var missTexts []string

	for i, t := range texts {
		keys[i] = cache.Key(e.inner.Model(), t)
		if v, ok := e.cache.Get(keys[i]); ok {
			out[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := EmbedAll(ctx, e.inner, missTexts, len(missTexts))
	if err != nil {
		return nil, err
	}
	for j, i := range missIdx {
		out[i] = vecs[j]
		e.store(keys[i], vecs[j])
	}
	return out, nil
}

func (e *CachingEmbedder) store(key string, v []float32) {
	if err := e.cache.Set(key, v, 0); err != nil {
		logger.Named("embed").Debug().Err(err).Msg("embedding cache write failed")
	}
}
