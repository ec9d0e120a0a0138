// Package embed maps text to dense vectors through an embedding backend.
package embed

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/ppiankov/factcheck/internal/model"
)

// Embedder maps text to a vector. Dimensions returns 0 until the first
// successful call when the dimension was not configured.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
	Dimensions() int
}

// BatchEmbedder is implemented by backends that accept several inputs per call
type BatchEmbedder interface {
	Embedder
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// New creates an embedder from configuration
func New(cfg model.EmbeddingConfig) (Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "ollama", "":
		return NewOllama(cfg), nil
	case "openai":
		return NewOpenAI(cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: ollama, openai)", cfg.Provider)
	}
}

// EmbedAll embeds texts in order, batching when the backend supports it
func EmbedAll(ctx context.Context, e Embedder, texts []string, batchSize int) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = 32
	}
	out := make([][]float32, 0, len(texts))

	be, ok := e.(BatchEmbedder)
	if !ok {
		for _, t := range texts {
			v, err := e.Embed(ctx, t)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}

	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		vecs, err := be.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("embedding backend returned %d vectors for %d inputs", len(vecs), end-start)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// dims tracks a configured or learned vector dimension
type dims struct {
	n atomic.Int64
}

func (d *dims) get() int { return int(d.n.Load()) }

// observe records the dimension of v and rejects vectors that disagree
func (d *dims) observe(v []float32) error {
	if len(v) == 0 {
		return fmt.Errorf("embedding backend returned an empty vector")
	}
	if d.n.CompareAndSwap(0, int64(len(v))) {
		return nil
	}
	if want := d.get(); want != len(v) {
		return fmt.Errorf("embedding dimension %d does not match expected %d", len(v), want)
	}
	return nil
}
