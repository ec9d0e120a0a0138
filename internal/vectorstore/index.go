package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ppiankov/factcheck/internal/embed"
	"github.com/ppiankov/factcheck/internal/errs"
	"github.com/ppiankov/factcheck/internal/model"
)

// Index answers embed and top-K queries over a FactStore. Facts are loaded
// once and reloaded when the store's count changes.
type Index struct {
	store    FactStore
	embedder embed.Embedder

	mu       sync.RWMutex
	snapshot []model.ReferenceFact
	meta     model.StoreMeta
	hasMeta  bool
}

// NewIndex creates an index over store using embedder for queries
func NewIndex(store FactStore, embedder embed.Embedder) *Index {
	return &Index{store: store, embedder: embedder}
}

// Embed computes the query embedding
func (ix *Index) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return nil, errs.FromBackend("vectorstore.embed", errs.KindRetrievalUnavailable, err)
	}
	return v, nil
}

// Query returns up to k facts ordered by descending cosine similarity.
// Ties keep insertion order.
func (ix *Index) Query(ctx context.Context, vector []float32, k int) ([]model.ScoredFact, error) {
	const op = "vectorstore.query"

	facts, meta, hasMeta, err := ix.load(ctx)
	if err != nil {
		return nil, errs.FromBackend(op, errs.KindRetrievalUnavailable, err)
	}
	if len(facts) == 0 {
		return nil, errs.New(errs.KindRetrievalUnavailable, op, "reference store is empty")
	}
	if hasMeta && meta.EmbeddingModel != "" && meta.EmbeddingModel != ix.embedder.Model() {
		return nil, errs.New(errs.KindRetrievalUnavailable, op,
			fmt.Sprintf("store indexed with %q, query embedder is %q", meta.EmbeddingModel, ix.embedder.Model()))
	}
	dim := len(facts[0].Embedding)
	if hasMeta && meta.Dimensions > 0 {
		dim = meta.Dimensions
	}
	if len(vector) != dim {
		return nil, errs.New(errs.KindRetrievalUnavailable, op,
			fmt.Sprintf("query dimension %d does not match store dimension %d", len(vector), dim))
	}
	if k <= 0 {
		return []model.ScoredFact{}, nil
	}

	scored := make([]model.ScoredFact, 0, len(facts))
	for _, f := range facts {
		if len(f.Embedding) != dim {
			continue
		}
		scored = append(scored, model.ScoredFact{
			ID:     f.ID,
			Text:   f.Text,
			Source: f.Source,
			Score:  embed.Cosine(vector, f.Embedding),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Count returns the number of indexed facts
func (ix *Index) Count(ctx context.Context) (int, error) {
	return ix.store.Count(ctx)
}

// Invalidate drops the cached snapshot; the next query reloads it
func (ix *Index) Invalidate() {
	ix.mu.Lock()
	ix.snapshot = nil
	ix.hasMeta = false
	ix.mu.Unlock()
}

func (ix *Index) load(ctx context.Context) ([]model.ReferenceFact, model.StoreMeta, bool, error) {
	n, err := ix.store.Count(ctx)
	if err != nil {
		return nil, model.StoreMeta{}, false, err
	}

	ix.mu.RLock()
	if ix.snapshot != nil && len(ix.snapshot) == n {
		facts, meta, hasMeta := ix.snapshot, ix.meta, ix.hasMeta
		ix.mu.RUnlock()
		return facts, meta, hasMeta, nil
	}
	ix.mu.RUnlock()

	facts, err := ix.store.All(ctx)
	if err != nil {
		return nil, model.StoreMeta{}, false, err
	}
	meta, hasMeta, err := ix.store.Meta(ctx)
	if err != nil {
		return nil, model.StoreMeta{}, false, err
	}

	ix.mu.Lock()
	ix.snapshot, ix.meta, ix.hasMeta = facts, meta, hasMeta
	ix.mu.Unlock()
	return facts, meta, hasMeta, nil
}
