package corpus

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/factcheck/internal/embed"
	"github.com/ppiankov/factcheck/internal/logger"
	"github.com/ppiankov/factcheck/internal/model"
	"github.com/ppiankov/factcheck/internal/vectorstore"
)

// Ingestion statuses
const (
	StatusSuccess = "success"
	StatusSkipped = "skipped"
)

// Result describes one ingestion run
type Result struct {
	Path           string `json:"path"`
	Collection     string `json:"collection"`
	DocumentCount  int    `json:"document_count"`
	Added          int    `json:"added"`
	EmbeddingModel string `json:"embedding_model"`
	Dimensions     int    `json:"dimensions"`
	Status         string `json:"status"`
}

// Options controls an ingestion run
type Options struct {
	// Force embeds and adds facts even when the collection already has documents.
	// Facts whose id is already stored are left untouched.
	Force     bool
	BatchSize int
}

// Ingester embeds reference facts and writes them to a fact store
type Ingester struct {
	store      vectorstore.FactStore
	embedder   embed.Embedder
	collection string
	log        *logger.Logger
}

// NewIngester creates an ingester for store using embedder
func NewIngester(store vectorstore.FactStore, embedder embed.Embedder, collection string) *Ingester {
	return &Ingester{store: store, embedder: embedder, collection: collection, log: logger.Named("corpus")}
}

// Run indexes facts. A collection that already holds documents is left as is
// unless opt.Force is set.
func (in *Ingester) Run(ctx context.Context, source string, facts []model.ReferenceFact, opt Options) (*Result, error) {
	start := time.Now()
	res := &Result{Path: source, Collection: in.collection, EmbeddingModel: in.embedder.Model()}

	existing, err := in.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	meta, hasMeta, err := in.store.Meta(ctx)
	if err != nil {
		return nil, fmt.Errorf("read store meta: %w", err)
	}
	if hasMeta && meta.EmbeddingModel != "" && meta.EmbeddingModel != in.embedder.Model() {
		return nil, fmt.Errorf("collection %q was indexed with %q, embedder is %q; use a new collection",
			in.collection, meta.EmbeddingModel, in.embedder.Model())
	}

	if existing > 0 && !opt.Force {
		in.log.Info().Int("documents", existing).Str("collection", in.collection).Msg("collection already populated, skipping ingestion")
		res.DocumentCount = existing
		res.Dimensions = meta.Dimensions
		res.Status = StatusSkipped
		return res, nil
	}
	if len(facts) == 0 {
		return nil, fmt.Errorf("no facts to ingest from %s", source)
	}

	texts := make([]string, len(facts))
	for i, f := range facts {
		texts[i] = f.Text
	}
	in.log.Info().Int("facts", len(facts)).Str("model", in.embedder.Model()).Msg("embedding reference facts")
	vecs, err := embed.EmbedAll(ctx, in.embedder, texts, opt.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("embed facts: %w", err)
	}

	dim := len(vecs[0])
	if hasMeta && meta.Dimensions > 0 && meta.Dimensions != dim {
		return nil, fmt.Errorf("embedding dimension %d does not match collection dimension %d", dim, meta.Dimensions)
	}
	docs := make([]model.ReferenceFact, len(facts))
	for i, f := range facts {
		if len(vecs[i]) != dim {
			return nil, fmt.Errorf("fact %s: embedding dimension %d, want %d", f.ID, len(vecs[i]), dim)
		}
		f.Embedding = vecs[i]
		docs[i] = f
	}

	added, err := in.store.Add(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("store facts: %w", err)
	}
	if err := in.store.SetMeta(ctx, model.StoreMeta{EmbeddingModel: in.embedder.Model(), Dimensions: dim}); err != nil {
		return nil, fmt.Errorf("write store meta: %w", err)
	}
	count, err := in.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	res.DocumentCount = count
	res.Added = added
	res.Dimensions = dim
	res.Status = StatusSuccess
	in.log.Info().
		Int("added", added).
		Int("documents", count).
		Dur("elapsed", time.Since(start)).
		Msg("ingestion complete")
	return res, nil
}

// Load reads the configured corpus: the URL when set, otherwise the CSV path.
// It returns the facts and the source they came from.
func Load(ctx context.Context, cfg model.CorpusConfig, f *Fetcher) ([]model.ReferenceFact, string, error) {
	if cfg.URL != "" {
		if f == nil {
			f = NewFetcher(cfg, 0)
		}
		facts, err := f.FetchFacts(ctx, cfg.URL)
		return facts, cfg.URL, err
	}
	facts, err := LoadFile(cfg.CSVPath)
	return facts, cfg.CSVPath, err
}
