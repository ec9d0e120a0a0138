package cli

import (
	"context"
	"fmt"

	"github.com/ppiankov/factcheck/internal/corpus"
	"github.com/ppiankov/factcheck/internal/pipeline"
)

// ingestCorpus indexes the configured corpus into the runtime's store.
// A populated collection is reported as skipped without reading the corpus.
func ingestCorpus(ctx context.Context, rt *pipeline.Runtime, opt corpus.Options) (*corpus.Result, error) {
	cfg := rt.Config
	ing := corpus.NewIngester(rt.Store, rt.Embedder, cfg.Store.Collection)

	if !opt.Force {
		n, err := rt.Store.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count documents: %w", err)
		}
		if n > 0 {
			return ing.Run(ctx, cfg.Store.Path, nil, opt)
		}
	}

	facts, source, err := corpus.Load(ctx, cfg.Corpus, corpus.NewFetcher(cfg.Corpus, 0))
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	res, err := ing.Run(ctx, source, facts, opt)
	if err != nil {
		return nil, err
	}
	rt.Index.Invalidate()
	return res, nil
}
