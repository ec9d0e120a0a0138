package pipeline

import (
	"fmt"

	"github.com/ppiankov/factcheck/internal/cache"
	"github.com/ppiankov/factcheck/internal/classify"
	"github.com/ppiankov/factcheck/internal/embed"
	"github.com/ppiankov/factcheck/internal/extract"
	"github.com/ppiankov/factcheck/internal/filter"
	"github.com/ppiankov/factcheck/internal/llm"
	"github.com/ppiankov/factcheck/internal/logger"
	"github.com/ppiankov/factcheck/internal/model"
	"github.com/ppiankov/factcheck/internal/retrieve"
	"github.com/ppiankov/factcheck/internal/synth"
	"github.com/ppiankov/factcheck/internal/vectorstore"
	"github.com/ppiankov/factcheck/internal/worker"
)

// Limiter keys for the generation backends
const (
	KeyExtraction = "extraction"
	KeySynthesis  = "synthesis"
)

// Runtime is a wired pipeline plus the resources it owns
type Runtime struct {
	Config          *model.Config
	Pipeline        *Pipeline
	Store           vectorstore.FactStore
	Index           *vectorstore.Index
	Embedder        embed.Embedder
	ExtractionModel llm.Generator
	SynthesisModel  llm.Generator
}

// Build wires every stage from cfg. The caller owns Close.
func Build(cfg *model.Config) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Named("pipeline")
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	classifier, err := classify.New(cfg.Classifier, cfg.Extraction, cfg.Breaker)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	extractGen, err := newGenerator(cfg.Extraction, cfg.Breaker, limiter, KeyExtraction)
	if err != nil {
		return nil, fmt.Errorf("extraction model: %w", err)
	}
	synthGen, err := newGenerator(cfg.Synthesis.LLMConfig, cfg.Breaker, limiter, KeySynthesis)
	if err != nil {
		return nil, fmt.Errorf("synthesis model: %w", err)
	}

	embedder, err := embed.New(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	if cfg.Cache.Enabled {
		embedder = embed.NewCachingEmbedder(embedder, cache.New(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL))
	}

	store, err := vectorstore.Open(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("fact store: %w", err)
	}
	index := vectorstore.NewIndex(store, embedder)

	t := cfg.Pipeline.Timeouts
	p := New(Stages{
		Filter:      filter.New(classifier, cfg.Pipeline),
		Extractor:   extract.New(extractGen, t.Extract),
		Retriever:   retrieve.New(index, cfg.Pipeline.TopK, t.Retrieve),
		Synthesizer: synth.New(synthGen, cfg.Synthesis, t.Synthesize),
	}, log)

	log.Debug().
		Str("classifier", classifier.Name()).
		Str("extraction", extractGen.Name()+"/"+cfg.Extraction.Model).
		Str("synthesis", synthGen.Name()+"/"+cfg.Synthesis.Model).
		Str("embedding", embedder.Model()).
		Str("store", cfg.Store.Driver).
		Msg("pipeline wired")

	return &Runtime{
		Config:          cfg,
		Pipeline:        p,
		Store:           store,
		Index:           index,
		Embedder:        embedder,
		ExtractionModel: extractGen,
		SynthesisModel:  synthGen,
	}, nil
}

func newGenerator(cfg model.LLMConfig, breaker model.BreakerConfig, limiter *worker.Limiter, role string) (llm.Generator, error) {
	gen, err := llm.NewGenerator(llm.ConfigFromModel(cfg))
	if err != nil {
		return nil, err
	}
	gen = llm.NewBreakerGenerator(gen, breaker, role)
	return llm.NewLimitedGenerator(gen, limiter, role), nil
}

// Close releases the fact store
func (r *Runtime) Close() error {
	if r == nil || r.Store == nil {
		return nil
	}
	return r.Store.Close()
}
