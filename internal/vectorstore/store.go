// Package vectorstore holds the verified reference facts and answers
// nearest-neighbour queries over their embeddings.
package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/factcheck/internal/model"
)

// FactStore persists reference facts for one collection. All returns facts
// in insertion order; that order breaks similarity ties.
type FactStore interface {
	// Add inserts facts, skipping ids already present, and returns how many were new
	Add(ctx context.Context, facts []model.ReferenceFact) (int, error)
	Count(ctx context.Context) (int, error)
	All(ctx context.Context) ([]model.ReferenceFact, error)
	// Meta returns the embedding model and dimension recorded at ingestion
	Meta(ctx context.Context) (model.StoreMeta, bool, error)
	SetMeta(ctx context.Context, meta model.StoreMeta) error
	Close() error
}

// Open creates the store described by cfg
func Open(cfg model.StoreConfig) (FactStore, error) {
	collection := cfg.Collection
	if collection == "" {
		collection = "verified_facts"
	}
	switch strings.ToLower(cfg.Driver) {
	case "sqlite", "":
		return NewSQLiteStore(cfg.Path, collection)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s (supported: sqlite, memory)", cfg.Driver)
	}
}
