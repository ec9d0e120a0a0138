package vectorstore

import (
	"context"
	"sync"

	"github.com/ppiankov/factcheck/internal/model"
)

// MemoryStore keeps facts in process memory
type MemoryStore struct {
	mu    sync.RWMutex
	facts []model.ReferenceFact
	ids   map[string]struct{}
	meta  *model.StoreMeta
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ids: make(map[string]struct{})}
}

// Add implements FactStore
func (s *MemoryStore) Add(_ context.Context, facts []model.ReferenceFact) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, f := range facts {
		if _, ok := s.ids[f.ID]; ok {
			continue
		}
		s.ids[f.ID] = struct{}{}
		f.Embedding = append([]float32(nil), f.Embedding...)
		s.facts = append(s.facts, f)
		added++
	}
	return added, nil
}

// Count implements FactStore
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.facts), nil
}

// All implements FactStore
func (s *MemoryStore) All(_ context.Context) ([]model.ReferenceFact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ReferenceFact, len(s.facts))
	copy(out, s.facts)
	return out, nil
}

// Meta implements FactStore
func (s *MemoryStore) Meta(_ context.Context) (model.StoreMeta, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.meta == nil {
		return model.StoreMeta{}, false, nil
	}
	return *s.meta, true, nil
}

// SetMeta implements FactStore
func (s *MemoryStore) SetMeta(_ context.Context, meta model.StoreMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta = &meta
	return nil
}

// Close implements FactStore
func (s *MemoryStore) Close() error { return nil }
