package server

import (
	"context"
	"sync"
)

// Counter reports how many reference facts are indexed
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// State tracks service readiness. The service is not ready until startup
// ingestion has finished.
type State struct {
	mu        sync.RWMutex
	ready     bool
	documents int
	startErr  error
	counter   Counter
}

// NewState creates a not-ready state; counter may be nil
func NewState(counter Counter) *State {
	return &State{counter: counter}
}

// MarkReady records a finished startup with the indexed document count
func (s *State) MarkReady(documents int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
	s.documents = documents
	s.startErr = nil
}

// MarkFailed records a failed startup; the service stays not ready
func (s *State) MarkFailed(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = false
	s.startErr = err
}

// Ready reports whether checks are accepted
func (s *State) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Err returns the startup failure, if any
func (s *State) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startErr
}

// Documents returns the live document count when a counter is set and
// reachable, otherwise the count recorded at startup.
func (s *State) Documents(ctx context.Context) (int, bool) {
	s.mu.RLock()
	n, counter := s.documents, s.counter
	s.mu.RUnlock()

	if counter == nil {
		return n, true
	}
	live, err := counter.Count(ctx)
	if err != nil {
		return n, false
	}
	return live, true
}
