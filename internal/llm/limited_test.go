package llm

import (
	"context"
	"errors"
	"testing"
)

type recordingWaiter struct {
	keys []string
	err  error
}

func (w *recordingWaiter) Wait(ctx context.Context, key string) error {
	w.keys = append(w.keys, key)
	return w.err
}

func TestLimitedGenerator_WaitsPerCall(t *testing.T) {
	mock := &MockGenerator{name: "ollama", available: true, response: &GenerateResponse{Text: "ok"}}
	w := &recordingWaiter{}
	gen := NewLimitedGenerator(mock, w, "synthesis")

	for i := 0; i < 2; i++ {
		if _, err := gen.Generate(context.Background(), GenerateRequest{Prompt: "p"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(w.keys) != 2 || w.keys[0] != "synthesis" {
		t.Errorf("expected two waits on key synthesis, got %v", w.keys)
	}
	if gen.Name() != "ollama" {
		t.Errorf("expected wrapped name, got %s", gen.Name())
	}
}

func TestLimitedGenerator_WaitErrorSkipsBackend(t *testing.T) {
	mock := &MockGenerator{name: "ollama", available: true, response: &GenerateResponse{Text: "ok"}}
	gen := NewLimitedGenerator(mock, &recordingWaiter{err: context.DeadlineExceeded}, "extraction")

	_, err := gen.Generate(context.Background(), GenerateRequest{Prompt: "p"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if mock.calls.Load() != 0 {
		t.Errorf("expected no backend call, got %d", mock.calls.Load())
	}
}

func TestNewLimitedGenerator_NilWaiter(t *testing.T) {
	mock := &MockGenerator{name: "ollama"}
	if NewLimitedGenerator(mock, nil, "x") != Generator(mock) {
		t.Error("expected nil waiter to return the generator unchanged")
	}
}
