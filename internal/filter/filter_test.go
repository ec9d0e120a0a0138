package filter

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/factcheck/internal/classify"
	"github.com/ppiankov/factcheck/internal/errs"
	"github.com/ppiankov/factcheck/internal/model"
)

type stubClassifier struct {
	label    classify.Label
	err      error
	lastText string
	calls    int
	block    bool
}

func (s *stubClassifier) Name() string { return "stub" }

func (s *stubClassifier) Classify(ctx context.Context, text string) (classify.Label, error) {
	s.calls++
	s.lastText = text
	if s.block {
		<-ctx.Done()
		return classify.Label{}, ctx.Err()
	}
	return s.label, s.err
}

func pipelineConfig() model.PipelineConfig {
	cfg := model.DefaultConfig().Pipeline
	cfg.MaxInputRunes = 100
	cfg.Timeouts.Classify = time.Second
	return cfg
}

func TestClaimFilter_Threshold(t *testing.T) {
	tests := []struct {
		score float64
		want  bool
	}{
		{0.49, false},
		{0.5, true},
		{0.93, true},
		{1.7, true},
		{-0.2, false},
	}

	for _, tt := range tests {
		c := &stubClassifier{label: classify.Label{Name: "CFS", Score: tt.score}}
		d, err := New(c, pipelineConfig()).Classify(context.Background(), "  The capital of France is Berlin.  ")
		if err != nil {
			t.Fatalf("score %v: unexpected error %v", tt.score, err)
		}
		if d.IsCheckworthy != tt.want {
			t.Errorf("score %v: IsCheckworthy = %v, want %v", tt.score, d.IsCheckworthy, tt.want)
		}
		if d.Score < 0 || d.Score > 1 {
			t.Errorf("score %v: decision score %v out of range", tt.score, d.Score)
		}
		if c.lastText != "The capital of France is Berlin." {
			t.Errorf("expected trimmed text, got %q", c.lastText)
		}
	}
}

func TestClaimFilter_CustomThreshold(t *testing.T) {
	cfg := pipelineConfig()
	cfg.Threshold = 0.9
	c := &stubClassifier{label: classify.Label{Name: "CFS", Score: 0.8}}

	d, err := New(c, cfg).Classify(context.Background(), "The sky is blue.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.IsCheckworthy {
		t.Error("expected 0.8 to fail a 0.9 threshold")
	}
}

func TestClaimFilter_InvalidInput(t *testing.T) {
	c := &stubClassifier{}
	f := New(c, pipelineConfig())

	for _, in := range []string{"", "   \n", strings.Repeat("é", 101)} {
		_, err := f.Classify(context.Background(), in)
		if !errs.Is(err, errs.KindInvalidInput) {
			t.Errorf("input of %d bytes: expected InvalidInput, got %v", len(in), err)
		}
	}
	if c.calls != 0 {
		t.Errorf("expected no classifier calls, got %d", c.calls)
	}
}

func TestClaimFilter_BackendFailures(t *testing.T) {
	f := New(&stubClassifier{err: errors.New("dial tcp: connection refused")}, pipelineConfig())
	if _, err := f.Classify(context.Background(), "x is y"); !errs.Is(err, errs.KindModelUnavailable) {
		t.Errorf("expected ModelUnavailable, got %v", err)
	}

	cfg := pipelineConfig()
	cfg.Timeouts.Classify = 10 * time.Millisecond
	f = New(&stubClassifier{block: true}, cfg)
	if _, err := f.Classify(context.Background(), "x is y"); !errs.Is(err, errs.KindTimeout) {
		t.Errorf("expected Timeout, got %v", err)
	}
}
