package classify

import (
	"context"

	"github.com/sony/gobreaker"

	"github.com/ppiankov/factcheck/internal/llm"
	"github.com/ppiankov/factcheck/internal/model"
)

// BreakerClassifier wraps a Classifier with circuit breaking logic
type BreakerClassifier struct {
	c  Classifier
	cb *gobreaker.CircuitBreaker
}

// NewBreakerClassifier wraps c; a disabled config returns c unchanged
func NewBreakerClassifier(c Classifier, cfg model.BreakerConfig) Classifier {
	if !cfg.Enabled {
		return c
	}
	return &BreakerClassifier{c: c, cb: llm.NewBreaker("classifier", cfg)}
}

// Name implements Classifier
func (b *BreakerClassifier) Name() string {
	return b.c.Name()
}

// Classify implements Classifier
func (b *BreakerClassifier) Classify(ctx context.Context, text string) (Label, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.c.Classify(ctx, text)
	})
	if err != nil {
		return Label{}, llm.BreakerError("classify."+b.c.Name(), err)
	}
	return out.(Label), nil
}
