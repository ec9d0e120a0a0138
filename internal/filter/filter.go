// Package filter gates the pipeline on check-worthiness.
package filter

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/factcheck/internal/classify"
	"github.com/ppiankov/factcheck/internal/errs"
	"github.com/ppiankov/factcheck/internal/model"
)

const op = "filter"

// ClaimFilter decides whether text holds a verifiable factual assertion
type ClaimFilter struct {
	classifier classify.Classifier
	threshold  float64
	maxRunes   int
	timeout    time.Duration
}

// New creates a claim filter from the pipeline settings
func New(c classify.Classifier, cfg model.PipelineConfig) *ClaimFilter {
	return &ClaimFilter{
		classifier: c,
		threshold:  cfg.Threshold,
		maxRunes:   cfg.MaxInputRunes,
		timeout:    cfg.Timeouts.Classify,
	}
}

// Classify trims text and scores it. Text passes when score >= threshold.
func (f *ClaimFilter) Classify(ctx context.Context, text string) (model.ClaimDecision, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.ClaimDecision{}, errs.New(errs.KindInvalidInput, op, "input is empty")
	}
	if f.maxRunes > 0 && utf8.RuneCountInString(text) > f.maxRunes {
		return model.ClaimDecision{}, errs.New(errs.KindInvalidInput, op,
			fmt.Sprintf("input exceeds %d characters", f.maxRunes))
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	label, err := f.classifier.Classify(ctx, text)
	if err != nil {
		return model.ClaimDecision{}, errs.FromBackend(op, errs.KindModelUnavailable, err)
	}

	score := model.ClampConfidence(label.Score)
	return model.ClaimDecision{
		IsCheckworthy: score >= f.threshold,
		Score:         score,
		Label:         label.Name,
	}, nil
}
