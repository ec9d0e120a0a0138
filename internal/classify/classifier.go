// Package classify scores how check-worthy a piece of text is.
package classify

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/factcheck/internal/llm"
	"github.com/ppiankov/factcheck/internal/model"
)

// Label is a classifier outcome. Name is the winning raw label, Score the
// probability that the text is check-worthy.
type Label struct {
	Name  string  `json:"label"`
	Score float64 `json:"score"`
}

// Classifier assigns a check-worthiness label to text
type Classifier interface {
	Name() string
	Classify(ctx context.Context, text string) (Label, error)
}

// DefaultPositiveLabels are the labels that denote a check-worthy statement
var DefaultPositiveLabels = []string{"CFS", "LABEL_1", "CHECKWORTHY"}

// New creates a classifier from configuration. The llm provider reuses the
// extraction generator settings unless the classifier overrides the model.
func New(cfg model.ClassifierConfig, extraction model.LLMConfig, breaker model.BreakerConfig) (Classifier, error) {
	var c Classifier
	switch strings.ToLower(cfg.Provider) {
	case "huggingface", "hf", "":
		hf, err := NewHuggingFace(cfg)
		if err != nil {
			return nil, err
		}
		c = hf

	case "llm":
		genCfg := llm.ConfigFromModel(extraction)
		if cfg.Backend != "" {
			genCfg.Provider = cfg.Backend
		}
		if cfg.Model != "" && !strings.Contains(cfg.Model, "/") {
			genCfg.Model = cfg.Model
		}
		gen, err := llm.NewGenerator(genCfg)
		if err != nil {
			return nil, fmt.Errorf("classifier backend: %w", err)
		}
		c = NewLLMClassifier(gen)

	default:
		return nil, fmt.Errorf("unknown classifier provider: %s (supported: huggingface, llm)", cfg.Provider)
	}

	return NewBreakerClassifier(c, breaker), nil
}

// ScoreLabels turns a label distribution into a check-worthiness Label.
// If any positive label is present its probability is used directly.
// Otherwise the top label decides: positive keeps its score, any other
// label yields 1 - score.
func ScoreLabels(labels []Label, positive []string) (Label, error) {
	if len(labels) == 0 {
		return Label{}, fmt.Errorf("classifier returned no labels")
	}
	if len(positive) == 0 {
		positive = DefaultPositiveLabels
	}

	sorted := make([]Label, len(labels))
	copy(sorted, labels)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	top := sorted[0]

	if len(sorted) > 1 {
		for _, l := range sorted {
			if isPositive(l.Name, positive) {
				return Label{Name: top.Name, Score: model.ClampConfidence(l.Score)}, nil
			}
		}
	}

	score := top.Score
	if !isPositive(top.Name, positive) {
		score = 1 - score
	}
	return Label{Name: top.Name, Score: model.ClampConfidence(score)}, nil
}

func isPositive(name string, positive []string) bool {
	for _, p := range positive {
		if strings.EqualFold(strings.TrimSpace(name), p) {
			return true
		}
	}
	return false
}
