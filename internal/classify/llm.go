package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/ppiankov/factcheck/internal/llm"
	"github.com/ppiankov/factcheck/internal/model"
)

const classifySystemPrompt = `You decide whether a statement is a check-worthy factual claim.
A check-worthy claim asserts something about the world that could be verified against reference facts.
Opinions, questions, greetings, jokes and instructions are not check-worthy.
Respond with a JSON object: {"label": "CHECKWORTHY" or "NOT_CHECKWORTHY", "score": <probability between 0 and 1 that the statement is check-worthy>}.`

// LLMClassifier classifies text by prompting a generative model
type LLMClassifier struct {
	gen llm.Generator
}

// NewLLMClassifier creates a classifier backed by a Generator
func NewLLMClassifier(gen llm.Generator) *LLMClassifier {
	return &LLMClassifier{gen: gen}
}

// Name returns the provider name
func (c *LLMClassifier) Name() string {
	return "llm:" + c.gen.Name()
}

// Classify implements Classifier
func (c *LLMClassifier) Classify(ctx context.Context, text string) (Label, error) {
	resp, err := c.gen.Generate(ctx, llm.GenerateRequest{
		System:      classifySystemPrompt,
		Prompt:      "Statement: " + text,
		MaxTokens:   64,
		Temperature: 0.01,
		JSON:        true,
	})
	if err != nil {
		return Label{}, err
	}

	raw := llm.StripThinking(resp.Text)
	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		raw = raw[start : end+1]
	}
	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return Label{}, fmt.Errorf("classifier reply is not JSON: %w", err)
	}

	var out struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		return Label{}, fmt.Errorf("classifier reply is not JSON: %w", err)
	}
	if out.Label == "" {
		return Label{}, fmt.Errorf("classifier reply has no label")
	}

	// The prompt defines score as the check-worthiness probability for either label
	return Label{Name: out.Label, Score: model.ClampConfidence(out.Score)}, nil
}
