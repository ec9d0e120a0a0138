// Package synth turns a claim and its retrieved evidence into a verdict.
package synth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/factcheck/internal/errs"
	"github.com/ppiankov/factcheck/internal/llm"
	"github.com/ppiankov/factcheck/internal/logger"
	"github.com/ppiankov/factcheck/internal/model"
)

const op = "synthesize"

const systemPrompt = `You are a fact-checking assistant.
Decide whether the claim is supported by the numbered evidence.
Use ONLY the evidence given. Do not use outside knowledge.
- "True": the evidence supports the claim.
- "False": the evidence contradicts the claim.
- "Unverifiable": the evidence neither supports nor contradicts the claim.
Reply with a single JSON object and nothing else:
{"verdict": "True" | "False" | "Unverifiable", "reasoning": "<short explanation citing evidence numbers>", "confidence_score": <number between 0 and 1>}`

// Synthesizer asks a reasoning model for a verdict grounded in the evidence only
type Synthesizer struct {
	gen               llm.Generator
	defaultConfidence float64
	timeout           time.Duration
	maxTokens         int
	temperature       float64
}

// New creates a synthesizer. defaultConfidence is used when the model
// reports no usable confidence.
func New(gen llm.Generator, cfg model.SynthesisConfig, timeout time.Duration) *Synthesizer {
	return &Synthesizer{
		gen:               gen,
		defaultConfidence: model.ClampConfidence(cfg.DefaultConfidence),
		timeout:           timeout,
		maxTokens:         cfg.MaxTokens,
		temperature:       cfg.Temperature,
	}
}

// Synthesize returns a verdict for claim given evidence. A malformed answer is
// a SynthesisParseFailed error, never a guessed verdict.
func (s *Synthesizer) Synthesize(ctx context.Context, claim string, evidence []string) (model.SynthesisResult, error) {
	claim = strings.TrimSpace(claim)
	if claim == "" {
		return model.SynthesisResult{}, errs.New(errs.KindInvalidInput, op, "empty claim")
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.gen.Generate(ctx, llm.GenerateRequest{
		System:      systemPrompt,
		Prompt:      BuildPrompt(claim, evidence),
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		JSON:        true,
	})
	if err != nil {
		return model.SynthesisResult{}, errs.FromBackend(op, errs.KindModelUnavailable, err)
	}

	log := logger.C(ctx, logger.Named("synth"))
	switch out := Parse(resp.Text).(type) {
	case Parsed:
		if out.Repaired {
			log.Debug().Msg("verdict answer needed repair")
		}
		return Normalize(out, s.defaultConfidence), nil
	case Malformed:
		log.Warn().Str("reason", out.Reason).Int("raw_len", len(out.Raw)).Msg("unreadable verdict answer")
		return model.SynthesisResult{}, errs.New(errs.KindSynthesisParseFailed, op, out.Reason)
	default:
		return model.SynthesisResult{}, errs.New(errs.KindSynthesisParseFailed, op, "unexpected parse outcome")
	}
}

// BuildPrompt renders the claim and the numbered evidence list
func BuildPrompt(claim string, evidence []string) string {
	var b strings.Builder
	b.WriteString("Claim: ")
	b.WriteString(claim)
	b.WriteString("\n\nEvidence:\n")
	if len(evidence) == 0 {
		b.WriteString("(no evidence was found)\n")
	}
	for i, e := range evidence {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(e))
	}
	return b.String()
}
