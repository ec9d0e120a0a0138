// Package pipeline sequences the fact-check stages into a single check operation.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/factcheck/internal/errs"
	"github.com/ppiankov/factcheck/internal/logger"
	"github.com/ppiankov/factcheck/internal/model"
)

// Filter decides whether input is worth checking
type Filter interface {
	Classify(ctx context.Context, text string) (model.ClaimDecision, error)
}

// Extractor reduces input to one claim
type Extractor interface {
	Extract(ctx context.Context, text string) (model.ExtractedClaim, error)
}

// Retriever finds the reference facts closest to a claim
type Retriever interface {
	Retrieve(ctx context.Context, claim string) (model.RetrievedEvidence, error)
}

// Synthesizer judges a claim against evidence
type Synthesizer interface {
	Synthesize(ctx context.Context, claim string, evidence []string) (model.SynthesisResult, error)
}

// Stages groups the four pipeline stages
type Stages struct {
	Filter      Filter
	Extractor   Extractor
	Retriever   Retriever
	Synthesizer Synthesizer
}

// Pipeline runs Filter, Extractor, Retriever and Synthesizer in order.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	stages Stages
	log    *logger.Logger
}

// New creates a pipeline over the given stages
func New(stages Stages, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Named("pipeline")
	}
	return &Pipeline{stages: stages, log: log}
}

// Check fact-checks input. Input that is not check-worthy yields an
// Unverifiable result with no evidence; every other stage failure is
// returned as a classified error and no partial result.
func (p *Pipeline) Check(ctx context.Context, input string) (*model.CheckResult, error) {
	start := time.Now()
	log := logger.C(ctx, p.log)

	decision, err := p.stages.Filter.Classify(ctx, input)
	if err != nil {
		return nil, p.fail(log, "filter", err)
	}
	if !decision.IsCheckworthy {
		log.Info().Float64("score", decision.Score).Str("label", decision.Label).Msg("input is not check-worthy")
		return notCheckworthy(input, decision), nil
	}

	claim, err := p.stages.Extractor.Extract(ctx, input)
	if err != nil {
		return nil, p.fail(log, "extract", err)
	}
	log.Debug().Str("claim", claim.Text).Msg("claim extracted")

	evidence, err := p.stages.Retriever.Retrieve(ctx, claim.Text)
	if err != nil {
		return nil, p.fail(log, "retrieve", err)
	}
	texts := evidence.Texts()
	log.Debug().Int("evidence", len(texts)).Floats64("scores", evidence.Scores()).Msg("evidence retrieved")

	verdict, err := p.stages.Synthesizer.Synthesize(ctx, claim.Text, texts)
	if err != nil {
		return nil, p.fail(log, "synthesize", err)
	}

	result := model.NewCheckResult(input, claim.Text, verdict, texts)
	log.Info().
		Str("verdict", string(result.Verdict)).
		Float64("confidence", result.ConfidenceScore).
		Dur("elapsed", time.Since(start)).
		Msg("check complete")
	return &result, nil
}

func (p *Pipeline) fail(log *logger.Logger, stage string, err error) error {
	kind := errs.KindOf(err)
	if kind == errs.KindUnknown {
		err = errs.Wrap(errs.KindUnknown, stage, err, "")
	}
	log.Warn().Err(err).Str("stage", stage).Str("kind", kind.String()).Msg("check failed")
	return err
}

func notCheckworthy(input string, d model.ClaimDecision) *model.CheckResult {
	return &model.CheckResult{
		OriginalInput: input,
		Claim:         strings.TrimSpace(input),
		Verdict:       model.VerdictUnverifiable,
		Evidence:      []string{},
		Reasoning: fmt.Sprintf("The input is not a checkable claim: check-worthiness score %.2f is below the threshold, "+
			"so no evidence was retrieved.", d.Score),
		ConfidenceScore: model.ClampConfidence(d.Score),
	}
}
