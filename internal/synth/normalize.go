package synth

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ppiankov/factcheck/internal/model"
)

const (
	noReasoning         = "The model gave no reasoning."
	defaultAppliedNote  = "(confidence not reported by model; default applied)"
	ambiguousVerdictFmt = "(the model's verdict %q was ambiguous; reported as Unverifiable)"
)

// Normalize validates a parsed answer: the verdict is mapped onto the closed
// set, the confidence is clamped into [0,1] or replaced by defaultConfidence
// with a note in the reasoning.
func Normalize(p Parsed, defaultConfidence float64) model.SynthesisResult {
	reasoning := strings.TrimSpace(stringValue(p.Reasoning))
	if reasoning == "" {
		reasoning = noReasoning
	}

	verdict, known := normalizeVerdict(p.Verdict)
	if !known {
		reasoning += " " + fmt.Sprintf(ambiguousVerdictFmt, stringValue(p.Verdict))
	}

	confidence, ok := confidenceValue(p.Confidence)
	if !p.HasConfidence || !ok {
		confidence = defaultConfidence
		reasoning += " " + defaultAppliedNote
	}

	return model.SynthesisResult{
		Verdict:         verdict,
		Reasoning:       reasoning,
		ConfidenceScore: model.ClampConfidence(confidence),
	}
}

func normalizeVerdict(v any) (model.Verdict, bool) {
	switch t := v.(type) {
	case string:
		return model.ParseVerdict(t)
	case bool:
		if t {
			return model.VerdictTrue, true
		}
		return model.VerdictFalse, true
	default:
		return model.VerdictUnverifiable, false
	}
}

// confidenceValue accepts JSON numbers, numeric strings and percentages
// ("85%"). Out-of-range values are returned as-is for clamping.
func confidenceValue(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		s := strings.TrimSpace(t)
		percent := strings.HasSuffix(s, "%")
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
		if percent {
			f /= 100
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
