package model

import "strings"

// Verdict is the pipeline's final judgment on a claim
type Verdict string

const (
	VerdictTrue         Verdict = "True"
	VerdictFalse        Verdict = "False"
	VerdictUnverifiable Verdict = "Unverifiable"
)

// ParseVerdict maps a model token onto the closed verdict set.
// The second return value is false when the token was not recognized.
func ParseVerdict(token string) (Verdict, bool) {
	switch strings.ToLower(strings.Trim(strings.TrimSpace(token), `"'.`)) {
	case "true":
		return VerdictTrue, true
	case "false":
		return VerdictFalse, true
	case "unverifiable":
		return VerdictUnverifiable, true
	default:
		return VerdictUnverifiable, false
	}
}

// CheckResult is the terminal, externally visible fact-check artifact.
// Field names are the wire contract with the HTTP and CLI layers.
type CheckResult struct {
	OriginalInput   string   `json:"original_input"`
	Claim           string   `json:"claim"`
	Verdict         Verdict  `json:"verdict"`
	Evidence        []string `json:"evidence"`
	Reasoning       string   `json:"reasoning"`
	ConfidenceScore float64  `json:"confidence_score"`
}

// SynthesisResult is the verdict fragment produced by the synthesizer
type SynthesisResult struct {
	Verdict         Verdict `json:"verdict"`
	Reasoning       string  `json:"reasoning"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// NewCheckResult assembles a result; evidence is copied so later mutation
// of the caller's slice cannot leak into the result.
func NewCheckResult(input, claim string, s SynthesisResult, evidence []string) CheckResult {
	ev := make([]string, len(evidence))
	copy(ev, evidence)
	return CheckResult{
		OriginalInput:   input,
		Claim:           claim,
		Verdict:         s.Verdict,
		Evidence:        ev,
		Reasoning:       s.Reasoning,
		ConfidenceScore: ClampConfidence(s.ConfidenceScore),
	}
}

// ClampConfidence clamps a score into [0,1]
func ClampConfidence(v float64) float64 {
	if v != v { // NaN
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
