package synth

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/ppiankov/factcheck/internal/llm"
)

// Outcome is the result of reading a model answer: Parsed or Malformed.
// A Malformed outcome never becomes a verdict.
type Outcome interface {
	outcome()
}

// Parsed is a structurally valid answer. Field values are not yet validated.
type Parsed struct {
	Verdict    any
	Reasoning  any
	Confidence any
	// HasConfidence is false when the answer carried no confidence field
	HasConfidence bool
	// Repaired is true when the strict parse failed and the repair pass succeeded
	Repaired bool
}

// Malformed is an answer that stayed unreadable after repair
type Malformed struct {
	Raw    string
	Reason string
}

func (Parsed) outcome()    {}
func (Malformed) outcome() {}

var verdictKeys = []string{"verdict", "label", "result"}

var fenceRe = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)\\s*```")

// Parse reads raw model output: a strict parse first, then one repair pass.
// The repair pass drops think-aloud blocks and code fences, takes the first
// complete JSON object carrying a verdict wherever it sits in the text, and
// only then runs a JSON repair over the remaining candidate spans.
func Parse(raw string) Outcome {
	if obj, ok := decodeObject(strings.TrimSpace(raw)); ok {
		return fromObject(obj, false, raw)
	}

	candidate := llm.StripThinking(raw)
	if m := fenceRe.FindStringSubmatch(candidate); m != nil {
		candidate = m[1]
	}
	first := strings.Index(candidate, "{")
	if first < 0 {
		return Malformed{Raw: raw, Reason: "no JSON object in model output"}
	}

	if obj, ok := scanObjects(candidate); ok {
		return fromObject(obj, true, raw)
	}

	// first '{' to last '}', then first '{' to the end for truncated output
	spans := []string{candidate[first:]}
	if last := strings.LastIndex(candidate, "}"); last > first {
		spans = []string{candidate[first : last+1], candidate[first:]}
	}
	var lastErr error
	for _, span := range spans {
		repaired, err := jsonrepair.JSONRepair(span)
		if err != nil {
			lastErr = err
			continue
		}
		obj, ok := decodeObject(strings.TrimSpace(repaired))
		if !ok {
			lastErr = errors.New("repaired output is not a JSON object")
			continue
		}
		return fromObject(obj, true, raw)
	}
	return Malformed{Raw: raw, Reason: "JSON repair failed: " + lastErr.Error()}
}

// scanObjects decodes a JSON object at every '{' offset of s and returns the
// first one that has a verdict field. Text before and after the object is ignored.
func scanObjects(s string) (map[string]any, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		var obj map[string]any
		if err := json.NewDecoder(strings.NewReader(s[i:])).Decode(&obj); err != nil {
			continue
		}
		if _, ok := lookup(obj, verdictKeys...); ok {
			return obj, true
		}
	}
	return nil, false
}

func decodeObject(s string) (map[string]any, bool) {
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func fromObject(obj map[string]any, repaired bool, raw string) Outcome {
	verdict, ok := lookup(obj, verdictKeys...)
	if !ok {
		return Malformed{Raw: raw, Reason: "answer has no verdict field"}
	}
	reasoning, _ := lookup(obj, "reasoning", "reason", "explanation", "rationale")
	confidence, hasConfidence := lookup(obj, "confidence_score", "confidence", "score")

	return Parsed{
		Verdict:       verdict,
		Reasoning:     reasoning,
		Confidence:    confidence,
		HasConfidence: hasConfidence && confidence != nil,
		Repaired:      repaired,
	}
}

// lookup finds the first of keys in obj, ignoring key case
func lookup(obj map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return v, true
		}
	}
	for k, v := range obj {
		for _, want := range keys {
			if strings.EqualFold(strings.TrimSpace(k), want) {
				return v, true
			}
		}
	}
	return nil, false
}
