// Package extract reduces free text to the single factual statement that
// will be retrieved against and verified.
package extract

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/ppiankov/factcheck/internal/errs"
	"github.com/ppiankov/factcheck/internal/llm"
	"github.com/ppiankov/factcheck/internal/model"
)

const op = "extract"

const systemPrompt = `You are a claim extraction assistant.
From the user's text, extract the single most check-worthy factual statement.
Rules:
- Stay faithful to the text. You may paraphrase, but never add facts, names, numbers or dates that are not in it.
- Return exactly one declarative sentence.
- No preamble, no labels, no quotes, no markdown, no commentary.
- If the text contains no factual statement, return an empty line.`

// Extractor asks a generative model for the core claim of a text
type Extractor struct {
	gen     llm.Generator
	timeout time.Duration
}

// New creates an extractor; timeout bounds each model call
func New(gen llm.Generator, timeout time.Duration) *Extractor {
	return &Extractor{gen: gen, timeout: timeout}
}

// Extract returns the claim or an ExtractionFailed error. Backend failures
// surface as ModelUnavailable or Timeout.
func (e *Extractor) Extract(ctx context.Context, text string) (model.ExtractedClaim, error) {
	text = NormalizeInput(text)
	if text == "" {
		return model.ExtractedClaim{}, errs.New(errs.KindExtractionFailed, op, "empty input")
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	resp, err := e.gen.Generate(ctx, llm.GenerateRequest{
		System:      systemPrompt,
		Prompt:      "Text: " + text,
		MaxTokens:   256,
		Temperature: 0.1,
	})
	if err != nil {
		return model.ExtractedClaim{}, errs.FromBackend(op, errs.KindModelUnavailable, err)
	}

	claim, err := ParseClaim(resp.Text)
	if err != nil {
		return model.ExtractedClaim{}, err
	}
	return model.ExtractedClaim{Text: claim}, nil
}

var (
	fenceRe    = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	preambleRe = regexp.MustCompile(`(?i)^(here is|here's|the|extracted|main|core|key)?\s*(the\s+)?(main\s+|core\s+|key\s+|extracted\s+)?(factual\s+)?(claim|statement)s?\s*(is)?\s*[:\-]\s*`)
	listMarkRe = regexp.MustCompile(`^(\s*[-*\x{2022}]\s+|\s*\d+[.)]\s+)`)
)

// nonClaimPrefixes mark model replies that are refusals, apologies or meta-commentary
var nonClaimPrefixes = []string{
	"i'm sorry", "i am sorry", "sorry,", "i apologize", "i cannot", "i can't", "i can not",
	"i am unable", "i'm unable", "as an ai", "there is no factual", "there are no factual",
	"there is no claim", "there are no claims", "no factual", "no check-worthy",
	"the text does not", "this text does not", "the input does not", "i don't know", "i do not know",
}

// nonClaimReplies are whole replies that mean "nothing to extract"
var nonClaimReplies = map[string]bool{
	"none": true, "n/a": true, "na": true, "null": true, "no claim": true, "no claims": true, "empty": true,
}

// ParseClaim turns a raw extraction reply into one claim sentence. JSON
// array replies (["claim", ...]) yield their first non-empty element.
func ParseClaim(raw string) (string, error) {
	s := strings.TrimSpace(llm.StripThinking(raw))
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}

	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		if c, ok := claimFromJSON(s); ok {
			s = c
		}
	}

	s = listMarkRe.ReplaceAllString(s, "")
	s = preambleRe.ReplaceAllString(s, "")
	s = strings.Trim(strings.TrimSpace(s), "\"'`*")
	s = firstSentence(s)
	s = strings.Trim(strings.TrimSpace(s), "\"'`*")

	if s == "" {
		return "", errs.New(errs.KindExtractionFailed, op, "model returned no claim")
	}
	if strings.HasSuffix(s, "?") {
		return "", errs.New(errs.KindExtractionFailed, op, "model returned a question")
	}
	lower := strings.ToLower(s)
	if nonClaimReplies[strings.TrimRight(lower, ".!")] {
		return "", errs.New(errs.KindExtractionFailed, op, "model returned no claim")
	}
	for _, p := range nonClaimPrefixes {
		if strings.HasPrefix(lower, p) {
			return "", errs.New(errs.KindExtractionFailed, op, "model returned a refusal or non-claim")
		}
	}
	return s, nil
}

func claimFromJSON(s string) (string, bool) {
	repaired, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return "", false
	}

	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(repaired), &arr); err == nil {
		for _, item := range arr {
			if c, ok := claimFromValue(item); ok {
				return c, true
			}
		}
		return "", true
	}

	return claimFromValue(json.RawMessage(repaired))
}

func claimFromValue(v json.RawMessage) (string, bool) {
	var str string
	if err := json.Unmarshal(v, &str); err == nil {
		str = strings.TrimSpace(str)
		return str, str != ""
	}
	var obj map[string]any
	if err := json.Unmarshal(v, &obj); err == nil {
		for _, key := range []string{"claim", "statement", "text"} {
			if c, ok := obj[key].(string); ok && strings.TrimSpace(c) != "" {
				return strings.TrimSpace(c), true
			}
		}
	}
	return "", false
}
