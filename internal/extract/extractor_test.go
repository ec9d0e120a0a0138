package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/factcheck/internal/errs"
	"github.com/ppiankov/factcheck/internal/llm"
)

type stubGenerator struct {
	text    string
	err     error
	lastReq llm.GenerateRequest
	delay   time.Duration
}

func (s *stubGenerator) Name() string { return "stub" }

func (s *stubGenerator) IsAvailable(ctx context.Context) bool { return true }

func (s *stubGenerator) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	s.lastReq = req
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &llm.GenerateResponse{Text: s.text}, nil
}

func TestParseClaim(t *testing.T) {
	const want = "The Indian government has announced free electricity to all farmers starting July 2025."

	tests := []struct {
		name string
		raw  string
	}{
		{"plain sentence", want},
		{"surrounding whitespace and quotes", "  \"" + want + "\"\n"},
		{"preamble", "Here is the claim: " + want},
		{"label", "Claim: " + want},
		{"json array", `["` + want + `", "Another claim."]`},
		{"json array with empty first", `["", "` + want + `"]`},
		{"json object", `{"claim": "` + want + `"}`},
		{"fenced json", "```json\n[\"" + want + "\"]\n```"},
		{"think tags", "<think>The user wants one claim.</think>\n" + want},
		{"trailing explanation", want + " This is the main factual assertion in the text."},
		{"list marker", "1. " + want},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClaim(tt.raw)
			if err != nil {
				t.Fatalf("ParseClaim(%q) failed: %v", tt.raw, err)
			}
			if got != want {
				t.Errorf("ParseClaim(%q) = %q, want %q", tt.raw, got, want)
			}
		})
	}
}

func TestParseClaim_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace", "   \n\t"},
		{"question", "Is the sky blue?"},
		{"apology", "I'm sorry, but I cannot find a factual claim in this text."},
		{"refusal", "I cannot help with that."},
		{"meta commentary", "There is no factual claim in the text."},
		{"empty json array", "[]"},
		{"only think block", "<think>nothing here</think>"},
		{"none", "None."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseClaim(tt.raw)
			if !errs.Is(err, errs.KindExtractionFailed) {
				t.Errorf("ParseClaim(%q): expected ExtractionFailed, got %v", tt.raw, err)
			}
		})
	}
}

func TestExtractor_Extract(t *testing.T) {
	gen := &stubGenerator{text: "The capital of France is Berlin."}
	ex := New(gen, time.Second)

	claim, err := ex.Extract(context.Background(), "  <p>Did you know?   The capital of France is Berlin!</p> ")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if claim.Text != "The capital of France is Berlin." {
		t.Errorf("unexpected claim %q", claim.Text)
	}
	if !strings.Contains(gen.lastReq.Prompt, "Did you know? The capital of France is Berlin!") {
		t.Errorf("expected normalized text in prompt, got %q", gen.lastReq.Prompt)
	}
	if !strings.Contains(gen.lastReq.System, "exactly one declarative sentence") {
		t.Error("expected the one-sentence contract in the system prompt")
	}
}

func TestExtractor_BackendErrors(t *testing.T) {
	ex := New(&stubGenerator{err: errors.New("connection refused")}, time.Second)
	_, err := ex.Extract(context.Background(), "The Earth is flat.")
	if !errs.Is(err, errs.KindModelUnavailable) {
		t.Errorf("expected ModelUnavailable, got %v", err)
	}

	ex = New(&stubGenerator{delay: time.Second}, 20*time.Millisecond)
	_, err = ex.Extract(context.Background(), "The Earth is flat.")
	if !errs.Is(err, errs.KindTimeout) {
		t.Errorf("expected Timeout, got %v", err)
	}
}

func TestExtractor_EmptyInput(t *testing.T) {
	gen := &stubGenerator{text: "unused"}
	_, err := New(gen, time.Second).Extract(context.Background(), "<script>x()</script>")
	if !errs.Is(err, errs.KindExtractionFailed) {
		t.Errorf("expected ExtractionFailed, got %v", err)
	}
	if gen.lastReq.Prompt != "" {
		t.Error("expected no model call for empty input")
	}
}

func TestNormalizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain   text\n\nhere", "plain text here"},
		{"<html><body><p>Visible</p><script>var x;</script></body></html>", "Visible"},
		{"2 < 3 and 5 > 4", "2 < 3 and 5 > 4"},
		{"<style>p{}</style><div>A <b>bold</b> claim.</div>", "A bold claim."},
		{"Inflation in 2024 satisfied a<b and c>d for most months.", "Inflation in 2024 satisfied a<b and c>d for most months."},
		{"Rates rose when x<y, i.e. <when the bank said so> in May.", "Rates rose when x<y, i.e. <when the bank said so> in May."},
		{`<p class="lead">Turnout was 67%.</p>`, "Turnout was 67%."},
		{"Line one<br/>line two", "Line one line two"},
	}
	for _, tt := range tests {
		if got := NormalizeInput(tt.in); got != tt.want {
			t.Errorf("NormalizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFirstSentence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"One. Two.", "One."},
		{"The U.S. has fifty states. More text.", "The U.S. has fifty states."},
		{"Dr. Smith won the prize in 2020. He cried.", "Dr. Smith won the prize in 2020."},
		{"Pi is 3.14 roughly. Yes.", "Pi is 3.14 roughly."},
		{"no terminator", "no terminator"},
	}
	for _, tt := range tests {
		if got := firstSentence(tt.in); got != tt.want {
			t.Errorf("firstSentence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseClaim_KeepsClaimsThatLookLikeRefusals(t *testing.T) {
	const claim = "None of the farmers received free electricity in 2024."
	got, err := ParseClaim(claim)
	if err != nil {
		t.Fatalf("ParseClaim failed: %v", err)
	}
	if got != claim {
		t.Errorf("got %q, want %q", got, claim)
	}
}
