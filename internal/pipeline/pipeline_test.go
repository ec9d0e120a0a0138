package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/factcheck/internal/classify"
	"github.com/ppiankov/factcheck/internal/errs"
	"github.com/ppiankov/factcheck/internal/extract"
	"github.com/ppiankov/factcheck/internal/filter"
	"github.com/ppiankov/factcheck/internal/llm"
	"github.com/ppiankov/factcheck/internal/logger"
	"github.com/ppiankov/factcheck/internal/model"
	"github.com/ppiankov/factcheck/internal/retrieve"
	"github.com/ppiankov/factcheck/internal/synth"
	"github.com/ppiankov/factcheck/internal/vectorstore"
)

// Stage stubs with call counters

type stubFilter struct {
	decision model.ClaimDecision
	err      error
	calls    int
}

func (s *stubFilter) Classify(ctx context.Context, text string) (model.ClaimDecision, error) {
	s.calls++
	return s.decision, s.err
}

type stubExtractor struct {
	claim string
	err   error
	calls int
}

func (s *stubExtractor) Extract(ctx context.Context, text string) (model.ExtractedClaim, error) {
	s.calls++
	if s.err != nil {
		return model.ExtractedClaim{}, s.err
	}
	return model.ExtractedClaim{Text: s.claim}, nil
}

type stubRetriever struct {
	facts []model.ScoredFact
	err   error
	calls int
}

func (s *stubRetriever) Retrieve(ctx context.Context, claim string) (model.RetrievedEvidence, error) {
	s.calls++
	if s.err != nil {
		return model.RetrievedEvidence{}, s.err
	}
	return model.RetrievedEvidence{Query: claim, Facts: s.facts}, nil
}

type stubSynth struct {
	result model.SynthesisResult
	err    error
	calls  int
	got    []string
}

func (s *stubSynth) Synthesize(ctx context.Context, claim string, evidence []string) (model.SynthesisResult, error) {
	s.calls++
	s.got = evidence
	return s.result, s.err
}

type stubs struct {
	filter    *stubFilter
	extractor *stubExtractor
	retriever *stubRetriever
	synth     *stubSynth
}

func newStubs() stubs {
	return stubs{
		filter:    &stubFilter{decision: model.ClaimDecision{IsCheckworthy: true, Score: 0.9}},
		extractor: &stubExtractor{claim: "The Moon is made of cheese."},
		retriever: &stubRetriever{facts: []model.ScoredFact{
			{ID: "fact_1", Text: "The Moon is made of rock.", Score: 0.9},
			{ID: "fact_2", Text: "The Moon orbits Earth.", Score: 0.5},
		}},
		synth: &stubSynth{result: model.SynthesisResult{Verdict: model.VerdictFalse, Reasoning: "Rock, not cheese.", ConfidenceScore: 0.9}},
	}
}

func (s stubs) pipeline() *Pipeline {
	return New(Stages{Filter: s.filter, Extractor: s.extractor, Retriever: s.retriever, Synthesizer: s.synth}, logger.Nop())
}

func TestCheck_NotCheckworthyShortCircuits(t *testing.T) {
	s := newStubs()
	s.filter.decision = model.ClaimDecision{IsCheckworthy: false, Score: 0.2}

	res, err := s.pipeline().Check(context.Background(), "  The sky is blue.  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Verdict != model.VerdictUnverifiable {
		t.Errorf("expected Unverifiable, got %s", res.Verdict)
	}
	if res.Evidence == nil || len(res.Evidence) != 0 {
		t.Errorf("expected empty non-nil evidence, got %#v", res.Evidence)
	}
	if !strings.Contains(res.Reasoning, "not a checkable claim") {
		t.Errorf("unexpected reasoning %q", res.Reasoning)
	}
	if res.Claim != "The sky is blue." || res.OriginalInput != "  The sky is blue.  " {
		t.Errorf("unexpected claim/input %q / %q", res.Claim, res.OriginalInput)
	}
	if res.ConfidenceScore != 0.2 {
		t.Errorf("expected filter score as confidence, got %v", res.ConfidenceScore)
	}
	if s.extractor.calls != 0 || s.retriever.calls != 0 || s.synth.calls != 0 {
		t.Errorf("later stages ran: extract=%d retrieve=%d synth=%d",
			s.extractor.calls, s.retriever.calls, s.synth.calls)
	}

	data, _ := json.Marshal(res)
	if !strings.Contains(string(data), `"evidence":[]`) {
		t.Errorf("expected evidence to serialize as [], got %s", data)
	}
}

func TestCheck_FullChain(t *testing.T) {
	s := newStubs()
	res, err := s.pipeline().Check(context.Background(), "Someone said the Moon is made of cheese.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"The Moon is made of rock.", "The Moon orbits Earth."}
	if !reflect.DeepEqual(res.Evidence, want) {
		t.Errorf("evidence = %v, want %v", res.Evidence, want)
	}
	if !reflect.DeepEqual(s.synth.got, want) {
		t.Errorf("synthesizer saw %v, want %v", s.synth.got, want)
	}
	if res.Claim != "The Moon is made of cheese." {
		t.Errorf("unexpected claim %q", res.Claim)
	}
	if res.OriginalInput != "Someone said the Moon is made of cheese." {
		t.Errorf("unexpected original input %q", res.OriginalInput)
	}
	if res.Verdict != model.VerdictFalse || res.ConfidenceScore != 0.9 {
		t.Errorf("unexpected verdict %+v", res)
	}
	if s.filter.calls != 1 || s.extractor.calls != 1 || s.retriever.calls != 1 || s.synth.calls != 1 {
		t.Error("expected every stage to run exactly once")
	}
}

func TestCheck_StageFailuresPropagate(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s stubs)
		kind  errs.Kind
	}{
		{"classifier down", func(s stubs) {
			s.filter.err = errs.Wrap(errs.KindModelUnavailable, "filter", errors.New("dial tcp: refused"), "")
		}, errs.KindModelUnavailable},
		{"extraction failed", func(s stubs) {
			s.extractor.err = errs.New(errs.KindExtractionFailed, "extract", "model returned no claim")
		}, errs.KindExtractionFailed},
		{"store empty", func(s stubs) {
			s.retriever.err = errs.New(errs.KindRetrievalUnavailable, "retrieve", "reference store is empty")
		}, errs.KindRetrievalUnavailable},
		{"synthesis timeout", func(s stubs) {
			s.synth.err = errs.Wrap(errs.KindTimeout, "synthesize", context.DeadlineExceeded, "")
		}, errs.KindTimeout},
		{"synthesis malformed", func(s stubs) {
			s.synth.err = errs.New(errs.KindSynthesisParseFailed, "synthesize", "no JSON object")
		}, errs.KindSynthesisParseFailed},
		{"unclassified", func(s stubs) {
			s.synth.err = errors.New("boom")
		}, errs.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStubs()
			tt.setup(s)
			res, err := s.pipeline().Check(context.Background(), "The Moon is made of cheese.")
			if res != nil {
				t.Errorf("expected no partial result, got %+v", res)
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errs.KindOf(err); got != tt.kind {
				t.Errorf("expected kind %s, got %s (%v)", tt.kind, got, err)
			}
		})
	}
}

func TestCheck_ExtractionFailureSkipsLaterStages(t *testing.T) {
	s := newStubs()
	s.extractor.err = errs.New(errs.KindExtractionFailed, "extract", "model returned a question")

	if _, err := s.pipeline().Check(context.Background(), "Is the Moon cheese?"); err == nil {
		t.Fatal("expected error")
	}
	if s.retriever.calls != 0 || s.synth.calls != 0 {
		t.Errorf("later stages ran: retrieve=%d synth=%d", s.retriever.calls, s.synth.calls)
	}
}

func TestCheck_ConfidenceClamped(t *testing.T) {
	for _, c := range []float64{-3, 1.5, math.NaN(), math.Inf(1)} {
		s := newStubs()
		s.synth.result.ConfidenceScore = c
		res, err := s.pipeline().Check(context.Background(), "x is y")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.ConfidenceScore < 0 || res.ConfidenceScore > 1 {
			t.Errorf("confidence %v not clamped: %v", c, res.ConfidenceScore)
		}
	}
}

func TestCheckResult_RoundTrip(t *testing.T) {
	s := newStubs()
	res, err := s.pipeline().Check(context.Background(), "The Moon is made of cheese.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{"original_input", "claim", "verdict", "evidence", "reasoning", "confidence_score"} {
		if !strings.Contains(string(data), `"`+field+`"`) {
			t.Errorf("wire payload missing %s: %s", field, data)
		}
	}
	var back model.CheckResult
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(*res, back) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", back, *res)
	}
}

// End-to-end over real stages with deterministic backends

type fixedClassifier struct{ score float64 }

func (c fixedClassifier) Name() string { return "fixed" }

func (c fixedClassifier) Classify(ctx context.Context, text string) (classify.Label, error) {
	return classify.Label{Name: "CFS", Score: c.score}, nil
}

type scriptedGenerator struct {
	reply string
	calls int
}

func (g *scriptedGenerator) Name() string { return "scripted" }

func (g *scriptedGenerator) IsAvailable(ctx context.Context) bool { return true }

func (g *scriptedGenerator) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	g.calls++
	return &llm.GenerateResponse{Text: g.reply}, nil
}

var vocab = []string{"government", "announced", "free", "electricity", "farmers", "july", "2025", "income", "insurance", "crop"}

// keywordEmbedder counts vocabulary words
type keywordEmbedder struct{}

func (keywordEmbedder) Model() string { return "keywords" }

func (keywordEmbedder) Dimensions() int { return len(vocab) }

func (keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, len(vocab))
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:")
		for i, term := range vocab {
			if w == term {
				v[i]++
			}
		}
	}
	return v, nil
}

const (
	noAnnouncement = "The Indian government has not announced free electricity for all farmers from July 2025."
	incomeSupport  = "PM-KISAN provides income support of 6000 rupees per year to eligible farmers."
	cropInsurance  = "The crop insurance scheme covers farmers against yield losses."
)

func buildRealPipeline(t *testing.T, facts []string, extractReply, synthReply string) (*Pipeline, *scriptedGenerator, *scriptedGenerator) {
	t.Helper()
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	var refs []model.ReferenceFact
	for i, text := range facts {
		v, _ := keywordEmbedder{}.Embed(ctx, text)
		refs = append(refs, model.ReferenceFact{ID: "fact_" + string(rune('1'+i)), Text: text, Embedding: v})
	}
	if _, err := store.Add(ctx, refs); err != nil {
		t.Fatal(err)
	}
	if err := store.SetMeta(ctx, model.StoreMeta{EmbeddingModel: "keywords", Dimensions: len(vocab)}); err != nil {
		t.Fatal(err)
	}

	cfg := model.DefaultConfig()
	extractGen := &scriptedGenerator{reply: extractReply}
	synthGen := &scriptedGenerator{reply: synthReply}
	p := New(Stages{
		Filter:      filter.New(fixedClassifier{score: 0.95}, cfg.Pipeline),
		Extractor:   extract.New(extractGen, time.Second),
		Retriever:   retrieve.New(vectorstore.NewIndex(store, keywordEmbedder{}), 3, time.Second),
		Synthesizer: synth.New(synthGen, cfg.Synthesis, time.Second),
	}, logger.Nop())
	return p, extractGen, synthGen
}

func TestCheck_ElectricityScenario(t *testing.T) {
	input := "The Indian government has announced free electricity to all farmers starting July 2025."
	p, _, _ := buildRealPipeline(t,
		[]string{cropInsurance, incomeSupport, noAnnouncement},
		`["The Indian government has announced free electricity to all farmers starting July 2025."]`,
		`<think>Evidence 1 says no such announcement.</think>{"verdict": "False", "reasoning": "Evidence 1 states no such announcement was made.", "confidence_score": 0.9}`,
	)

	res, err := p.Check(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Verdict != model.VerdictFalse {
		t.Errorf("expected False, got %s", res.Verdict)
	}
	want := []string{noAnnouncement, incomeSupport, cropInsurance}
	if !reflect.DeepEqual(res.Evidence, want) {
		t.Errorf("evidence = %v, want %v", res.Evidence, want)
	}
	if res.ConfidenceScore < 0 || res.ConfidenceScore > 1 {
		t.Errorf("confidence out of range: %v", res.ConfidenceScore)
	}
	if res.Claim != input {
		t.Errorf("unexpected claim %q", res.Claim)
	}
}

func TestCheck_UnparseableSynthesis(t *testing.T) {
	p, _, synthGen := buildRealPipeline(t,
		[]string{noAnnouncement},
		"Free electricity was announced for farmers.",
		"Well, it is hard to say, the evidence seems to point both ways.",
	)

	res, err := p.Check(context.Background(), "Free electricity was announced for farmers.")
	if !errs.Is(err, errs.KindSynthesisParseFailed) {
		t.Fatalf("expected SynthesisParseFailed, got %v", err)
	}
	if res != nil {
		t.Errorf("expected no result, got %+v", res)
	}
	if synthGen.calls != 1 {
		t.Errorf("expected a single synthesis call, got %d", synthGen.calls)
	}
}

func TestCheck_FewerFactsThanK(t *testing.T) {
	p, _, _ := buildRealPipeline(t,
		[]string{noAnnouncement},
		"Free electricity was announced for farmers.",
		`{"verdict": "False", "reasoning": "Evidence 1.", "confidence_score": 0.8}`,
	)

	res, err := p.Check(context.Background(), "Free electricity was announced for farmers.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Evidence) != 1 || res.Evidence[0] != noAnnouncement {
		t.Errorf("expected exactly one evidence item, got %v", res.Evidence)
	}
}
