package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/factcheck/internal/corpus"
	"github.com/ppiankov/factcheck/internal/model"
	"github.com/ppiankov/factcheck/internal/pipeline"
	"github.com/ppiankov/factcheck/internal/vectorstore"
)

func noEnv(string) string { return "" }

func TestLoadConfig_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("FACTCHECK_PIPELINE_THRESHOLD", "0.7")
	t.Setenv("FACTCHECK_PIPELINE_TIMEOUTS_SYNTHESIZE", "90s")
	t.Setenv("FACTCHECK_STORE_DRIVER", "memory")

	v := viper.New()
	if err := registerDefaults(v, model.DefaultConfig()); err != nil {
		t.Fatalf("registerDefaults: %v", err)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := loadConfigFrom(v, noEnv)
	if err != nil {
		t.Fatalf("loadConfigFrom: %v", err)
	}

	if cfg.Pipeline.Threshold != 0.7 {
		t.Errorf("expected threshold 0.7, got %v", cfg.Pipeline.Threshold)
	}
	if cfg.Pipeline.Timeouts.Synthesize != 90*time.Second {
		t.Errorf("expected synthesize timeout 90s, got %v", cfg.Pipeline.Timeouts.Synthesize)
	}
	if cfg.Store.Driver != "memory" {
		t.Errorf("expected memory driver, got %q", cfg.Store.Driver)
	}

	// untouched keys keep their defaults
	def := model.DefaultConfig()
	if cfg.Pipeline.TopK != def.Pipeline.TopK {
		t.Errorf("top_k: got %d, want %d", cfg.Pipeline.TopK, def.Pipeline.TopK)
	}
	if cfg.Synthesis.Model != def.Synthesis.Model {
		t.Errorf("synthesis model: got %q, want %q", cfg.Synthesis.Model, def.Synthesis.Model)
	}
	if cfg.Synthesis.DefaultConfidence != def.Synthesis.DefaultConfidence {
		t.Errorf("default confidence: got %v, want %v", cfg.Synthesis.DefaultConfidence, def.Synthesis.DefaultConfidence)
	}
	if !reflect.DeepEqual(cfg.Classifier.PositiveLabels, def.Classifier.PositiveLabels) {
		t.Errorf("positive labels: got %v, want %v", cfg.Classifier.PositiveLabels, def.Classifier.PositiveLabels)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadConfig_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "pipeline:\n  top_k: 5\nsynthesis:\n  model: qwen3:8b\n  default_confidence: 0.4\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	if err := registerDefaults(v, model.DefaultConfig()); err != nil {
		t.Fatalf("registerDefaults: %v", err)
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}

	cfg, err := loadConfigFrom(v, noEnv)
	if err != nil {
		t.Fatalf("loadConfigFrom: %v", err)
	}
	if cfg.Pipeline.TopK != 5 {
		t.Errorf("expected top_k 5, got %d", cfg.Pipeline.TopK)
	}
	if cfg.Synthesis.Model != "qwen3:8b" || cfg.Synthesis.DefaultConfidence != 0.4 {
		t.Errorf("unexpected synthesis config %+v", cfg.Synthesis)
	}
	if cfg.Synthesis.Provider != "ollama" {
		t.Errorf("expected default provider ollama, got %q", cfg.Synthesis.Provider)
	}
}

func TestApplySecrets(t *testing.T) {
	env := map[string]string{
		"OPENAI_API_KEY":    "sk-openai",
		"ANTHROPIC_API_KEY": "sk-ant",
		"HF_API_TOKEN":      "hf_token",
		"OLLAMA_BASE_URL":   "http://gpu-box:11434",
	}
	getenv := func(k string) string { return env[k] }

	cfg := model.DefaultConfig()
	cfg.Extraction.Provider = "openai"
	cfg.Synthesis.Provider = "anthropic"
	cfg.Synthesis.APIKey = "already-set"
	cfg.Embedding.Provider = "ollama"

	applySecrets(cfg, getenv)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"extraction key", cfg.Extraction.APIKey, "sk-openai"},
		{"explicit synthesis key wins", cfg.Synthesis.APIKey, "already-set"},
		{"ollama base url", cfg.Embedding.BaseURL, "http://gpu-box:11434"},
		{"ollama needs no key", cfg.Embedding.APIKey, ""},
		{"classifier token", cfg.Classifier.APIKey, "hf_token"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "# factcheck configuration") {
		t.Error("expected header comment")
	}
	if strings.Contains(string(data), "api_key") {
		t.Error("api keys must not be written to the config file")
	}

	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config does not parse: %v", err)
	}
	if cfg.Pipeline.TopK != 3 || cfg.Store.Collection != "verified_facts" {
		t.Errorf("unexpected defaults top_k=%d collection=%q", cfg.Pipeline.TopK, cfg.Store.Collection)
	}
	if cfg.Pipeline.Timeouts.Synthesize != 5*time.Minute {
		t.Errorf("expected 5m synthesize timeout, got %v", cfg.Pipeline.Timeouts.Synthesize)
	}

	err = writeDefaultConfig(path)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("expected already exists error, got %v", err)
	}
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, &model.CheckResult{
		Claim:           "Farmers get free electricity from July 2025",
		Verdict:         model.VerdictFalse,
		Evidence:        []string{"No such scheme was announced."},
		Reasoning:       "The evidence contradicts the claim.",
		ConfidenceScore: 0.9,
	})
	out := buf.String()
	for _, want := range []string{"Verdict:    False", "Confidence: 0.90", "  1. No such scheme was announced."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	printResult(&buf, &model.CheckResult{Verdict: model.VerdictUnverifiable, Evidence: []string{}})
	if !strings.Contains(buf.String(), "Evidence:   (none)") {
		t.Errorf("expected empty evidence marker, got:\n%s", buf.String())
	}
}

func TestWriteResultJSON_FieldNames(t *testing.T) {
	var buf bytes.Buffer
	if err := writeResultJSON(&buf, &model.CheckResult{Verdict: model.VerdictTrue, Evidence: []string{}}); err != nil {
		t.Fatalf("writeResultJSON: %v", err)
	}
	for _, field := range []string{"original_input", "claim", "verdict", "evidence", "reasoning", "confidence_score"} {
		if !strings.Contains(buf.String(), `"`+field+`"`) {
			t.Errorf("missing field %q in %s", field, buf.String())
		}
	}
}

type lengthEmbedder struct{}

func (lengthEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}
func (lengthEmbedder) Model() string   { return "length-embed" }
func (lengthEmbedder) Dimensions() int { return 2 }

func TestIngestCorpus_ThenSkip(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "facts.csv")
	csv := "id,statement,source,date,category\n" +
		"1,No free electricity scheme for farmers was announced.,PIB,2025-06-01,energy\n" +
		"2,PM-KISAN pays eligible farmers 6000 rupees a year.,PIB,2024-02-01,agriculture\n"
	if err := os.WriteFile(csvPath, []byte(csv), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := model.DefaultConfig()
	cfg.Store.Driver = "memory"
	cfg.Corpus.CSVPath = csvPath

	store := vectorstore.NewMemoryStore()
	emb := lengthEmbedder{}
	rt := &pipeline.Runtime{Config: cfg, Store: store, Embedder: emb, Index: vectorstore.NewIndex(store, emb)}

	ctx := context.Background()
	res, err := ingestCorpus(ctx, rt, corpus.Options{})
	if err != nil {
		t.Fatalf("ingestCorpus: %v", err)
	}
	if res.Status != corpus.StatusSuccess || res.DocumentCount != 2 || res.Path != csvPath {
		t.Errorf("unexpected result %+v", res)
	}

	if n, err := rt.Index.Count(ctx); err != nil || n != 2 {
		t.Errorf("Count = %d, %v; want 2", n, err)
	}

	// a populated collection is not re-read, even if the CSV is gone
	if err := os.Remove(csvPath); err != nil {
		t.Fatal(err)
	}
	res, err = ingestCorpus(ctx, rt, corpus.Options{})
	if err != nil {
		t.Fatalf("second ingestCorpus: %v", err)
	}
	if res.Status != corpus.StatusSkipped || res.DocumentCount != 2 {
		t.Errorf("expected skipped with 2 documents, got %+v", res)
	}
}

func TestIngestCorpus_MissingCSV(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Corpus.CSVPath = filepath.Join(t.TempDir(), "missing.csv")

	store := vectorstore.NewMemoryStore()
	rt := &pipeline.Runtime{Config: cfg, Store: store, Embedder: lengthEmbedder{}, Index: vectorstore.NewIndex(store, lengthEmbedder{})}

	_, err := ingestCorpus(context.Background(), rt, corpus.Options{})
	if err == nil || !strings.Contains(err.Error(), "load corpus") {
		t.Errorf("expected load corpus error, got %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if want := "factcheck " + Version + "\n"; buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}
