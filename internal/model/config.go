package model

import (
	"fmt"
	"strings"
	"time"
)

// Config is the single immutable configuration value threaded into every component
type Config struct {
	Pipeline     PipelineConfig    `yaml:"pipeline" mapstructure:"pipeline"`
	Classifier   ClassifierConfig  `yaml:"classifier" mapstructure:"classifier"`
	Extraction   LLMConfig         `yaml:"extraction" mapstructure:"extraction"`
	Synthesis    SynthesisConfig   `yaml:"synthesis" mapstructure:"synthesis"`
	Embedding    EmbeddingConfig   `yaml:"embedding" mapstructure:"embedding"`
	Store        StoreConfig       `yaml:"store" mapstructure:"store"`
	Corpus       CorpusConfig      `yaml:"corpus" mapstructure:"corpus"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Breaker      BreakerConfig     `yaml:"breaker" mapstructure:"breaker"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Server       ServerConfig      `yaml:"server" mapstructure:"server"`
	Log          LogConfig         `yaml:"log" mapstructure:"log"`
}

// PipelineConfig holds the decision constants of the check pipeline
type PipelineConfig struct {
	Threshold     float64       `yaml:"threshold" mapstructure:"threshold"`             // Check-worthiness cut-off, score >= threshold passes
	TopK          int           `yaml:"top_k" mapstructure:"top_k"`                     // Evidence items retrieved per claim
	MaxInputRunes int           `yaml:"max_input_runes" mapstructure:"max_input_runes"` // Input cap, longer input is rejected
	Timeouts      TimeoutConfig `yaml:"timeouts" mapstructure:"timeouts"`
}

// TimeoutConfig bounds each external stage call
type TimeoutConfig struct {
	Classify   time.Duration `yaml:"classify" mapstructure:"classify"`
	Extract    time.Duration `yaml:"extract" mapstructure:"extract"`
	Retrieve   time.Duration `yaml:"retrieve" mapstructure:"retrieve"`
	Synthesize time.Duration `yaml:"synthesize" mapstructure:"synthesize"`
}

// LLMConfig configures one generative backend role
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model       string  `yaml:"model" mapstructure:"model"`
	APIKey      string  `yaml:"-" mapstructure:"api_key"`
	BaseURL     string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	HTTPProxy   string  `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy  string  `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// SynthesisConfig configures the verdict synthesizer
type SynthesisConfig struct {
	LLMConfig         `yaml:",inline" mapstructure:",squash"`
	DefaultConfidence float64 `yaml:"default_confidence" mapstructure:"default_confidence"`
}

// ClassifierConfig configures the check-worthiness classifier
type ClassifierConfig struct {
	Provider       string   `yaml:"provider" mapstructure:"provider"` // huggingface, llm
	Backend        string   `yaml:"backend,omitempty" mapstructure:"backend"`
	Model          string   `yaml:"model" mapstructure:"model"`
	APIKey         string   `yaml:"-" mapstructure:"api_key"`
	BaseURL        string   `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout        int      `yaml:"timeout" mapstructure:"timeout"` // seconds
	PositiveLabels []string `yaml:"positive_labels" mapstructure:"positive_labels"`
}

// EmbeddingConfig configures the embedding backend. Model and dimension must
// match the ones used to index the corpus.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"` // ollama, openai
	Model      string `yaml:"model" mapstructure:"model"`
	APIKey     string `yaml:"-" mapstructure:"api_key"`
	BaseURL    string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout    int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	Dimensions int    `yaml:"dimensions" mapstructure:"dimensions"`
}

// StoreConfig configures the reference fact store
type StoreConfig struct {
	Driver     string `yaml:"driver" mapstructure:"driver"` // sqlite, memory
	Path       string `yaml:"path" mapstructure:"path"`
	Collection string `yaml:"collection" mapstructure:"collection"`
}

// CorpusConfig configures corpus ingestion
type CorpusConfig struct {
	CSVPath       string `yaml:"csv_path" mapstructure:"csv_path"`
	URL           string `yaml:"url,omitempty" mapstructure:"url"`
	UserAgent     string `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBytes      int64  `yaml:"max_bytes" mapstructure:"max_bytes"`
	IngestOnStart bool   `yaml:"ingest_on_start" mapstructure:"ingest_on_start"`
}

// CacheConfig configures the embedding cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// BreakerConfig configures circuit breaking around model backends
type BreakerConfig struct {
	Enabled          bool    `yaml:"enabled" mapstructure:"enabled"`
	MaxRequests      uint32  `yaml:"max_requests" mapstructure:"max_requests"`
	Interval         int     `yaml:"interval" mapstructure:"interval"` // seconds
	Timeout          int     `yaml:"timeout" mapstructure:"timeout"`   // seconds
	ReadyToTripRatio float64 `yaml:"ready_to_trip_ratio" mapstructure:"ready_to_trip_ratio"`
}

// RateLimitConfig limits calls into the generation backend
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ConcurrencyConfig sizes the batch worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// ServerConfig configures the HTTP service
type ServerConfig struct {
	Addr              string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout       time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"` // per client IP
	Burst             int           `yaml:"burst" mapstructure:"burst"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // console, json
}

// DefaultConfig returns the defaults of the fact-checking service
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Threshold:     0.5,
			TopK:          3,
			MaxInputRunes: 4000,
			Timeouts: TimeoutConfig{
				Classify:   30 * time.Second,
				Extract:    2 * time.Minute,
				Retrieve:   30 * time.Second,
				Synthesize: 5 * time.Minute, // reasoning models are slow on CPU
			},
		},
		Classifier: ClassifierConfig{
			Provider:       "huggingface",
			Backend:        "ollama",
			Model:          "Nithiwat/bert-base_claimbuster",
			BaseURL:        "https://api-inference.huggingface.co",
			Timeout:        30,
			PositiveLabels: []string{"CFS", "LABEL_1", "CHECKWORTHY"},
		},
		Extraction: LLMConfig{
			Provider:    "ollama",
			Model:       "gemma:7b",
			BaseURL:     "http://localhost:11434",
			Timeout:     120,
			MaxTokens:   256,
			Temperature: 0.1,
		},
		Synthesis: SynthesisConfig{
			LLMConfig: LLMConfig{
				Provider:    "ollama",
				Model:       "deepseek-r1:7b",
				BaseURL:     "http://localhost:11434",
				Timeout:     300,
				MaxTokens:   1024,
				Temperature: 0.2,
			},
			DefaultConfidence: 0.5,
		},
		Embedding: EmbeddingConfig{
			Provider: "ollama",
			Model:    "qwen3-embedding:0.6b",
			BaseURL:  "http://localhost:11434",
			Timeout:  30,
		},
		Store: StoreConfig{
			Driver:     "sqlite",
			Path:       "artifacts/facts.db",
			Collection: "verified_facts",
		},
		Corpus: CorpusConfig{
			CSVPath:       "artifacts/verified_facts.csv",
			UserAgent:     "factcheck/0.1 (+https://github.com/ppiankov/factcheck)",
			MaxBytes:      10_000_000,
			IngestOnStart: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".factcheck-cache",
			MemoryTTL: 1 * time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Breaker: BreakerConfig{
			Enabled:          true,
			MaxRequests:      1,
			Interval:         60,
			Timeout:          30,
			ReadyToTripRatio: 0.6,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Server: ServerConfig{
			Addr:              ":8000",
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      6 * time.Minute,
			RequestsPerSecond: 1,
			Burst:             5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks the configuration for values no component can work with
func (c *Config) Validate() error {
	var problems []string

	if c.Pipeline.Threshold < 0 || c.Pipeline.Threshold > 1 {
		problems = append(problems, fmt.Sprintf("pipeline.threshold must be in [0,1], got %v", c.Pipeline.Threshold))
	}
	if c.Pipeline.TopK < 1 {
		problems = append(problems, fmt.Sprintf("pipeline.top_k must be >= 1, got %d", c.Pipeline.TopK))
	}
	if c.Pipeline.MaxInputRunes < 1 {
		problems = append(problems, "pipeline.max_input_runes must be positive")
	}
	t := c.Pipeline.Timeouts
	if t.Classify <= 0 || t.Extract <= 0 || t.Retrieve <= 0 || t.Synthesize <= 0 {
		problems = append(problems, "pipeline.timeouts must all be positive")
	}
	if c.Synthesis.DefaultConfidence < 0 || c.Synthesis.DefaultConfidence > 1 {
		problems = append(problems, fmt.Sprintf("synthesis.default_confidence must be in [0,1], got %v", c.Synthesis.DefaultConfidence))
	}
	if c.Classifier.Model == "" {
		problems = append(problems, "classifier.model is required")
	}
	if c.Extraction.Model == "" {
		problems = append(problems, "extraction.model is required")
	}
	if c.Synthesis.Model == "" {
		problems = append(problems, "synthesis.model is required")
	}
	if c.Embedding.Model == "" {
		problems = append(problems, "embedding.model is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
