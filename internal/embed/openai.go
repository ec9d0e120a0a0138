package embed

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/factcheck/internal/model"
	"github.com/ppiankov/factcheck/internal/util"
)

// OpenAI embeds text through the OpenAI embeddings API
type OpenAI struct {
	client    *openai.Client
	model     string
	requested int
	dims      dims
}

// NewOpenAI creates an OpenAI embedder
func NewOpenAI(cfg model.EmbeddingConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = util.NewHTTPClient(util.Seconds(cfg.Timeout, 30*time.Second), "", "", "")

	m := cfg.Model
	if m == "" {
		m = string(openai.SmallEmbedding3)
	}
	o := &OpenAI{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     m,
		requested: cfg.Dimensions,
	}
	o.dims.n.Store(int64(cfg.Dimensions))
	return o, nil
}

// Model returns the embedding model name
func (o *OpenAI) Model() string { return o.model }

// Dimensions returns the vector dimension
func (o *OpenAI) Dimensions() int { return o.dims.get() }

// Embed implements Embedder
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch implements BatchEmbedder
func (o *OpenAI) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no input texts provided")
	}

	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(o.model),
		Dimensions: o.requested,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("OpenAI returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("OpenAI returned embedding index %d out of range", d.Index)
		}
		if err := o.dims.observe(d.Embedding); err != nil {
			return nil, err
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
