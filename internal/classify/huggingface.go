package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/factcheck/internal/model"
	"github.com/ppiankov/factcheck/internal/util"
)

// HuggingFace classifies text with a hosted text-classification model
// through the HF Inference API.
type HuggingFace struct {
	baseURL    string
	model      string
	apiKey     string
	positive   []string
	httpClient *http.Client
}

type hfRequest struct {
	Inputs  string    `json:"inputs"`
	Options hfOptions `json:"options"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type hfError struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time,omitempty"`
}

// NewHuggingFace creates a HuggingFace classifier
func NewHuggingFace(cfg model.ClassifierConfig) (*HuggingFace, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("huggingface classifier model is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api-inference.huggingface.co"
	}

	return &HuggingFace{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		positive:   cfg.PositiveLabels,
		httpClient: util.NewHTTPClient(util.Seconds(cfg.Timeout, 30*time.Second), "", "", ""),
	}, nil
}

// Name returns the provider name
func (h *HuggingFace) Name() string {
	return "huggingface"
}

// Classify implements Classifier
func (h *HuggingFace) Classify(ctx context.Context, text string) (Label, error) {
	body, err := json.Marshal(hfRequest{Inputs: text, Options: hfOptions{WaitForModel: true}})
	if err != nil {
		return Label{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s", h.baseURL, h.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Label{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return Label{}, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Label{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr hfError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return Label{}, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return Label{}, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	labels, err := decodeLabels(respBody)
	if err != nil {
		return Label{}, err
	}
	return ScoreLabels(labels, h.positive)
}

// decodeLabels accepts both [[{label,score}...]] and [{label,score}...]
func decodeLabels(body []byte) ([]Label, error) {
	var nested [][]Label
	if err := json.Unmarshal(body, &nested); err == nil {
		if len(nested) == 0 {
			return nil, fmt.Errorf("classifier returned no labels")
		}
		return nested[0], nil
	}

	var flat []Label
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return flat, nil
}
