package model

import "strings"

// CheckRequest is the raw text submitted for fact-checking
type CheckRequest struct {
	OriginalInput string `json:"original_input"`
	RequestID     string `json:"request_id,omitempty"`
}

// NewCheckRequest creates a request, keeping the input exactly as received
func NewCheckRequest(input, requestID string) CheckRequest {
	return CheckRequest{OriginalInput: input, RequestID: requestID}
}

// Trimmed returns the input with surrounding whitespace removed
func (r CheckRequest) Trimmed() string {
	return strings.TrimSpace(r.OriginalInput)
}

// ClaimDecision is the claim filter's check-worthiness decision
type ClaimDecision struct {
	IsCheckworthy bool    `json:"is_checkworthy"`
	Score         float64 `json:"score"` // Confidence in [0,1] that the text holds a verifiable assertion
	Label         string  `json:"label,omitempty"`
}

// ExtractedClaim is the single factual statement reduced from the input
type ExtractedClaim struct {
	Text string `json:"text"`
}
