package llm

import (
	"context"
	"sync/atomic"
)

// MockGenerator implements the Generator interface for testing
type MockGenerator struct {
	name      string
	available bool
	response  *GenerateResponse
	err       error
	calls     atomic.Int32
}

func (m *MockGenerator) Name() string {
	return m.name
}

func (m *MockGenerator) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *MockGenerator) IsAvailable(ctx context.Context) bool {
	return m.available
}
