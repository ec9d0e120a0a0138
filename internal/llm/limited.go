package llm

import "context"

// Waiter blocks until a call for key may proceed
type Waiter interface {
	Wait(ctx context.Context, key string) error
}

// LimitedGenerator rate limits calls into a generation backend
type LimitedGenerator struct {
	gen    Generator
	waiter Waiter
	key    string
}

// NewLimitedGenerator wraps gen so every Generate call waits on w for key.
// A nil waiter returns gen unchanged.
func NewLimitedGenerator(gen Generator, w Waiter, key string) Generator {
	if w == nil {
		return gen
	}
	return &LimitedGenerator{gen: gen, waiter: w, key: key}
}

// Name returns the wrapped generator's name
func (g *LimitedGenerator) Name() string {
	return g.gen.Name()
}

// IsAvailable is not rate limited
func (g *LimitedGenerator) IsAvailable(ctx context.Context) bool {
	return g.gen.IsAvailable(ctx)
}

// Generate waits for a slot, then calls the wrapped generator
func (g *LimitedGenerator) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if err := g.waiter.Wait(ctx, g.key); err != nil {
		return nil, err
	}
	return g.gen.Generate(ctx, req)
}
