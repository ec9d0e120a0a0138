package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/ppiankov/factcheck/internal/errs"
	"github.com/ppiankov/factcheck/internal/logger"
	"github.com/ppiankov/factcheck/internal/model"
)

// NewBreaker builds a circuit breaker for one model backend. It trips once
// at least three requests were seen and the failure ratio reaches the
// configured threshold. Caller cancellations are not counted as failures.
func NewBreaker(name string, cfg model.BreakerConfig) *gobreaker.CircuitBreaker {
	ratio := cfg.ReadyToTripRatio
	if ratio <= 0 {
		ratio = 0.6
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 3 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= ratio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			ev := logger.Named("breaker").Info()
			if to == gobreaker.StateOpen {
				ev = logger.Named("breaker").Warn()
			}
			ev.Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}

	return gobreaker.NewCircuitBreaker(st)
}

// BreakerError converts the breaker's own rejections into ModelUnavailable
func BreakerError(op string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return errs.Wrap(errs.KindModelUnavailable, op, err, "circuit open")
	}
	return err
}

// BreakerGenerator wraps a Generator with circuit breaking logic
type BreakerGenerator struct {
	gen Generator
	cb  *gobreaker.CircuitBreaker
}

// NewBreakerGenerator wraps gen; a disabled config returns gen unchanged
func NewBreakerGenerator(gen Generator, cfg model.BreakerConfig, name string) Generator {
	if !cfg.Enabled {
		return gen
	}
	return &BreakerGenerator{gen: gen, cb: NewBreaker(name, cfg)}
}

// Name implements Generator
func (b *BreakerGenerator) Name() string {
	return b.gen.Name()
}

// IsAvailable implements Generator; an open circuit reports unavailable
func (b *BreakerGenerator) IsAvailable(ctx context.Context) bool {
	if b.cb.State() == gobreaker.StateOpen {
		return false
	}
	return b.gen.IsAvailable(ctx)
}

// Generate implements Generator
func (b *BreakerGenerator) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	resp, err := b.cb.Execute(func() (interface{}, error) {
		return b.gen.Generate(ctx, req)
	})
	if err != nil {
		return nil, BreakerError("llm."+b.gen.Name(), err)
	}
	return resp.(*GenerateResponse), nil
}
