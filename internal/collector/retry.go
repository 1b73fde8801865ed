package collector

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"RangeScout/internal/model"
)

// RetryFetcher retries transient failures of the wrapped Fetcher with
// exponential backoff. Permanent failures return immediately.
type RetryFetcher struct {
	next       Fetcher
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

// NewRetryFetcher wraps next. backoff is the first delay; it doubles per attempt.
func NewRetryFetcher(next Fetcher, maxRetries int, backoff time.Duration, logger *zap.Logger) *RetryFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &RetryFetcher{next: next, maxRetries: maxRetries, backoff: backoff, logger: logger}
}

func (r *RetryFetcher) Name() string { return r.next.Name() }

func (r *RetryFetcher) Fetch(ctx context.Context, symbol model.Symbol, start, end time.Time) ([]model.PriceBar, error) {
	var lastErr error
	for i := 0; i <= r.maxRetries; i++ {
		bars, err := r.next.Fetch(ctx, symbol, start, end)
		if err == nil {
			return bars, nil
		}
		if !IsTransient(err) {
			return nil, err
		}
		lastErr = err
		if i == r.maxRetries {
			break
		}
		backoff := r.backoff * time.Duration(1<<uint(i))
		r.logger.Warn("fetch failed, retrying",
			zap.String("provider", r.next.Name()),
			zap.String("symbol", string(symbol)),
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", r.maxRetries+1),
			zap.Duration("backoff", backoff),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return nil, fmt.Errorf("all %d attempts exhausted: %w", r.maxRetries+1, lastErr)
}
