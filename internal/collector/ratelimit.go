package collector

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"RangeScout/internal/model"
)

// RateLimitedFetcher waits on a shared token bucket before each call.
type RateLimitedFetcher struct {
	next    Fetcher
	limiter *rate.Limiter
}

// NewRateLimitedFetcher allows requestsPerSecond calls per second with an equal burst.
// A non-positive rate disables limiting.
func NewRateLimitedFetcher(next Fetcher, requestsPerSecond float64) *RateLimitedFetcher {
	limit := rate.Inf
	burst := 1
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
		burst = int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return &RateLimitedFetcher{next: next, limiter: rate.NewLimiter(limit, burst)}
}

func (f *RateLimitedFetcher) Name() string { return f.next.Name() }

func (f *RateLimitedFetcher) Fetch(ctx context.Context, symbol model.Symbol, start, end time.Time) ([]model.PriceBar, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return f.next.Fetch(ctx, symbol, start, end)
}
