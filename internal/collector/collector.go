package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"RangeScout/internal/calculator"
	"RangeScout/internal/model"
	"RangeScout/internal/period"
)

// Collector orchestrates data fetching and analysis for one symbol at a time.
type Collector struct {
	Fetcher  Fetcher
	Resolver period.Resolver
	Logger   *zap.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, resolver period.Resolver, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{Fetcher: fetcher, Resolver: resolver, Logger: logger}
}

// Collect fetches the bars covering both periods for now and returns an
// ExtremumResult, or a RetestResult when mode is ModeRetest.
func (c *Collector) Collect(ctx context.Context, symbol model.Symbol, mode model.Mode, retestTolerancePct float64, now time.Time) (model.Result, error) {
	ref := c.Resolver.ReferencePeriod(now)
	eval := c.Resolver.EvaluationPeriod(now)
	start, end := c.Resolver.FetchRange(now)

	bars, err := c.Fetcher.Fetch(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}

	base, err := calculator.Analyze(symbol, bars, ref, eval)
	if err != nil {
		return nil, err
	}
	if mode != model.ModeRetest {
		return base, nil
	}
	retest, err := calculator.AnalyzeRetest(symbol, bars, base, eval, retestTolerancePct)
	if err != nil {
		return nil, err
	}
	return retest, nil
}

// Classify maps a Collect error to the reason a symbol is skipped.
func Classify(symbol model.Symbol, err error) model.Skip {
	skip := model.Skip{Symbol: symbol, Detail: err.Error()}

	var noData *calculator.NoDataError
	var invalid *calculator.InvalidPriceDataError
	switch {
	case errors.As(err, &noData):
		skip.Reason = noData.Reason
	case errors.As(err, &invalid):
		skip.Reason = model.SkipInvalidPriceData
	case errors.Is(err, ErrNoData):
		skip.Reason = model.SkipNoData
	case IsTransient(err):
		skip.Reason = model.SkipProviderUnavailable
	default:
		skip.Reason = model.SkipNoData
	}
	return skip
}

// Options selects and tunes the price provider chain.
type Options struct {
	Provider   string // yahoo, alpaca or eodhd
	APIKey     string
	APISecret  string
	BaseURL    string
	Exchange   string // eodhd only; empty keeps DefaultEODHDExchange
	Proxy      string
	RateLimit  float64
	MaxRetries int
	Backoff    time.Duration
	CacheTTL   time.Duration
	CacheSize  int
}

// New builds the provider for opts wrapped as cache -> retry -> rate limit -> provider.
func New(opts Options, logger *zap.Logger) (Fetcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var base Fetcher
	switch opts.Provider {
	case "", "yahoo":
		y := NewYahooFetcher(opts.Proxy, logger)
		if opts.BaseURL != "" {
			y.BaseURL = opts.BaseURL
		}
		base = y
	case "alpaca":
		if opts.APIKey == "" || opts.APISecret == "" {
			return nil, fmt.Errorf("alpaca provider requires api key and secret")
		}
		base = NewAlpacaFetcher(opts.APIKey, opts.APISecret, logger)
	case "eodhd":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("eodhd provider requires an api key")
		}
		eopts := []EODHDOption{
			WithEODHDBaseURL(opts.BaseURL),
			WithEODHDHTTPClient(newHTTPClient(opts.Proxy)),
			WithEODHDLogger(logger),
		}
		if opts.Exchange != "" {
			eopts = append(eopts, WithEODHDExchange(opts.Exchange))
		}
		base = NewEODHDFetcher(opts.APIKey, eopts...)
	default:
		return nil, fmt.Errorf("unknown data provider %q", opts.Provider)
	}

	var f Fetcher = NewRateLimitedFetcher(base, opts.RateLimit)
	f = NewRetryFetcher(f, opts.MaxRetries, opts.Backoff, logger)
	if opts.CacheTTL > 0 {
		f = NewCachedFetcher(f, opts.CacheTTL, opts.CacheSize)
	}
	return f, nil
}
