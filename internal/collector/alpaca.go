package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"go.uber.org/zap"

	"RangeScout/internal/model"
)

// alpacaBarsClient is the subset of *marketdata.Client the fetcher needs.
type alpacaBarsClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// AlpacaFetcher implements Fetcher using Alpaca's market data API.
type AlpacaFetcher struct {
	client alpacaBarsClient
	logger *zap.Logger
}

// NewAlpacaFetcher creates a fetcher backed by a marketdata client.
func NewAlpacaFetcher(apiKey, apiSecret string, logger *zap.Logger) *AlpacaFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlpacaFetcher{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		}),
		logger: logger,
	}
}

func (f *AlpacaFetcher) Name() string { return "alpaca" }

// Fetch requests daily bars. API errors are classified by status code; other
// SDK errors (network, decoding) are treated as transient.
func (f *AlpacaFetcher) Fetch(ctx context.Context, symbol model.Symbol, start, end time.Time) ([]model.PriceBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := f.client.GetBars(string(symbol), marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     model.DateOf(start),
		End:       model.DateOf(end).AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, f.classify(symbol, err)
	}

	bars := make([]model.PriceBar, len(raw))
	for i, b := range raw {
		bars[i] = model.PriceBar{
			Date:   b.Timestamp,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: float64(b.Volume),
		}
	}
	f.logger.Debug("fetched alpaca bars", zap.String("symbol", string(symbol)), zap.Int("bars", len(bars)))

	bars = normalizeBars(bars, start, end)
	if len(bars) == 0 {
		return nil, fmt.Errorf("alpaca %s: %w", symbol, ErrNoData)
	}
	return bars, nil
}

func (f *AlpacaFetcher) classify(symbol model.Symbol, err error) error {
	wrapped := fmt.Errorf("get bars %s: %w", symbol, err)
	var apiErr *alpaca.APIError
	if !errors.As(err, &apiErr) {
		return &TransientError{Provider: f.Name(), Err: wrapped}
	}
	switch {
	case apiErr.StatusCode == http.StatusNotFound || apiErr.StatusCode == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %w", ErrNoData, wrapped)
	case transientStatus(apiErr.StatusCode):
		return &TransientError{Provider: f.Name(), Err: wrapped}
	default:
		return wrapped
	}
}
