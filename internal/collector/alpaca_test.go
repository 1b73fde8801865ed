package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"RangeScout/internal/model"
)

type fakeBarsClient struct {
	bars []marketdata.Bar
	err  error
	req  marketdata.GetBarsRequest
}

func (f *fakeBarsClient) GetBars(_ string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error) {
	f.req = req
	return f.bars, f.err
}

func TestAlpacaFetcher_ConvertsBars(t *testing.T) {
	ny := time.FixedZone("EST", -5*3600)
	client := &fakeBarsClient{bars: []marketdata.Bar{
		{Timestamp: time.Date(2025, 1, 3, 5, 0, 0, 0, time.UTC), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100},
		{Timestamp: time.Date(2025, 1, 2, 0, 0, 0, 0, ny).UTC(), Open: 9, High: 10, Low: 8, Close: 9.5, Volume: 200},
	}}
	f := &AlpacaFetcher{client: client, logger: zap.NewNop()}

	bars, err := f.Fetch(context.Background(), "AAPL", jan1, jan31)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, 9.5, bars[0].Close)
	assert.Equal(t, 200.0, bars[0].Volume)

	assert.Equal(t, marketdata.OneDay, client.req.TimeFrame)
	assert.Equal(t, jan31.AddDate(0, 0, 1), client.req.End)
}

func TestAlpacaFetcher_NetworkErrorsAreTransient(t *testing.T) {
	f := &AlpacaFetcher{client: &fakeBarsClient{err: errors.New("boom")}, logger: zap.NewNop()}
	_, err := f.Fetch(context.Background(), "AAPL", jan1, jan31)
	assert.True(t, IsTransient(err))
}

func TestAlpacaFetcher_EmptyIsNoData(t *testing.T) {
	f := &AlpacaFetcher{client: &fakeBarsClient{}, logger: zap.NewNop()}
	_, err := f.Fetch(context.Background(), "AAPL", jan1, jan31)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestAlpacaFetcher_ClassifiesAPIErrors(t *testing.T) {
	tests := []struct {
		status    int
		transient bool
		noData    bool
		reason    model.SkipReason
	}{
		{status: 403, reason: model.SkipNoData},
		{status: 404, noData: true, reason: model.SkipNoData},
		{status: 422, noData: true, reason: model.SkipNoData},
		{status: 429, transient: true, reason: model.SkipProviderUnavailable},
		{status: 503, transient: true, reason: model.SkipProviderUnavailable},
	}
	for _, tt := range tests {
		apiErr := &alpaca.APIError{StatusCode: tt.status, Message: "nope"}
		f := &AlpacaFetcher{client: &fakeBarsClient{err: apiErr}, logger: zap.NewNop()}
		_, err := f.Fetch(context.Background(), "AAPL", jan1, jan31)
		require.Error(t, err, "status %d", tt.status)

		var got *alpaca.APIError
		assert.ErrorAs(t, err, &got, "status %d", tt.status)
		assert.Equal(t, tt.transient, IsTransient(err), "status %d", tt.status)
		assert.Equal(t, tt.noData, errors.Is(err, ErrNoData), "status %d", tt.status)
		assert.Equal(t, tt.reason, Classify("AAPL", err).Reason, "status %d", tt.status)
	}
}

func TestAlpacaFetcher_PermanentErrorIsNotRetried(t *testing.T) {
	client := &countingBarsClient{err: &alpaca.APIError{StatusCode: 403, Message: "forbidden"}}
	f := NewRetryFetcher(&AlpacaFetcher{client: client, logger: zap.NewNop()}, 3, time.Millisecond, nil)

	_, err := f.Fetch(context.Background(), "AAPL", jan1, jan31)
	require.Error(t, err)
	assert.Equal(t, 1, client.calls)
	assert.False(t, IsTransient(err))
}

type countingBarsClient struct {
	err   error
	calls int
}

func (c *countingBarsClient) GetBars(string, marketdata.GetBarsRequest) ([]marketdata.Bar, error) {
	c.calls++
	return nil, c.err
}
