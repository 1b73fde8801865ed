package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RangeScout/internal/model"
)

const yahooBody = `{"chart":{"result":[{
  "meta":{"gmtoffset":-14400},
  "timestamp":[1709560200,1709646600,1709733000,1709819400],
  "indicators":{"quote":[{
    "open":[100.0,101.0,null,103.0],
    "high":[102.0,103.0,null,105.0],
    "low":[99.0,100.5,null,101.0],
    "close":[101.5,102.5,null,104.0],
    "volume":[1000,2000,null,3000]
  }]}
}],"error":null}}`

func TestYahooFetcher_ParsesChartAndSkipsNullRows(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/AAPL", r.URL.Path)
		gotQuery = map[string]string{
			"period1":  r.URL.Query().Get("period1"),
			"period2":  r.URL.Query().Get("period2"),
			"interval": r.URL.Query().Get("interval"),
		}
		_, _ = w.Write([]byte(yahooBody))
	}))
	defer srv.Close()

	f := NewYahooFetcher("", nil)
	f.BaseURL = srv.URL

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	bars, err := f.Fetch(context.Background(), "AAPL", start, end)
	require.NoError(t, err)

	assert.Equal(t, "1709251200", gotQuery["period1"])
	// period2 is exclusive: April 1.
	assert.Equal(t, "1711929600", gotQuery["period2"])
	assert.Equal(t, "1d", gotQuery["interval"])

	require.Len(t, bars, 3)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), bars[2].Date)
	assert.Equal(t, 99.0, bars[0].Low)
	assert.Equal(t, 104.0, bars[2].Close)
}

func TestYahooFetcher_MapsIndexSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/^GSPC", r.URL.Path)
		_, _ = w.Write([]byte(yahooBody))
	}))
	defer srv.Close()

	f := NewYahooFetcher("", nil)
	f.BaseURL = srv.URL
	_, err := f.Fetch(context.Background(), "SPX500",
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
}

func TestYahooFetcher_StatusClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		noData    bool
		transient bool
	}{
		{name: "not found", status: http.StatusNotFound, noData: true},
		{name: "rate limited", status: http.StatusTooManyRequests, transient: true},
		{name: "server error", status: http.StatusBadGateway, transient: true},
		{name: "bad request", status: http.StatusBadRequest},
		{name: "chart not found", status: http.StatusOK, body: `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`, noData: true},
		{name: "empty result", status: http.StatusOK, body: `{"chart":{"result":[],"error":null}}`, noData: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			f := NewYahooFetcher("", nil)
			f.BaseURL = srv.URL
			_, err := f.Fetch(context.Background(), "ZZZZ", time.Now().AddDate(0, -1, 0), time.Now())
			require.Error(t, err)
			assert.Equal(t, tt.noData, errors.Is(err, ErrNoData), "no data: %v", err)
			assert.Equal(t, tt.transient, IsTransient(err), "transient: %v", err)
		})
	}
}

func TestNormalizeBars_SortsDedupesAndClips(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC) }
	in := []model.PriceBar{
		{Date: d(6), Close: 3},
		{Date: d(2), Close: 1},
		{Date: d(3).Add(15 * time.Hour), Close: 2},
		{Date: d(3), Close: 22},
		{Date: d(20), Close: 9},
	}
	out := normalizeBars(in, d(1), d(10))
	require.Len(t, out, 3)
	assert.Equal(t, d(2), out[0].Date)
	assert.Equal(t, d(3), out[1].Date)
	assert.Equal(t, 2.0, out[1].Close, "latest snapshot of the day wins")
	assert.Equal(t, d(6), out[2].Date)
}
