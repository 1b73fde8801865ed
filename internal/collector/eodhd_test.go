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
)

func TestEODHDFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/eod/MSFT.US", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2024-01-01", q.Get("from"))
		assert.Equal(t, "2025-02-14", q.Get("to"))
		assert.Equal(t, "d", q.Get("period"))
		assert.Equal(t, "secret", q.Get("api_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"date":"2025-02-13","open":410,"high":415,"low":408,"close":412,"adjusted_close":412,"volume":100},
			{"date":"2024-01-02","open":370,"high":375,"low":366,"close":370.8,"adjusted_close":368,"volume":200},
			{"date":"garbage","open":1,"high":1,"low":1,"close":1,"volume":1}
		]`))
	}))
	defer srv.Close()

	f := NewEODHDFetcher("secret", WithEODHDBaseURL(srv.URL))
	bars, err := f.Fetch(context.Background(), "MSFT",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, 366.0, bars[0].Low)
	assert.Equal(t, 412.0, bars[1].Close)
}

func TestEODHDFetcher_KeepsExplicitExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/eod/BHP.AU", r.URL.Path)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	f := NewEODHDFetcher("k", WithEODHDBaseURL(srv.URL))
	_, err := f.Fetch(context.Background(), "BHP.AU", time.Now().AddDate(0, -1, 0), time.Now())
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestEODHDFetcher_Errors(t *testing.T) {
	tests := []struct {
		status    int
		noData    bool
		transient bool
	}{
		{status: http.StatusNotFound, noData: true},
		{status: http.StatusTooManyRequests, transient: true},
		{status: http.StatusServiceUnavailable, transient: true},
		{status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("nope"))
			}))
			defer srv.Close()

			f := NewEODHDFetcher("k", WithEODHDBaseURL(srv.URL))
			_, err := f.Fetch(context.Background(), "AAPL", time.Now().AddDate(0, -1, 0), time.Now())
			require.Error(t, err)
			assert.Equal(t, tt.noData, errors.Is(err, ErrNoData))
			assert.Equal(t, tt.transient, IsTransient(err))

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
		})
	}
}
