package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"RangeScout/internal/model"
)

const (
	// DefaultEODHDBaseURL is the base URL for the EODHD API.
	DefaultEODHDBaseURL = "https://eodhd.com/api"

	// DefaultEODHDExchange is appended to symbols without an exchange suffix.
	DefaultEODHDExchange = "US"
)

// APIError is a non-2xx response from a REST provider.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d) at %s: %s", e.Provider, e.StatusCode, e.Endpoint, e.Message)
}

// EODHDFetcher implements Fetcher using the EODHD end-of-day endpoint.
type EODHDFetcher struct {
	baseURL    string
	apiKey     string
	exchange   string
	httpClient *http.Client
	logger     *zap.Logger
}

// EODHDOption configures the EODHDFetcher.
type EODHDOption func(*EODHDFetcher)

// WithEODHDBaseURL sets a custom base URL.
func WithEODHDBaseURL(baseURL string) EODHDOption {
	return func(f *EODHDFetcher) {
		if baseURL != "" {
			f.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithEODHDHTTPClient sets a custom HTTP client.
func WithEODHDHTTPClient(c *http.Client) EODHDOption {
	return func(f *EODHDFetcher) {
		f.httpClient = c
	}
}

// WithEODHDLogger sets a logger.
func WithEODHDLogger(logger *zap.Logger) EODHDOption {
	return func(f *EODHDFetcher) {
		f.logger = logger
	}
}

// WithEODHDExchange sets the exchange suffix used for bare tickers.
func WithEODHDExchange(exchange string) EODHDOption {
	return func(f *EODHDFetcher) {
		f.exchange = exchange
	}
}

// NewEODHDFetcher creates a new EODHD fetcher.
func NewEODHDFetcher(apiKey string, opts ...EODHDOption) *EODHDFetcher {
	f := &EODHDFetcher{
		baseURL:    DefaultEODHDBaseURL,
		apiKey:     apiKey,
		exchange:   DefaultEODHDExchange,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *EODHDFetcher) Name() string { return "eodhd" }

// eodBar is one row of the /eod response.
type eodBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

func (f *EODHDFetcher) ticker(symbol model.Symbol) string {
	s := string(symbol)
	if strings.Contains(s, ".") || f.exchange == "" {
		return s
	}
	return s + "." + f.exchange
}

// Fetch retrieves daily bars for [start, end]; EODHD's from/to are both inclusive.
func (f *EODHDFetcher) Fetch(ctx context.Context, symbol model.Symbol, start, end time.Time) ([]model.PriceBar, error) {
	path := "/eod/" + url.PathEscape(f.ticker(symbol))
	params := url.Values{}
	params.Set("from", model.DateOf(start).Format("2006-01-02"))
	params.Set("to", model.DateOf(end).Format("2006-01-02"))
	params.Set("period", "d")
	params.Set("order", "a")
	params.Set("fmt", "json")
	params.Set("api_token", f.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	f.logger.Debug("EODHD API request", zap.String("url", f.baseURL+path))

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransientError{Provider: f.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{Provider: f.Name(), StatusCode: resp.StatusCode, Message: string(body), Endpoint: path}
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%w: %w", ErrNoData, apiErr)
		case transientStatus(resp.StatusCode):
			return nil, &TransientError{Provider: f.Name(), Err: apiErr}
		default:
			return nil, apiErr
		}
	}

	var rows []eodBar
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	bars := make([]model.PriceBar, 0, len(rows))
	for _, r := range rows {
		d, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			f.logger.Warn("skipping EODHD row with bad date", zap.String("symbol", string(symbol)), zap.String("date", r.Date))
			continue
		}
		bars = append(bars, model.PriceBar{Date: d, Open: r.Open, High: r.High, Low: r.Low, Close: r.Close, Volume: r.Volume})
	}
	bars = normalizeBars(bars, start, end)
	if len(bars) == 0 {
		return nil, fmt.Errorf("eodhd %s: %w", symbol, ErrNoData)
	}
	return bars, nil
}
