package collector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"RangeScout/internal/model"
)

// Fetcher retrieves daily bars for a symbol over [start, end] (calendar dates, inclusive).
// It returns ErrNoData when the provider has nothing for the symbol or range.
type Fetcher interface {
	Fetch(ctx context.Context, symbol model.Symbol, start, end time.Time) ([]model.PriceBar, error)
	Name() string
}

// ErrNoData is returned when a provider has no bars for the request.
var ErrNoData = errors.New("no data for symbol/range")

// TransientError wraps failures worth retrying: network errors, rate limits, 5xx.
type TransientError struct {
	Provider string
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient: %v", e.Provider, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// transientStatus reports whether an HTTP status code signals a retryable failure.
func transientStatus(code int) bool {
	return code == 429 || code >= 500
}

// normalizeBars sorts bars by date, keeps the last bar for a repeated calendar
// date, and drops bars outside [start, end].
//
// Yahoo returns the live session as an extra row sharing today's date with the
// daily bar, so provider adapters collapse repeats to the latest snapshot.
// Fetchers that skip this step hand duplicates to the analyzer, which rejects
// the symbol as invalid price data.
func normalizeBars(bars []model.PriceBar, start, end time.Time) []model.PriceBar {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	startDay, endDay := model.DateOf(start), model.DateOf(end)
	out := make([]model.PriceBar, 0, len(bars))
	for _, b := range bars {
		d := model.DateOf(b.Date)
		if d.Before(startDay) || d.After(endDay) {
			continue
		}
		b.Date = d
		if n := len(out); n > 0 && out[n-1].Date.Equal(d) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
