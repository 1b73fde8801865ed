package collector

import (
	"context"
	"sync"
	"time"

	"RangeScout/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Series map[model.Symbol][]model.PriceBar
	Errs   map[model.Symbol]error
	// Delay is applied before each response; the context can interrupt it.
	Delay time.Duration

	mu    sync.Mutex
	calls map[model.Symbol]int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) Fetch(ctx context.Context, symbol model.Symbol, start, end time.Time) ([]model.PriceBar, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[model.Symbol]int)
	}
	m.calls[symbol]++
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Delay):
		}
	}
	if err, ok := m.Errs[symbol]; ok {
		return nil, err
	}
	bars, ok := m.Series[symbol]
	if !ok || len(bars) == 0 {
		return nil, ErrNoData
	}
	out := make([]model.PriceBar, len(bars))
	copy(out, bars)
	return out, nil
}

// Calls returns how many times symbol was fetched.
func (m *MockFetcher) Calls(symbol model.Symbol) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

// GenerateBars builds one bar per weekday in [start, end] around basePrice.
func GenerateBars(basePrice float64, start, end time.Time) []model.PriceBar {
	var bars []model.PriceBar
	i := 0
	for d := model.DateOf(start); !d.After(model.DateOf(end)); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		p := basePrice * (1 + float64(i%20-10)*0.001)
		bars = append(bars, model.PriceBar{
			Date:   d,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
		i++
	}
	return bars
}
