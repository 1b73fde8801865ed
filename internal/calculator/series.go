package calculator

import (
	"fmt"
	"math"
	"sort"

	"RangeScout/internal/model"
)

// prepare returns the bars ordered by date without touching the caller's slice.
// Two bars on the same calendar date are rejected.
func prepare(sym model.Symbol, bars []model.PriceBar) ([]model.PriceBar, error) {
	sorted := bars
	if !sort.SliceIsSorted(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) }) {
		sorted = make([]model.PriceBar, len(bars))
		copy(sorted, bars)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	}
	for i := 1; i < len(sorted); i++ {
		if model.DateOf(sorted[i].Date).Equal(model.DateOf(sorted[i-1].Date)) {
			return nil, &InvalidPriceDataError{
				Symbol: sym,
				Detail: "duplicate bar for " + sorted[i].Date.Format("2006-01-02"),
			}
		}
	}
	return sorted, nil
}

// inPeriod selects the bars whose date falls inside p. bars must be sorted.
func inPeriod(bars []model.PriceBar, p model.Period) []model.PriceBar {
	var out []model.PriceBar
	for _, b := range bars {
		if p.Contains(b.Date) {
			out = append(out, b)
		}
	}
	if p.Sessions > 0 && len(out) > p.Sessions {
		out = out[len(out)-p.Sessions:]
	}
	return out
}

func validBar(sym model.Symbol, b model.PriceBar) error {
	for _, v := range []float64{b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return &InvalidPriceDataError{
				Symbol: sym,
				Detail: fmt.Sprintf("bad OHLC on %s (high=%v low=%v close=%v)", b.Date.Format("2006-01-02"), b.High, b.Low, b.Close),
			}
		}
	}
	if b.Low > b.High {
		return &InvalidPriceDataError{
			Symbol: sym,
			Detail: fmt.Sprintf("low %.4f above high %.4f on %s", b.Low, b.High, b.Date.Format("2006-01-02")),
		}
	}
	return nil
}

func validBars(sym model.Symbol, bars []model.PriceBar) error {
	for _, b := range bars {
		if err := validBar(sym, b); err != nil {
			return err
		}
	}
	return nil
}

// lowest returns the minimum low and its bar. Ties keep the earliest date.
func lowest(bars []model.PriceBar) (float64, model.PriceBar) {
	low := math.Inf(1)
	var at model.PriceBar
	for _, b := range bars {
		if b.Low < low {
			low = b.Low
			at = b
		}
	}
	return low, at
}

// highest returns the maximum high and its bar. Ties keep the earliest date.
func highest(bars []model.PriceBar) (float64, model.PriceBar) {
	high := math.Inf(-1)
	var at model.PriceBar
	for _, b := range bars {
		if b.High > high {
			high = b.High
			at = b
		}
	}
	return high, at
}

// PercentChange returns (value - base) / base * 100.
func PercentChange(value, base float64) float64 {
	return (value - base) / base * 100
}
