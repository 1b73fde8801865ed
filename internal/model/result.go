package model

import "time"

// Result is one symbol's analysis outcome. It is either an ExtremumResult
// (proximity modes) or a RetestResult (retest-and-bounce mode).
type Result interface {
	Ticker() Symbol
	Base() ExtremumResult
	isResult()
}

// ExtremumResult compares the current price against the reference period's extremes.
type ExtremumResult struct {
	Symbol            Symbol
	ReferenceLow      float64
	ReferenceLowDate  time.Time
	ReferenceHigh     float64
	ReferenceHighDate time.Time
	CurrentPrice      float64
	CurrentDate       time.Time
	DistanceToLowPct  float64 // positive: current price above the reference low
	DistanceToHighPct float64 // positive: current price above the reference high
}

func (r ExtremumResult) Ticker() Symbol       { return r.Symbol }
func (r ExtremumResult) Base() ExtremumResult { return r }
func (ExtremumResult) isResult()              {}

// RetestResult extends ExtremumResult with the evaluation period's own trough
// and how often it came back to the reference low.
type RetestResult struct {
	ExtremumResult
	EvaluationLow      float64
	EvaluationLowDate  time.Time
	RetestTolerancePct float64
	TouchCount         int
	TouchDates         []time.Time
	BouncePct          float64
}

// RetestBandHigh is the upper bound of the tolerance band around the reference low.
func (r RetestResult) RetestBandHigh() float64 {
	return r.ReferenceLow * (1 + r.RetestTolerancePct/100)
}

// EvaluationLowDistancePct is the signed distance of the evaluation low from the reference low.
func (r RetestResult) EvaluationLowDistancePct() float64 {
	return (r.EvaluationLow - r.ReferenceLow) / r.ReferenceLow * 100
}

// Extrema unwraps a slice of results into their ExtremumResult parts.
func Extrema(results []Result) []ExtremumResult {
	out := make([]ExtremumResult, 0, len(results))
	for _, r := range results {
		out = append(out, r.Base())
	}
	return out
}

// Retests returns the RetestResult values contained in results.
func Retests(results []Result) []RetestResult {
	out := make([]RetestResult, 0, len(results))
	for _, r := range results {
		if rr, ok := r.(RetestResult); ok {
			out = append(out, rr)
		}
	}
	return out
}
