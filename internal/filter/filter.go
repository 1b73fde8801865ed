// Package filter applies the user's thresholds to per-symbol results and
// orders the survivors. Inputs are never modified.
package filter

import (
	"math"
	"sort"

	"RangeScout/internal/model"
)

// ByProximity keeps results whose distance to the reference low is within
// thresholdPct either side, ordered by signed distance ascending.
func ByProximity(results []model.ExtremumResult, thresholdPct float64) []model.ExtremumResult {
	return byDistance(results, thresholdPct, func(r model.ExtremumResult) float64 { return r.DistanceToLowPct })
}

// ByProximityToHigh is ByProximity measured against the reference high.
func ByProximityToHigh(results []model.ExtremumResult, thresholdPct float64) []model.ExtremumResult {
	return byDistance(results, thresholdPct, func(r model.ExtremumResult) float64 { return r.DistanceToHighPct })
}

func byDistance(results []model.ExtremumResult, thresholdPct float64, dist func(model.ExtremumResult) float64) []model.ExtremumResult {
	out := make([]model.ExtremumResult, 0, len(results))
	for _, r := range results {
		if math.Abs(dist(r)) <= thresholdPct {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := dist(out[i]), dist(out[j])
		if di != dj {
			return di < dj
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// ByRetestAndBounce keeps results whose evaluation low lies within
// retestTolerancePct of the reference low and whose bounce is at least
// minBouncePct, ordered by bounce descending.
func ByRetestAndBounce(results []model.RetestResult, retestTolerancePct, minBouncePct float64) []model.RetestResult {
	out := make([]model.RetestResult, 0, len(results))
	for _, r := range results {
		if r.ReferenceLow <= 0 {
			continue
		}
		if math.Abs(r.EvaluationLowDistancePct()) > retestTolerancePct {
			continue
		}
		if r.BouncePct < minBouncePct {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].BouncePct != out[j].BouncePct {
			return out[i].BouncePct > out[j].BouncePct
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// Criteria bundles the thresholds of one scan.
type Criteria struct {
	Mode                  model.Mode
	ProximityThresholdPct float64
	RetestTolerancePct    float64
	MinBouncePct          float64
}

// Apply runs the filter selected by c.Mode over mixed results.
func Apply(results []model.Result, c Criteria) []model.Result {
	switch c.Mode {
	case model.ModeRetest:
		kept := ByRetestAndBounce(model.Retests(results), c.RetestTolerancePct, c.MinBouncePct)
		out := make([]model.Result, len(kept))
		for i, r := range kept {
			out[i] = r
		}
		return out
	case model.ModeHigh:
		return wrap(ByProximityToHigh(model.Extrema(results), c.ProximityThresholdPct))
	default:
		return wrap(ByProximity(model.Extrema(results), c.ProximityThresholdPct))
	}
}

func wrap(rs []model.ExtremumResult) []model.Result {
	out := make([]model.Result, len(rs))
	for i, r := range rs {
		out[i] = r
	}
	return out
}
