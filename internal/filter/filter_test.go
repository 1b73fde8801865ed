package filter

import (
	"reflect"
	"testing"

	"RangeScout/internal/model"
)

func ext(sym string, current, low, high float64) model.ExtremumResult {
	return model.ExtremumResult{
		Symbol:            model.Symbol(sym),
		ReferenceLow:      low,
		ReferenceHigh:     high,
		CurrentPrice:      current,
		DistanceToLowPct:  (current - low) / low * 100,
		DistanceToHighPct: (current - high) / high * 100,
	}
}

func retest(sym string, refLow, evalLow, current float64) model.RetestResult {
	return model.RetestResult{
		ExtremumResult: ext(sym, current, refLow, refLow*2),
		EvaluationLow:  evalLow,
		BouncePct:      (current - evalLow) / evalLow * 100,
	}
}

func symbolsOf(rs []model.ExtremumResult) []model.Symbol {
	out := make([]model.Symbol, len(rs))
	for i, r := range rs {
		out[i] = r.Symbol
	}
	return out
}

func sample() []model.ExtremumResult {
	return []model.ExtremumResult{
		ext("XYZ", 97, 95, 115),    // +2.1%
		ext("BELOW", 93, 95, 115),  // -2.1%
		ext("FAR", 120, 95, 125),   // +26%
		ext("EDGE", 99.5, 95, 130), // +4.7%
		ext("ABC", 97, 95, 115),    // tie with XYZ
	}
}

func TestByProximity_ThresholdScenario(t *testing.T) {
	r := []model.ExtremumResult{ext("XYZ", 97, 95, 115)}
	if got := ByProximity(r, 5); len(got) != 1 {
		t.Errorf("threshold 5%%: expected XYZ retained, got %v", symbolsOf(got))
	}
	if got := ByProximity(r, 2); len(got) != 0 {
		t.Errorf("threshold 2%%: expected XYZ excluded, got %v", symbolsOf(got))
	}
}

func TestByProximity_SymmetricAndOrdered(t *testing.T) {
	got := symbolsOf(ByProximity(sample(), 5))
	want := []model.Symbol{"BELOW", "ABC", "XYZ", "EDGE"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestByProximity_Idempotent(t *testing.T) {
	once := ByProximity(sample(), 3)
	twice := ByProximity(once, 3)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("filter not idempotent: %v vs %v", symbolsOf(once), symbolsOf(twice))
	}
}

func TestByProximity_Monotonic(t *testing.T) {
	prev := map[model.Symbol]bool{}
	for _, th := range []float64{0, 1, 2.5, 5, 10, 50} {
		cur := map[model.Symbol]bool{}
		for _, r := range ByProximity(sample(), th) {
			cur[r.Symbol] = true
		}
		for s := range prev {
			if !cur[s] {
				t.Errorf("threshold %.1f dropped %s", th, s)
			}
		}
		prev = cur
	}
}

func TestByProximity_DoesNotMutateInput(t *testing.T) {
	in := sample()
	before := append([]model.ExtremumResult(nil), in...)
	ByProximity(in, 50)
	if !reflect.DeepEqual(in, before) {
		t.Error("input slice was modified")
	}
}

func TestByProximityToHigh(t *testing.T) {
	rs := []model.ExtremumResult{
		ext("NEAR", 112, 95, 115),  // -2.6%
		ext("ABOVE", 117, 95, 115), // +1.7%
		ext("LOW", 97, 95, 115),    // -15.7%
	}
	got := symbolsOf(ByProximityToHigh(rs, 3))
	want := []model.Symbol{"NEAR", "ABOVE"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestByRetestAndBounce(t *testing.T) {
	rs := []model.RetestResult{
		retest("SMALL", 100, 100.5, 103), // bounce 2.49%
		retest("BIG", 100, 99, 110),      // bounce 11.1%
		retest("DEEP", 100, 90, 110),     // evaluation low 10% under: fails retest
		retest("FLAT", 100, 100, 101),    // bounce 1%: fails minimum
		retest("TIE", 100, 99, 110),      // same bounce as BIG
	}
	got := ByRetestAndBounce(rs, 1.5, 2)
	var names []model.Symbol
	for _, r := range got {
		names = append(names, r.Symbol)
	}
	want := []model.Symbol{"BIG", "TIE", "SMALL"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("got %v, want %v", names, want)
	}
}

func TestByRetestAndBounce_BounceScenario(t *testing.T) {
	r := retest("XYZ", 90, 90, 99)
	if got := ByRetestAndBounce([]model.RetestResult{r}, 1.5, 2); len(got) != 1 {
		t.Errorf("10%% bounce with 2%% minimum should pass")
	}
}

func TestApply_SelectsVariant(t *testing.T) {
	mixed := []model.Result{ext("XYZ", 97, 95, 115), retest("RT", 100, 99, 110)}

	low := Apply(mixed, Criteria{Mode: model.ModeLow, ProximityThresholdPct: 50})
	if len(low) != 2 {
		t.Errorf("low mode: expected 2 results, got %d", len(low))
	}

	rt := Apply(mixed, Criteria{Mode: model.ModeRetest, RetestTolerancePct: 1.5, MinBouncePct: 2})
	if len(rt) != 1 || rt[0].Ticker() != "RT" {
		t.Fatalf("retest mode: got %v", rt)
	}
	if _, ok := rt[0].(model.RetestResult); !ok {
		t.Errorf("retest mode should yield RetestResult, got %T", rt[0])
	}
}
