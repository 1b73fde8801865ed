package calculator

import (
	"errors"
	"math"
	"testing"

	"RangeScout/internal/model"
)

func retestBars() []model.PriceBar {
	return []model.PriceBar{
		bar(day(2024, 3, 4), 105, 100, 102),
		bar(day(2024, 7, 8), 98, 95, 96),
		bar(day(2024, 11, 11), 115, 110, 112),
		bar(day(2025, 1, 6), 100, 96.0, 98), // touch: 96.0 <= 96.425
		bar(day(2025, 1, 7), 100, 97.0, 98), // no touch
		bar(day(2025, 2, 3), 99, 90, 92),    // evaluation low, touch
		bar(day(2025, 3, 3), 100, 97.5, 99), // current price 99
	}
}

func TestAnalyzeRetest_TouchesAndBounce(t *testing.T) {
	bars := retestBars()
	base, err := Analyze("XYZ", bars, ref2024, ytd2025)
	if err != nil {
		t.Fatal(err)
	}
	r, err := AnalyzeRetest("XYZ", bars, base, ytd2025, 1.5)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(r.RetestBandHigh()-96.425) > 1e-9 {
		t.Errorf("band high: got %v", r.RetestBandHigh())
	}
	if r.TouchCount != 2 {
		t.Errorf("expected 2 touches, got %d (%v)", r.TouchCount, r.TouchDates)
	}
	if len(r.TouchDates) != r.TouchCount || !r.TouchDates[0].Equal(day(2025, 1, 6)) {
		t.Errorf("touch dates: %v", r.TouchDates)
	}
	if r.EvaluationLow != 90 || !r.EvaluationLowDate.Equal(day(2025, 2, 3)) {
		t.Errorf("evaluation low: got %v on %s", r.EvaluationLow, r.EvaluationLowDate)
	}
	if math.Abs(r.BouncePct-10) > 1e-9 {
		t.Errorf("bounce: expected 10%%, got %v", r.BouncePct)
	}
	if r.ReferenceLow != 95 || r.CurrentPrice != 99 {
		t.Errorf("base result not carried: %+v", r.ExtremumResult)
	}
}

func TestAnalyzeRetest_ConsecutiveSessionsAllCount(t *testing.T) {
	bars := []model.PriceBar{
		bar(day(2024, 5, 1), 110, 100, 105),
		bar(day(2025, 1, 6), 102, 100.5, 101),
		bar(day(2025, 1, 7), 102, 100.2, 101),
		bar(day(2025, 1, 8), 102, 100.9, 101),
		bar(day(2025, 1, 9), 106, 103, 105),
	}
	base, err := Analyze("RUN", bars, ref2024, ytd2025)
	if err != nil {
		t.Fatal(err)
	}
	r, err := AnalyzeRetest("RUN", bars, base, ytd2025, 1)
	if err != nil {
		t.Fatal(err)
	}
	if r.TouchCount != 3 {
		t.Errorf("expected every touching session to count, got %d", r.TouchCount)
	}
}

func TestAnalyzeRetest_ZeroTolerance(t *testing.T) {
	bars := retestBars()
	base, _ := Analyze("XYZ", bars, ref2024, ytd2025)
	r, err := AnalyzeRetest("XYZ", bars, base, ytd2025, 0)
	if err != nil {
		t.Fatal(err)
	}
	if r.TouchCount != 1 {
		t.Errorf("only the 90 low is at or below 95, got %d touches", r.TouchCount)
	}
}

func TestAnalyzeRetest_NoEvaluationData(t *testing.T) {
	base := model.ExtremumResult{Symbol: "XYZ", ReferenceLow: 95, ReferenceHigh: 115, CurrentPrice: 97}
	_, err := AnalyzeRetest("XYZ", []model.PriceBar{bar(day(2024, 7, 8), 98, 95, 96)}, base, ytd2025, 1.5)
	var nd *NoDataError
	if !errors.As(err, &nd) || nd.Reason != model.SkipNoEvaluationData {
		t.Fatalf("expected no evaluation data, got %v", err)
	}
}

func TestAnalyzeRetest_InvalidBase(t *testing.T) {
	_, err := AnalyzeRetest("XYZ", retestBars(), model.ExtremumResult{Symbol: "XYZ"}, ytd2025, 1.5)
	var inv *InvalidPriceDataError
	if !errors.As(err, &inv) {
		t.Fatalf("expected InvalidPriceDataError, got %v", err)
	}
}
