package calculator

import (
	"fmt"
	"time"

	"RangeScout/internal/model"
)

// Analyze computes the reference-period extremes of bars and how far the
// latest close at or before the end of the evaluation period sits from them.
//
// It returns *NoDataError when either period has no bars and
// *InvalidPriceDataError when the bars it needs are malformed.
func Analyze(sym model.Symbol, bars []model.PriceBar, ref, eval model.Period) (model.ExtremumResult, error) {
	sorted, err := prepare(sym, bars)
	if err != nil {
		return model.ExtremumResult{}, err
	}

	refBars := inPeriod(sorted, ref)
	if len(refBars) == 0 {
		return model.ExtremumResult{}, &NoDataError{Symbol: sym, Reason: model.SkipNoReferenceData}
	}
	evalBars := inPeriod(sorted, eval)
	if len(evalBars) == 0 {
		return model.ExtremumResult{}, &NoDataError{Symbol: sym, Reason: model.SkipNoEvaluationData}
	}
	if err := validBars(sym, refBars); err != nil {
		return model.ExtremumResult{}, err
	}

	current, ok := latestAtOrBefore(sorted, eval.End)
	if !ok {
		return model.ExtremumResult{}, &NoDataError{Symbol: sym, Reason: model.SkipNoEvaluationData}
	}
	if err := validBar(sym, current); err != nil {
		return model.ExtremumResult{}, err
	}

	low, lowBar := lowest(refBars)
	high, highBar := highest(refBars)
	if low <= 0 {
		return model.ExtremumResult{}, &InvalidPriceDataError{Symbol: sym, Detail: fmt.Sprintf("reference low %v is not positive", low)}
	}

	return model.ExtremumResult{
		Symbol:            sym,
		ReferenceLow:      low,
		ReferenceLowDate:  model.DateOf(lowBar.Date),
		ReferenceHigh:     high,
		ReferenceHighDate: model.DateOf(highBar.Date),
		CurrentPrice:      current.Close,
		CurrentDate:       model.DateOf(current.Date),
		DistanceToLowPct:  PercentChange(current.Close, low),
		DistanceToHighPct: PercentChange(current.Close, high),
	}, nil
}

// latestAtOrBefore returns the last bar dated on or before end. bars must be sorted.
func latestAtOrBefore(bars []model.PriceBar, end time.Time) (model.PriceBar, bool) {
	for i := len(bars) - 1; i >= 0; i-- {
		if !model.DateOf(bars[i].Date).After(end) {
			return bars[i], true
		}
	}
	return model.PriceBar{}, false
}
