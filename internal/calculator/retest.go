package calculator

import (
	"fmt"
	"time"

	"RangeScout/internal/model"
)

// AnalyzeRetest extends a successful ExtremumResult with the evaluation
// period's own low, the sessions whose low came within tolerancePct of the
// reference low, and the rebound from the evaluation low to the current price.
//
// Every qualifying session counts: consecutive touching days are not merged.
func AnalyzeRetest(sym model.Symbol, bars []model.PriceBar, base model.ExtremumResult, eval model.Period, tolerancePct float64) (model.RetestResult, error) {
	sorted, err := prepare(sym, bars)
	if err != nil {
		return model.RetestResult{}, err
	}
	evalBars := inPeriod(sorted, eval)
	if len(evalBars) == 0 {
		return model.RetestResult{}, &NoDataError{Symbol: sym, Reason: model.SkipNoEvaluationData}
	}
	if err := validBars(sym, evalBars); err != nil {
		return model.RetestResult{}, err
	}
	if base.ReferenceLow <= 0 {
		return model.RetestResult{}, &InvalidPriceDataError{Symbol: sym, Detail: fmt.Sprintf("reference low %v is not positive", base.ReferenceLow)}
	}

	evalLow, evalLowBar := lowest(evalBars)

	band := base.ReferenceLow * (1 + tolerancePct/100)
	var touches []time.Time
	for _, b := range evalBars {
		if b.Low <= band {
			touches = append(touches, model.DateOf(b.Date))
		}
	}

	return model.RetestResult{
		ExtremumResult:     base,
		EvaluationLow:      evalLow,
		EvaluationLowDate:  model.DateOf(evalLowBar.Date),
		RetestTolerancePct: tolerancePct,
		TouchCount:         len(touches),
		TouchDates:         touches,
		BouncePct:          PercentChange(base.CurrentPrice, evalLow),
	}, nil
}
