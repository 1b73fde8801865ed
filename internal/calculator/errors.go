package calculator

import (
	"fmt"

	"RangeScout/internal/model"
)

// NoDataError signals that a series has no bars in one of the required periods.
type NoDataError struct {
	Symbol model.Symbol
	Reason model.SkipReason // SkipNoReferenceData or SkipNoEvaluationData
}

func (e *NoDataError) Error() string {
	switch e.Reason {
	case model.SkipNoReferenceData:
		return fmt.Sprintf("%s: no bars in reference period", e.Symbol)
	case model.SkipNoEvaluationData:
		return fmt.Sprintf("%s: no bars in evaluation period", e.Symbol)
	default:
		return fmt.Sprintf("%s: no data", e.Symbol)
	}
}

// InvalidPriceDataError signals corrupted bars or a non-positive extremum.
type InvalidPriceDataError struct {
	Symbol model.Symbol
	Detail string
}

func (e *InvalidPriceDataError) Error() string {
	return fmt.Sprintf("%s: invalid price data: %s", e.Symbol, e.Detail)
}
