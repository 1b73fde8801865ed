package model

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects which filter a scan applies and which Result variant it produces.
type Mode string

const (
	ModeLow    Mode = "low"    // current price near the reference low
	ModeHigh   Mode = "high"   // current price near the reference high
	ModeRetest Mode = "retest" // reference low retested, then bounced
)

// ParseMode maps a user string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeLow, "min":
		return ModeLow, nil
	case ModeHigh, "max":
		return ModeHigh, nil
	case ModeRetest, "bounce":
		return ModeRetest, nil
	default:
		return "", fmt.Errorf("unknown scan mode %q (want low, high or retest)", s)
	}
}

// ScanRequest is one user-initiated scan. It is not modified once a scan starts.
type ScanRequest struct {
	Symbols               []Symbol
	Mode                  Mode
	ProximityThresholdPct float64
	RetestTolerancePct    float64
	MinBouncePct          float64
	// Now is the reference date; zero means time.Now().
	Now time.Time
}

// SkipReason explains why a symbol was excluded before filtering.
type SkipReason string

const (
	SkipNoData              SkipReason = "no_data"
	SkipNoReferenceData     SkipReason = "no_reference_data"
	SkipNoEvaluationData    SkipReason = "no_evaluation_data"
	SkipInvalidPriceData    SkipReason = "invalid_price_data"
	SkipProviderUnavailable SkipReason = "provider_unavailable"
)

// Skip records a symbol that produced no analysable result.
type Skip struct {
	Symbol Symbol
	Reason SkipReason
	Detail string
}
