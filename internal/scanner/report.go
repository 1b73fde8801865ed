package scanner

import (
	"time"

	"RangeScout/internal/model"
)

// Status summarises a finished scan.
type Status string

const (
	StatusOK        Status = "ok"
	StatusNoMatches Status = "no_matches" // data analysed, nothing passed the filter
	StatusNoData    Status = "no_data"    // no symbol produced analysable data
)

// Report is the immutable outcome of one scan. Once published it is never modified.
type Report struct {
	ID         string
	Mode       model.Mode
	Request    model.ScanRequest
	Reference  model.Period
	Evaluation model.Period
	StartedAt  time.Time
	FinishedAt time.Time
	// Analyzed holds every successful per-symbol result in request order.
	Analyzed []model.Result
	// Matches is Analyzed after filtering and sorting.
	Matches []model.Result
	Skipped []model.Skip
}

func (r *Report) Status() Status {
	switch {
	case len(r.Analyzed) == 0:
		return StatusNoData
	case len(r.Matches) == 0:
		return StatusNoMatches
	default:
		return StatusOK
	}
}

// Message is the user-facing line for an empty report, or "" when there are matches.
func (r *Report) Message() string {
	switch r.Status() {
	case StatusNoData:
		return "no data found"
	case StatusNoMatches:
		return "no symbols matched criteria"
	default:
		return ""
	}
}

// Duration is the wall time the scan took.
func (r *Report) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// SkipCounts groups skipped symbols by reason.
func (r *Report) SkipCounts() map[model.SkipReason]int {
	counts := make(map[model.SkipReason]int, len(r.Skipped))
	for _, s := range r.Skipped {
		counts[s.Reason]++
	}
	return counts
}
