// Package period derives the reference and evaluation windows of a scan.
package period

import (
	"fmt"
	"strings"
	"time"

	"RangeScout/internal/model"
)

// Policy selects how the evaluation period is derived.
type Policy string

const (
	YearToDate Policy = "ytd"
	Trailing   Policy = "trailing"
)

// DefaultTrailingSessions is used when the trailing policy has no explicit size.
const DefaultTrailingSessions = 10

// MaxTrailingSessions is roughly one trading year.
const MaxTrailingSessions = 250

// ParsePolicy maps a config value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", YearToDate:
		return YearToDate, nil
	case Trailing:
		return Trailing, nil
	default:
		return "", fmt.Errorf("unknown window policy %q (want ytd or trailing)", s)
	}
}

// Resolver computes period boundaries from a reference date. It holds no state
// beyond its configuration and is safe for concurrent use.
type Resolver struct {
	Policy   Policy
	Sessions int
}

// NewResolver creates a Resolver. Sessions is only used by the trailing policy.
func NewResolver(policy Policy, sessions int) Resolver {
	if sessions <= 0 {
		sessions = DefaultTrailingSessions
	}
	return Resolver{Policy: policy, Sessions: sessions}
}

// ReferencePeriod returns the whole calendar year before now's year.
func (r Resolver) ReferencePeriod(now time.Time) model.Period {
	y := now.Year() - 1
	return model.Period{
		Start: time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

// EvaluationPeriod returns [Jan 1 of now's year, now] for the year-to-date policy.
// For the trailing policy it returns a calendar interval wide enough to hold
// Sessions trading days, tagged with Sessions so only the last N bars count.
func (r Resolver) EvaluationPeriod(now time.Time) model.Period {
	today := model.DateOf(now)
	if r.Policy == Trailing {
		n := r.Sessions
		if n <= 0 {
			n = DefaultTrailingSessions
		}
		// 5 sessions per 7 calendar days. Exchanges close up to ~10 weekdays
		// a year, so the holiday slack grows with n.
		span := n*7/5 + n/20 + 10
		return model.Period{
			Start:    today.AddDate(0, 0, -span),
			End:      today,
			Sessions: n,
		}
	}
	return model.Period{
		Start: time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   today,
	}
}

// FetchRange returns the single date range that covers both periods, used for
// one provider request per symbol.
func (r Resolver) FetchRange(now time.Time) (start, end time.Time) {
	ref := r.ReferencePeriod(now)
	eval := r.EvaluationPeriod(now)
	start = ref.Start
	if eval.Start.Before(start) {
		start = eval.Start
	}
	return start, eval.End
}
