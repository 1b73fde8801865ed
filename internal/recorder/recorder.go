package recorder

import (
	"time"

	"RangeScout/internal/scanner"
)

// RunSummary is one stored scan run.
type RunSummary struct {
	ID         string
	Mode       string
	StartedAt  time.Time
	FinishedAt time.Time
	Requested  int
	Analyzed   int
	Matched    int
	Skipped    int
	Status     string
}

// Recorder persists scan history for later analysis.
type Recorder interface {
	RecordScan(report *scanner.Report) error
	RecentRuns(limit int) ([]RunSummary, error)
	Close() error
}
