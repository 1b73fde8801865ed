package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RangeScout/internal/model"
	"RangeScout/internal/scanner"
)

func openTemp(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "nested", "scout.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func d(y int, m time.Month, day int) time.Time { return time.Date(y, m, day, 0, 0, 0, 0, time.UTC) }

func retestReport(id string, started time.Time) *scanner.Report {
	base := model.ExtremumResult{
		Symbol: "XYZ", ReferenceLow: 95, ReferenceLowDate: d(2024, 7, 8),
		ReferenceHigh: 115, ReferenceHighDate: d(2024, 11, 11),
		CurrentPrice: 99, CurrentDate: d(2025, 3, 3),
		DistanceToLowPct: 4.21, DistanceToHighPct: -13.9,
	}
	rt := model.RetestResult{ExtremumResult: base, EvaluationLow: 90, TouchCount: 2, BouncePct: 10}
	return &scanner.Report{
		ID:   id,
		Mode: model.ModeRetest,
		Request: model.ScanRequest{
			Symbols: []model.Symbol{"XYZ", "GONE"}, Mode: model.ModeRetest,
			ProximityThresholdPct: 5, RetestTolerancePct: 1.5, MinBouncePct: 2,
		},
		Reference:  model.Period{Start: d(2024, 1, 1), End: d(2024, 12, 31)},
		Evaluation: model.Period{Start: d(2025, 1, 1), End: d(2025, 3, 14)},
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Analyzed:   []model.Result{rt},
		Matches:    []model.Result{rt},
		Skipped:    []model.Skip{{Symbol: "GONE", Reason: model.SkipNoData, Detail: "empty"}},
	}
}

func TestSQLiteRecorder_RecordScan(t *testing.T) {
	r := openTemp(t)
	require.NoError(t, r.RecordScan(retestReport("run-1", time.Unix(1_700_000_000, 0))))

	var matched, touches int
	var bounce float64
	var status string
	require.NoError(t, r.db.QueryRow(`SELECT matched, status FROM scan_runs WHERE id = ?`, "run-1").Scan(&matched, &status))
	assert.Equal(t, 1, matched)
	assert.Equal(t, "ok", status)

	require.NoError(t, r.db.QueryRow(`SELECT touch_count, bounce_pct FROM scan_results WHERE run_id = ?`, "run-1").Scan(&touches, &bounce))
	assert.Equal(t, 2, touches)
	assert.Equal(t, 10.0, bounce)

	var reason string
	require.NoError(t, r.db.QueryRow(`SELECT reason FROM scan_skips WHERE run_id = ? AND symbol = ?`, "run-1", "GONE").Scan(&reason))
	assert.Equal(t, "no_data", reason)
}

func TestSQLiteRecorder_ExtremumRowsHaveNullRetestColumns(t *testing.T) {
	r := openTemp(t)
	rep := retestReport("run-low", time.Unix(1_700_000_000, 0))
	rep.Mode = model.ModeLow
	base := rep.Matches[0].Base()
	rep.Matches = []model.Result{base}
	rep.Analyzed = []model.Result{base}
	require.NoError(t, r.RecordScan(rep))

	var nulls int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM scan_results WHERE run_id = ? AND bounce_pct IS NULL AND touch_count IS NULL`, "run-low").Scan(&nulls))
	assert.Equal(t, 1, nulls)
}

func TestSQLiteRecorder_DuplicateRunRollsBack(t *testing.T) {
	r := openTemp(t)
	rep := retestReport("dup", time.Unix(1_700_000_000, 0))
	require.NoError(t, r.RecordScan(rep))
	assert.Error(t, r.RecordScan(rep))

	var n int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM scan_results WHERE run_id = ?`, "dup").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSQLiteRecorder_RecentRuns(t *testing.T) {
	r := openTemp(t)
	base := time.Unix(1_700_000_000, 0)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, r.RecordScan(retestReport(id, base.Add(time.Duration(i)*time.Hour))))
	}

	runs, err := r.RecentRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
	assert.Equal(t, 2, runs[0].Requested)
	assert.Equal(t, 1, runs[0].Skipped)
	assert.Equal(t, "retest", runs[0].Mode)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordScan(&scanner.Report{}))
	runs, err := r.RecentRuns(5)
	assert.NoError(t, err)
	assert.Empty(t, runs)
}
