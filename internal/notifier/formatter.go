package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"RangeScout/internal/model"
	"RangeScout/internal/recorder"
	"RangeScout/internal/scanner"
	"RangeScout/internal/symbols"
)

// DefaultReportRows caps the matches listed in a Telegram report.
const DefaultReportRows = 20

const maxSkippedListed = 15

var modeTitle = map[model.Mode]string{
	model.ModeLow:    "Near last year's low",
	model.ModeHigh:   "Near last year's high",
	model.ModeRetest: "Retest and bounce",
}

// Summary holds distribution statistics of a report's key metric.
type Summary struct {
	Count  int
	Mean   float64
	Median float64
	Min    float64
	Max    float64
}

// metric is the value a mode ranks by.
func metric(mode model.Mode, r model.Result) float64 {
	switch mode {
	case model.ModeHigh:
		return r.Base().DistanceToHighPct
	case model.ModeRetest:
		if rt, ok := r.(model.RetestResult); ok {
			return rt.BouncePct
		}
	}
	return r.Base().DistanceToLowPct
}

// Summarize computes mean and median of the ranking metric over results.
func Summarize(mode model.Mode, results []model.Result) Summary {
	if len(results) == 0 {
		return Summary{}
	}
	xs := make([]float64, len(results))
	for i, r := range results {
		xs[i] = metric(mode, r)
	}
	sort.Float64s(xs)
	return Summary{
		Count:  len(xs),
		Mean:   stat.Mean(xs, nil),
		Median: stat.Quantile(0.5, stat.Empirical, xs, nil),
		Min:    xs[0],
		Max:    xs[len(xs)-1],
	}
}

// FormatScanReport formats a finished scan into a Telegram message, listing at most maxRows matches.
func FormatScanReport(report *scanner.Report, maxRows int) string {
	if maxRows <= 0 {
		maxRows = DefaultReportRows
	}
	var b strings.Builder

	title := modeTitle[report.Mode]
	if title == "" {
		title = string(report.Mode)
	}
	b.WriteString(fmt.Sprintf("📊 <b>RangeScout · %s</b> | %s\n", title, report.Evaluation.End.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Reference %s\n", report.Reference))
	b.WriteString(fmt.Sprintf("Evaluation %s\n\n", report.Evaluation))

	if len(report.Matches) == 0 {
		b.WriteString(html.EscapeString(report.Message()))
		b.WriteString("\n")
	} else {
		for i, r := range report.Matches {
			if i == maxRows {
				b.WriteString(fmt.Sprintf("… and %d more\n", len(report.Matches)-maxRows))
				break
			}
			b.WriteString(formatRow(report.Mode, r))
		}
		s := Summarize(report.Mode, report.Matches)
		label := "distance"
		if report.Mode == model.ModeRetest {
			label = "bounce"
		}
		b.WriteString(fmt.Sprintf("\n%s: mean %+.2f%% · median %+.2f%% · range %+.2f%%..%+.2f%%\n",
			label, s.Mean, s.Median, s.Min, s.Max))
	}

	b.WriteString(fmt.Sprintf("\n%d matched · %d analysed · %d skipped", len(report.Matches), len(report.Analyzed), len(report.Skipped)))
	if counts := report.SkipCounts(); len(counts) > 0 {
		reasons := make([]string, 0, len(counts))
		for reason, n := range counts {
			reasons = append(reasons, fmt.Sprintf("%s=%d", reason, n))
		}
		sort.Strings(reasons)
		b.WriteString(" (" + strings.Join(reasons, ", ") + ")")
		b.WriteString("\nskipped: " + html.EscapeString(skippedList(report.Skipped, maxSkippedListed)))
	}
	return b.String()
}

func skippedList(skips []model.Skip, limit int) string {
	syms := make([]model.Symbol, 0, len(skips))
	for _, s := range skips {
		syms = append(syms, s.Symbol)
	}
	if len(syms) <= limit {
		return symbols.Join(syms)
	}
	return fmt.Sprintf("%s … +%d", symbols.Join(syms[:limit]), len(syms)-limit)
}

func formatRow(mode model.Mode, r model.Result) string {
	base := r.Base()
	switch mode {
	case model.ModeHigh:
		return fmt.Sprintf("<b>%s</b> %.2f · high %.2f (%s) %+.2f%%\n",
			base.Symbol, base.CurrentPrice, base.ReferenceHigh, base.ReferenceHighDate.Format("2006-01-02"), base.DistanceToHighPct)
	case model.ModeRetest:
		rt, ok := r.(model.RetestResult)
		if ok {
			return fmt.Sprintf("<b>%s</b> %.2f · low %.2f · eval low %.2f · %d touches · bounce %+.2f%%\n",
				base.Symbol, base.CurrentPrice, base.ReferenceLow, rt.EvaluationLow, rt.TouchCount, rt.BouncePct)
		}
	}
	return fmt.Sprintf("<b>%s</b> %.2f · low %.2f (%s) %+.2f%%\n",
		base.Symbol, base.CurrentPrice, base.ReferenceLow, base.ReferenceLowDate.Format("2006-01-02"), base.DistanceToLowPct)
}

// FormatRuns formats stored scan runs, newest first.
func FormatRuns(runs []recorder.RunSummary) string {
	if len(runs) == 0 {
		return "No scans recorded yet."
	}
	var b strings.Builder
	b.WriteString("🗂 <b>Recent scans</b>\n\n")
	for _, r := range runs {
		b.WriteString(fmt.Sprintf("%s %s: %d/%d matched, %d skipped\n",
			r.StartedAt.Format("2006-01-02 15:04"), r.Mode, r.Matched, r.Analyzed, r.Skipped))
	}
	return b.String()
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	return "🤖 <b>RangeScout</b>\n\n" +
		"/scan - run a scan now\n" +
		"/scan low|high|retest - run a scan in the given mode\n" +
		"/last - show the latest report\n" +
		"/history - recent scan runs\n" +
		"/help - this message"
}
