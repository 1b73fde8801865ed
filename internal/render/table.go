package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"RangeScout/internal/model"
	"RangeScout/internal/scanner"
)

const dateLayout = "2006-01-02"

type TableRenderer struct{}

func NewTableRenderer() *TableRenderer { return &TableRenderer{} }

func (r *TableRenderer) Render(w io.Writer, report *scanner.Report, opts Options) error {
	title := string(report.Mode)
	if opts.Color {
		title = text.Bold.Sprint(title)
	}
	fmt.Fprintf(w, "%s scan · reference %s · evaluation %s\n", title, report.Reference, report.Evaluation)

	if len(report.Matches) == 0 {
		fmt.Fprintln(w, report.Message())
	} else {
		r.matches(w, report, opts)
	}

	fmt.Fprintf(w, "%d matched · %d analysed · %d skipped\n",
		len(report.Matches), len(report.Analyzed), len(report.Skipped))
	if opts.ShowSkipped && len(report.Skipped) > 0 {
		r.skipped(w, report.Skipped, opts)
	}
	return nil
}

func (r *TableRenderer) newWriter(w io.Writer, opts Options) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	if opts.Color {
		tw.SetStyle(table.StyleColoredDark)
	} else {
		tw.SetStyle(table.StyleLight)
	}
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateRows = false
	tw.Style().Options.SeparateColumns = false
	if opts.MaxWidth > 0 {
		tw.SetAllowedRowLength(opts.MaxWidth)
	}
	return tw
}

func (r *TableRenderer) matches(w io.Writer, report *scanner.Report, opts Options) {
	tw := r.newWriter(w, opts)
	retest := report.Mode == model.ModeRetest
	withNames := len(opts.Names) > 0

	hdr := table.Row{"SYM"}
	if withNames {
		hdr = append(hdr, "NAME")
	}
	hdr = append(hdr, "REF LOW", "LOW DATE", "REF HIGH", "HIGH DATE", "PRICE", "AS OF", "TO LOW %", "TO HIGH %")
	if retest {
		hdr = append(hdr, "EVAL LOW", "EVAL LOW DATE", "TOUCHES", "BOUNCE %")
	}
	tw.AppendHeader(hdr)

	numeric := map[string]bool{
		"REF LOW": true, "REF HIGH": true, "PRICE": true, "TO LOW %": true, "TO HIGH %": true,
		"EVAL LOW": true, "TOUCHES": true, "BOUNCE %": true,
	}
	cfgs := make([]table.ColumnConfig, 0, len(hdr))
	for i, h := range hdr {
		cfg := table.ColumnConfig{Number: i + 1}
		if numeric[h.(string)] {
			cfg.Align = text.AlignRight
			cfg.AlignHeader = text.AlignRight
		}
		if h == "NAME" {
			cfg.WidthMax = 32
		}
		cfgs = append(cfgs, cfg)
	}
	tw.SetColumnConfigs(cfgs)

	for _, res := range report.Matches {
		b := res.Base()
		row := table.Row{string(b.Symbol)}
		if withNames {
			row = append(row, opts.Names[b.Symbol])
		}
		row = append(row,
			price(b.ReferenceLow), b.ReferenceLowDate.Format(dateLayout),
			price(b.ReferenceHigh), b.ReferenceHighDate.Format(dateLayout),
			price(b.CurrentPrice), b.CurrentDate.Format(dateLayout),
			pct(b.DistanceToLowPct, opts.Color), pct(b.DistanceToHighPct, opts.Color),
		)
		if rt, ok := res.(model.RetestResult); ok && retest {
			row = append(row,
				price(rt.EvaluationLow), rt.EvaluationLowDate.Format(dateLayout),
				strconv.Itoa(rt.TouchCount), pct(rt.BouncePct, opts.Color),
			)
		}
		tw.AppendRow(row)
	}
	tw.Render()
}

func (r *TableRenderer) skipped(w io.Writer, skips []model.Skip, opts Options) {
	tw := r.newWriter(w, opts)
	tw.AppendHeader(table.Row{"SKIPPED", "REASON", "DETAIL"})
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 3, WidthMax: 60}})
	for _, s := range skips {
		tw.AppendRow(table.Row{string(s.Symbol), string(s.Reason), s.Detail})
	}
	tw.Render()
}

func price(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

// pct formats a percentage; with color, positive is green and negative red.
func pct(v float64, color bool) string {
	s := fmt.Sprintf("%+.2f%%", v)
	if !color {
		return s
	}
	switch {
	case v > 0:
		return text.Colors{text.FgGreen}.Sprint(s)
	case v < 0:
		return text.Colors{text.FgRed}.Sprint(s)
	default:
		return s
	}
}
