package render

import (
	"encoding/json"
	"io"
	"time"

	"RangeScout/internal/model"
	"RangeScout/internal/scanner"
)

// jsonReport is the output shape for JSONRenderer.
type jsonReport struct {
	ID         string       `json:"id"`
	Mode       string       `json:"mode"`
	Status     string       `json:"status"`
	Message    string       `json:"message,omitempty"`
	Reference  jsonPeriod   `json:"reference"`
	Evaluation jsonPeriod   `json:"evaluation"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Analyzed   int          `json:"analyzed"`
	Matches    []jsonResult `json:"matches"`
	Skipped    []jsonSkip   `json:"skipped,omitempty"`
}

type jsonPeriod struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Sessions int    `json:"sessions,omitempty"`
}

type jsonResult struct {
	Symbol            string   `json:"symbol"`
	Name              string   `json:"name,omitempty"`
	ReferenceLow      float64  `json:"reference_low"`
	ReferenceLowDate  string   `json:"reference_low_date"`
	ReferenceHigh     float64  `json:"reference_high"`
	ReferenceHighDate string   `json:"reference_high_date"`
	CurrentPrice      float64  `json:"current_price"`
	CurrentDate       string   `json:"current_date"`
	DistanceToLowPct  float64  `json:"distance_to_low_pct"`
	DistanceToHighPct float64  `json:"distance_to_high_pct"`
	EvaluationLow     *float64 `json:"evaluation_low,omitempty"`
	EvaluationLowDate string   `json:"evaluation_low_date,omitempty"`
	TouchCount        *int     `json:"touch_count,omitempty"`
	TouchDates        []string `json:"touch_dates,omitempty"`
	BouncePct         *float64 `json:"bounce_pct,omitempty"`
}

type jsonSkip struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

type JSONRenderer struct{}

func NewJSONRenderer() *JSONRenderer { return &JSONRenderer{} }

func (r *JSONRenderer) Render(w io.Writer, report *scanner.Report, opts Options) error {
	out := jsonReport{
		ID:         report.ID,
		Mode:       string(report.Mode),
		Status:     string(report.Status()),
		Message:    report.Message(),
		Reference:  period(report.Reference),
		Evaluation: period(report.Evaluation),
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Analyzed:   len(report.Analyzed),
		Matches:    make([]jsonResult, 0, len(report.Matches)),
	}
	for _, res := range report.Matches {
		out.Matches = append(out.Matches, result(res, opts.Names))
	}
	for _, s := range report.Skipped {
		out.Skipped = append(out.Skipped, jsonSkip{Symbol: string(s.Symbol), Reason: string(s.Reason), Detail: s.Detail})
	}

	enc := json.NewEncoder(w)
	if opts.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}

func period(p model.Period) jsonPeriod {
	return jsonPeriod{Start: p.Start.Format(dateLayout), End: p.End.Format(dateLayout), Sessions: p.Sessions}
}

func result(res model.Result, names map[model.Symbol]string) jsonResult {
	b := res.Base()
	jr := jsonResult{
		Symbol:            string(b.Symbol),
		Name:              names[b.Symbol],
		ReferenceLow:      b.ReferenceLow,
		ReferenceLowDate:  b.ReferenceLowDate.Format(dateLayout),
		ReferenceHigh:     b.ReferenceHigh,
		ReferenceHighDate: b.ReferenceHighDate.Format(dateLayout),
		CurrentPrice:      b.CurrentPrice,
		CurrentDate:       b.CurrentDate.Format(dateLayout),
		DistanceToLowPct:  b.DistanceToLowPct,
		DistanceToHighPct: b.DistanceToHighPct,
	}
	if rt, ok := res.(model.RetestResult); ok {
		evalLow, touches, bounce := rt.EvaluationLow, rt.TouchCount, rt.BouncePct
		jr.EvaluationLow = &evalLow
		jr.EvaluationLowDate = rt.EvaluationLowDate.Format(dateLayout)
		jr.TouchCount = &touches
		jr.BouncePct = &bounce
		for _, d := range rt.TouchDates {
			jr.TouchDates = append(jr.TouchDates, d.Format(dateLayout))
		}
	}
	return jr
}
