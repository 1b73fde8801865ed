// Package export writes scan results as CSV.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"RangeScout/internal/model"
)

var (
	baseHeader   = []string{"Ticker", "Reference_Low", "Reference_High", "Current_Price", "Distance_To_Low_Pct", "Distance_To_High_Pct"}
	retestHeader = []string{"Evaluation_Low", "Touch_Count", "Bounce_Pct"}
)

// Header returns the CSV header row for mode.
func Header(mode model.Mode) []string {
	h := append([]string(nil), baseHeader...)
	if mode == model.ModeRetest {
		h = append(h, retestHeader...)
	}
	return h
}

// fixed renders v with two decimals, half away from zero.
func fixed(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func row(mode model.Mode, r model.Result) ([]string, error) {
	b := r.Base()
	rec := []string{
		string(b.Symbol),
		fixed(b.ReferenceLow),
		fixed(b.ReferenceHigh),
		fixed(b.CurrentPrice),
		fixed(b.DistanceToLowPct),
		fixed(b.DistanceToHighPct),
	}
	if mode != model.ModeRetest {
		return rec, nil
	}
	rt, ok := r.(model.RetestResult)
	if !ok {
		return nil, fmt.Errorf("export: %s is not a retest result", b.Symbol)
	}
	return append(rec,
		fixed(rt.EvaluationLow),
		strconv.Itoa(rt.TouchCount),
		fixed(rt.BouncePct),
	), nil
}

// CSV writes a header and one row per result, in the order given.
func CSV(w io.Writer, mode model.Mode, results []model.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(mode)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range results {
		rec, err := row(mode, r)
		if err != nil {
			return err
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %s: %w", r.Ticker(), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Bytes returns the CSV encoding of results.
func Bytes(mode model.Mode, results []model.Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := CSV(&buf, mode, results); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileName is the default download name for a scan finished at t.
func FileName(mode model.Mode, t time.Time) string {
	return fmt.Sprintf("rangescout_%s_%s.csv", mode, t.Format("20060102_1504"))
}
