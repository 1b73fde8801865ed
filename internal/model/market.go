package model

import (
	"strconv"
	"strings"
	"time"
)

// Symbol is an uppercase ticker identifier.
type Symbol string

// NormalizeSymbol trims and uppercases a raw ticker.
func NormalizeSymbol(raw string) Symbol {
	return Symbol(strings.ToUpper(strings.TrimSpace(raw)))
}

func (s Symbol) String() string { return string(s) }

// PriceBar represents a single daily session.
type PriceBar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds the raw bars returned by a provider for one symbol.
type PriceSeries struct {
	Symbol    Symbol
	Bars      []PriceBar
	FetchedAt time.Time
}

// DateOf truncates t to its calendar date (in t's own location) and returns it at 00:00 UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Period is a closed date interval [Start, End].
// When Sessions > 0 only the last Sessions bars inside the interval belong to it.
type Period struct {
	Start    time.Time
	End      time.Time
	Sessions int
}

// Contains reports whether the calendar date of t falls inside the interval.
func (p Period) Contains(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(p.Start) && !d.After(p.End)
}

func (p Period) String() string {
	s := p.Start.Format("2006-01-02") + ".." + p.End.Format("2006-01-02")
	if p.Sessions > 0 {
		s += " (last " + strconv.Itoa(p.Sessions) + " sessions)"
	}
	return s
}
