// Package symbols turns user-supplied ticker lists into a clean, ordered symbol sequence.
package symbols

import (
	"strings"

	"RangeScout/internal/model"
)

// EmptyInputError is returned when a list contains no usable symbols.
// Callers surface it as "no symbols to scan" and must not start fetching.
type EmptyInputError struct {
	Source string
}

func (e *EmptyInputError) Error() string {
	if e.Source != "" {
		return "no symbols to scan in " + e.Source
	}
	return "no symbols to scan"
}

// Options tweaks tokenisation.
type Options struct {
	// SpaceSeparated also treats spaces and tabs as separators.
	SpaceSeparated bool
}

// Parse splits raw on newlines and commas.
func Parse(raw string) ([]model.Symbol, error) {
	return ParseWith(raw, Options{})
}

// ParseWith splits raw into tokens, trims and uppercases them, drops blanks and
// removes duplicates keeping the first occurrence.
func ParseWith(raw string, opts Options) ([]model.Symbol, error) {
	tokens := strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case '\n', '\r', ',':
			return true
		case ' ', '\t':
			return opts.SpaceSeparated
		}
		return false
	})
	out := Dedupe(tokens)
	if len(out) == 0 {
		return nil, &EmptyInputError{}
	}
	return out, nil
}

// Dedupe normalises already-split tokens.
func Dedupe(tokens []string) []model.Symbol {
	seen := make(map[model.Symbol]struct{}, len(tokens))
	out := make([]model.Symbol, 0, len(tokens))
	for _, tok := range tokens {
		sym := model.NormalizeSymbol(tok)
		if sym == "" {
			continue
		}
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}

// Join renders symbols back into the comma-separated text form accepted by Parse.
func Join(syms []model.Symbol) string {
	parts := make([]string, len(syms))
	for i, s := range syms {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}
