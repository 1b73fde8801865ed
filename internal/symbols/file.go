package symbols

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"RangeScout/internal/model"
)

// LoadFile reads a symbol list from disk. YAML files are read as a watchlist
// (a list of {sym: ...} entries, a list of strings, or a map with a
// "watchlist", "symbols" or "items" key, groups may nest). Anything else is raw text.
func LoadFile(path string) ([]model.Symbol, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read symbols file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		syms, err := Parse(string(data))
		if err != nil {
			return nil, &EmptyInputError{Source: path}
		}
		return syms, nil
	}

	var root any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse watchlist %s: %w", path, err)
	}
	var tokens []string
	collect(root, &tokens)
	syms := Dedupe(tokens)
	if len(syms) == 0 {
		return nil, &EmptyInputError{Source: path}
	}
	return syms, nil
}

func collect(node any, out *[]string) {
	switch n := node.(type) {
	case string:
		*out = append(*out, n)
	case []any:
		for _, e := range n {
			collect(e, out)
		}
	case map[string]any:
		if sym, ok := n["sym"]; ok && sym != nil {
			*out = append(*out, fmt.Sprint(sym))
			return
		}
		for _, key := range []string{"watchlist", "symbols", "items"} {
			if child, ok := n[key]; ok {
				collect(child, out)
			}
		}
	}
}
