package main

import (
	"bytes"
	"strings"
	"testing"

	"RangeScout/internal/config"
	"RangeScout/internal/model"
	"RangeScout/internal/symbols"
)

func TestUniverse_ArgsWin(t *testing.T) {
	cfg := config.Default()
	cfg.Scan.Symbols = []string{"IBM"}

	syms, err := universe(cfg, []string{"aapl", " msft", "AAPL"})
	if err != nil {
		t.Fatalf("universe: %v", err)
	}
	if len(syms) != 2 || syms[0] != "AAPL" || syms[1] != "MSFT" {
		t.Errorf("got %v, want [AAPL MSFT]", syms)
	}
}

func TestUniverse_BlankArgs(t *testing.T) {
	_, err := universe(config.Default(), []string{" ", ""})
	if _, ok := err.(*symbols.EmptyInputError); !ok {
		t.Fatalf("got %v, want EmptyInputError", err)
	}
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := progressPrinter(&buf)
	p(1, 3, model.Symbol("AAPL"))
	p(2, 3, model.Symbol("MSFT"))

	out := buf.String()
	if !strings.Contains(out, "scanning 2/3 MSFT") {
		t.Errorf("unexpected progress output %q", out)
	}
}

func TestNewLogger_BadLevel(t *testing.T) {
	if _, err := newLogger("loud", false); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
