package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"RangeScout/internal/config"
	"RangeScout/internal/enrich"
	"RangeScout/internal/export"
	"RangeScout/internal/model"
	"RangeScout/internal/render"
	"RangeScout/internal/scanner"
	"RangeScout/internal/symbols"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [SYMBOL...]",
		Short: "Run one scan and print the matches",
		Long: `Run one scan over the given symbols, the --symbols list, the configured
symbols file, or the built-in universe, in that order of preference.

Modes:
  low     current price within --threshold % of last year's low
  high    current price within --threshold % of last year's high
  retest  this period's low came back within --tolerance % of last year's
          low and price has since bounced at least --min-bounce %`,
		RunE: runScanCmd,
	}
	f := cmd.Flags()
	f.String("mode", "", "scan mode: low, high, retest")
	f.String("symbols", "", "comma, newline or space separated tickers")
	f.String("symbols-file", "", "file with tickers (.txt or YAML watchlist)")
	f.Float64("threshold", 0, "proximity threshold in percent (0-50)")
	f.Float64("tolerance", 0, "retest tolerance in percent (0-5)")
	f.Float64("min-bounce", 0, "minimum bounce in percent (0-20)")
	f.String("window", "", "evaluation window: ytd or trailing")
	f.Int("sessions", 0, "sessions in the trailing window")
	f.String("date", "", "as-of date YYYY-MM-DD (default today)")
	f.String("format", "table", "output format: table, json, csv")
	f.String("csv", "", "also write CSV to this path (bare --csv picks a timestamped name)")
	f.Lookup("csv").NoOptDefVal = "auto"
	f.Bool("names", false, "look up company names")
	f.Bool("show-skipped", false, "list symbols that produced no data")
	f.Bool("no-color", false, "disable colors")
	f.Bool("record", false, "store the run in the SQLite history")
	return cmd
}

// applyScanFlags overrides cfg with flags or SCOUT_* variables that were set.
func applyScanFlags(cfg *config.Config) {
	if viper.IsSet("mode") {
		cfg.Scan.Mode = viper.GetString("mode")
	}
	if viper.IsSet("symbols-file") {
		cfg.Scan.SymbolsFile = viper.GetString("symbols-file")
	}
	if viper.IsSet("threshold") {
		cfg.Scan.ProximityThresholdPct = viper.GetFloat64("threshold")
	}
	if viper.IsSet("tolerance") {
		cfg.Scan.RetestTolerancePct = viper.GetFloat64("tolerance")
	}
	if viper.IsSet("min-bounce") {
		cfg.Scan.MinBouncePct = viper.GetFloat64("min-bounce")
	}
	if viper.IsSet("window") {
		cfg.Scan.Window = viper.GetString("window")
	}
	if viper.IsSet("sessions") {
		cfg.Scan.TrailingSessions = viper.GetInt("sessions")
	}
}

// universe picks symbols from args, --symbols, then config.
func universe(cfg *config.Config, args []string) ([]model.Symbol, error) {
	if len(args) > 0 {
		syms := symbols.Dedupe(args)
		if len(syms) == 0 {
			return nil, &symbols.EmptyInputError{Source: "arguments"}
		}
		return syms, nil
	}
	if viper.IsSet("symbols") {
		return symbols.ParseWith(viper.GetString("symbols"), symbols.Options{SpaceSeparated: true})
	}
	return cfg.Universe()
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyScanFlags(cfg)
	if !viper.IsSet("log-level") {
		cfg.Log.Level = "warn"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	mode, _ := model.ParseMode(cfg.Scan.Mode)

	format := viper.GetString("format")
	renderer, ok := render.New(format)
	if !ok && format != "csv" {
		return fmt.Errorf("unknown format %q (want table, json or csv)", format)
	}

	logger, err := newLogger(cfg.Log.Level, false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	syms, err := universe(cfg, args)
	if err != nil {
		return err
	}

	sc, err := newScanner(cfg, logger)
	if err != nil {
		return err
	}

	req := cfg.ScanRequest(mode, syms)
	if d := viper.GetString("date"); d != "" {
		at, err := time.Parse("2006-01-02", d)
		if err != nil {
			return fmt.Errorf("--date: %w", err)
		}
		req.Now = at
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if format == "table" {
		sc.OnProgress = progressPrinter(os.Stderr)
	}
	report, err := sc.Run(ctx, req)
	if format == "table" {
		fmt.Fprint(os.Stderr, "\r\033[K")
	}
	if err != nil {
		return err
	}

	if viper.GetBool("record") {
		rec := openRecorder(cfg.Database.SQLitePath, logger)
		defer rec.Close()
		if err := rec.RecordScan(report); err != nil {
			logger.Error("record scan", zap.Error(err))
		}
	}

	if path := viper.GetString("csv"); path != "" {
		if path == "auto" {
			path = export.FileName(mode, report.FinishedAt)
		}
		if err := writeCSV(path, report); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", path)
	}

	if format == "csv" {
		return export.CSV(os.Stdout, report.Mode, report.Matches)
	}

	opts := render.Options{
		Color:       !viper.GetBool("no-color"),
		PrettyJSON:  true,
		ShowSkipped: viper.GetBool("show-skipped"),
		MaxWidth:    detectTerminalWidth(),
	}
	if viper.GetBool("names") && len(report.Matches) > 0 {
		svc := enrich.NewCacheService(enrich.NewYFService(10*time.Second), cfg.DataSource.CacheTTL, cfg.DataSource.CacheSize)
		tickers := make([]model.Symbol, len(report.Matches))
		for i, r := range report.Matches {
			tickers[i] = r.Ticker()
		}
		opts.Names = enrich.Names(ctx, svc, tickers, cfg.Scan.Workers, logger)
	}
	return renderer.Render(os.Stdout, report, opts)
}

func writeCSV(path string, report *scanner.Report) error {
	data, err := export.Bytes(report.Mode, report.Matches)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// progressPrinter returns a ProgressFunc that redraws one status line on w.
func progressPrinter(w io.Writer) scanner.ProgressFunc {
	var mu sync.Mutex
	return func(done, total int, sym model.Symbol) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "\r\033[Kscanning %d/%d %s", done, total, sym)
	}
}
