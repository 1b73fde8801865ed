package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"RangeScout/internal/collector"
	"RangeScout/internal/config"
	"RangeScout/internal/recorder"
	"RangeScout/internal/scanner"
)

func main() {
	// A missing .env is fine; variables may come from the environment.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "scout",
		Short:         "Screen stocks against last year's price range",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", "configs/config.yaml", "config file (env CONFIG_PATH)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("provider", "", "price provider: yahoo, alpaca, eodhd")

	rootCmd.AddCommand(newScanCmd(), newDaemonCmd(), newHistoryCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// bindFlags binds cmd's flags to viper so SCOUT_<FLAG> environment variables work too.
func bindFlags(cmd *cobra.Command) error {
	viper.SetEnvPrefix("SCOUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	return nil
}

// loadConfig reads the config file and applies global flag overrides.
func loadConfig() (*config.Config, error) {
	path := viper.GetString("config")
	if v := os.Getenv("CONFIG_PATH"); v != "" && !viper.IsSet("config") {
		path = v
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if viper.IsSet("provider") {
		cfg.DataSource.Provider = viper.GetString("provider")
	}
	if viper.IsSet("log-level") {
		cfg.Log.Level = viper.GetString("log-level")
	}
	return cfg, nil
}

// newLogger builds a zap logger writing to stderr. JSON output suits the
// daemon; the console encoder suits interactive scans.
func newLogger(level string, json bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	if !json {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.DisableStacktrace = true
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

// newScanner wires the provider chain, collector and scanner from cfg.
func newScanner(cfg *config.Config, logger *zap.Logger) (*scanner.Scanner, error) {
	fetcher, err := collector.New(cfg.ProviderOptions(), logger)
	if err != nil {
		return nil, err
	}
	resolver, err := cfg.Resolver()
	if err != nil {
		return nil, err
	}
	logger.Debug("data source", zap.String("provider", fetcher.Name()))
	col := collector.NewCollector(fetcher, resolver, logger)
	return scanner.New(col, cfg.Scan.Workers, logger), nil
}

// openRecorder opens the SQLite history, falling back to a no-op recorder.
func openRecorder(path string, logger *zap.Logger) recorder.Recorder {
	if path == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(path, logger)
	if err != nil {
		logger.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		return recorder.NewNoopRecorder()
	}
	return sr
}
