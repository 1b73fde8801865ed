package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"RangeScout/internal/collector"
	"RangeScout/internal/model"
	"RangeScout/internal/period"
	"RangeScout/internal/symbols"
)

// Config holds all application configuration.
type Config struct {
	Scan struct {
		Mode                  string        `yaml:"mode"`
		ProximityThresholdPct float64       `yaml:"proximity_threshold_pct"`
		RetestTolerancePct    float64       `yaml:"retest_tolerance_pct"`
		MinBouncePct          float64       `yaml:"min_bounce_pct"`
		Window                string        `yaml:"window"`
		TrailingSessions      int           `yaml:"trailing_sessions"`
		Symbols               []string      `yaml:"symbols"`
		SymbolsFile           string        `yaml:"symbols_file"`
		Workers               int           `yaml:"workers"`
		MaxRetries            int           `yaml:"max_retries"`
		RetryBackoff          time.Duration `yaml:"retry_backoff"`
	} `yaml:"scan"`
	DataSource struct {
		Provider  string        `yaml:"provider"`
		APIKey    string        `yaml:"api_key"`
		APISecret string        `yaml:"api_secret"`
		BaseURL   string        `yaml:"base_url"`
		Exchange  string        `yaml:"exchange"` // eodhd suffix for bare tickers
		RateLimit float64       `yaml:"rate_limit"`
		CacheTTL  time.Duration `yaml:"cache_ttl"`
		CacheSize int           `yaml:"cache_size"`
	} `yaml:"data_source"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		ScanCron string `yaml:"scan_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
	Log   struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns a Config with every default filled in.
func Default() *Config {
	cfg := &Config{}
	cfg.Scan.Mode = string(model.ModeLow)
	cfg.Scan.ProximityThresholdPct = 5
	cfg.Scan.RetestTolerancePct = 1.5
	cfg.Scan.MinBouncePct = 2
	cfg.Scan.Window = string(period.YearToDate)
	cfg.Scan.TrailingSessions = period.DefaultTrailingSessions
	cfg.Scan.Workers = 4
	cfg.Scan.MaxRetries = 3
	cfg.Scan.RetryBackoff = time.Second
	cfg.DataSource.Provider = "yahoo"
	cfg.DataSource.RateLimit = 5
	cfg.DataSource.CacheTTL = time.Hour
	cfg.DataSource.CacheSize = 512
	cfg.Schedule.ScanCron = "0 30 22 * * 1-5"
	cfg.Database.SQLitePath = "data/rangescout.db"
	cfg.Log.Level = "info"
	return cfg
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SCOUT_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	switch cfg.DataSource.Provider {
	case "alpaca":
		if v := os.Getenv("ALPACA_API_KEY"); v != "" {
			cfg.DataSource.APIKey = v
		}
		if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
			cfg.DataSource.APISecret = v
		}
	case "eodhd":
		if v := os.Getenv("EODHD_API_KEY"); v != "" {
			cfg.DataSource.APIKey = v
		}
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("SCOUT_CRON"); v != "" {
		cfg.Schedule.ScanCron = v
	}
	if v := os.Getenv("SCOUT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scan.Workers = n
		}
	}

	return cfg, nil
}

func inRange(name string, v, lo, hi float64) error {
	if math.IsNaN(v) || v < lo || v > hi {
		return fmt.Errorf("%s must be between %g and %g, got %g", name, lo, hi, v)
	}
	return nil
}

// Validate checks values needed for a one-shot scan.
func (c *Config) Validate() error {
	if _, err := model.ParseMode(c.Scan.Mode); err != nil {
		return fmt.Errorf("scan.mode: %w", err)
	}
	if _, err := period.ParsePolicy(c.Scan.Window); err != nil {
		return fmt.Errorf("scan.window: %w", err)
	}
	if err := inRange("scan.proximity_threshold_pct", c.Scan.ProximityThresholdPct, 0, 50); err != nil {
		return err
	}
	if err := inRange("scan.retest_tolerance_pct", c.Scan.RetestTolerancePct, 0, 5); err != nil {
		return err
	}
	if err := inRange("scan.min_bounce_pct", c.Scan.MinBouncePct, 0, 20); err != nil {
		return err
	}
	if c.Scan.TrailingSessions <= 0 || c.Scan.TrailingSessions > period.MaxTrailingSessions {
		return fmt.Errorf("scan.trailing_sessions must be between 1 and %d, got %d", period.MaxTrailingSessions, c.Scan.TrailingSessions)
	}
	if c.Scan.Workers <= 0 {
		return fmt.Errorf("scan.workers must be positive")
	}
	if c.Scan.MaxRetries < 0 {
		return fmt.Errorf("scan.max_retries must not be negative")
	}
	switch c.DataSource.Provider {
	case "yahoo":
	case "alpaca":
		if c.DataSource.APIKey == "" || c.DataSource.APISecret == "" {
			return fmt.Errorf("data_source.api_key and data_source.api_secret are required for alpaca")
		}
	case "eodhd":
		if c.DataSource.APIKey == "" {
			return fmt.Errorf("data_source.api_key is required for eodhd")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not one of yahoo, alpaca, eodhd", c.DataSource.Provider)
	}
	return nil
}

// ValidateDaemon additionally checks what the scheduled bot needs.
func (c *Config) ValidateDaemon() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if c.Schedule.ScanCron == "" {
		return fmt.Errorf("schedule.scan_cron is required")
	}
	return nil
}

// Resolver builds the period resolver for the configured window.
func (c *Config) Resolver() (period.Resolver, error) {
	p, err := period.ParsePolicy(c.Scan.Window)
	if err != nil {
		return period.Resolver{}, err
	}
	return period.NewResolver(p, c.Scan.TrailingSessions), nil
}

// Universe returns the configured symbols: the inline list, else the symbols
// file, else the built-in default universe.
func (c *Config) Universe() ([]model.Symbol, error) {
	if len(c.Scan.Symbols) > 0 {
		syms := symbols.Dedupe(c.Scan.Symbols)
		if len(syms) == 0 {
			return nil, &symbols.EmptyInputError{Source: "scan.symbols"}
		}
		return syms, nil
	}
	if c.Scan.SymbolsFile != "" {
		return symbols.LoadFile(c.Scan.SymbolsFile)
	}
	return symbols.Default(), nil
}

// ScanRequest builds a request for mode over syms with the configured thresholds.
func (c *Config) ScanRequest(mode model.Mode, syms []model.Symbol) model.ScanRequest {
	return model.ScanRequest{
		Symbols:               syms,
		Mode:                  mode,
		ProximityThresholdPct: c.Scan.ProximityThresholdPct,
		RetestTolerancePct:    c.Scan.RetestTolerancePct,
		MinBouncePct:          c.Scan.MinBouncePct,
	}
}

// ProviderOptions maps the data source section onto the collector chain.
func (c *Config) ProviderOptions() collector.Options {
	return collector.Options{
		Provider:   c.DataSource.Provider,
		APIKey:     c.DataSource.APIKey,
		APISecret:  c.DataSource.APISecret,
		BaseURL:    c.DataSource.BaseURL,
		Exchange:   c.DataSource.Exchange,
		Proxy:      c.Proxy,
		RateLimit:  c.DataSource.RateLimit,
		MaxRetries: c.Scan.MaxRetries,
		Backoff:    c.Scan.RetryBackoff,
		CacheTTL:   c.DataSource.CacheTTL,
		CacheSize:  c.DataSource.CacheSize,
	}
}
