// Package config loads and validates the YAML pipeline configuration:
// database connections, session boundaries, lookback window definitions
// and run parallelism.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AMS-QF/TAQ-Data/internal/features"
	"github.com/AMS-QF/TAQ-Data/internal/taqtime"
	"github.com/AMS-QF/TAQ-Data/internal/window"
)

// Config is the application configuration root.
type Config struct {
	// App holds base application settings.
	App AppConfig `yaml:"app"`
	// ClickHouse holds the tick database connection settings.
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	// Postgres holds the calendar database connection settings.
	Postgres PostgresConfig `yaml:"postgres"`
	// Session holds the intraday trim boundaries.
	Session SessionConfig `yaml:"session"`
	// Windows lists the lookback window definitions to compute.
	Windows []WindowConfig `yaml:"windows"`
	// Features holds feature generation settings.
	Features FeaturesConfig `yaml:"features"`
	// Run holds batch execution settings.
	Run RunConfig `yaml:"run"`
}

// AppConfig holds base application settings.
type AppConfig struct {
	// Name identifies the application in logs.
	Name string `yaml:"name"`
	// LogLevel is one of: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// MetricsAddr is the listen address for the /metrics endpoint.
	// Empty disables the endpoint.
	MetricsAddr string `yaml:"metrics_addr"`
}

// ClickHouseConfig holds the tick database connection settings.
type ClickHouseConfig struct {
	// DSN is the ClickHouse connection string.
	DSN string `yaml:"dsn"`
}

// PostgresConfig holds the calendar database connection settings.
type PostgresConfig struct {
	// DSN is the PostgreSQL connection string.
	DSN string `yaml:"dsn"`
}

// SessionConfig holds the intraday trim boundaries as "HH:MM:SS".
// The market session bounds the raw tape; the regular session bounds
// the reconstructed events before feature generation.
type SessionConfig struct {
	MarketOpen   string `yaml:"market_open"`
	MarketClose  string `yaml:"market_close"`
	RegularOpen  string `yaml:"regular_open"`
	RegularClose string `yaml:"regular_close"`
}

// WindowConfig defines one lookback window.
type WindowConfig struct {
	// Mode is one of: calendar, transaction, volume.
	Mode string `yaml:"mode"`
	// Delta1 is the inner bound, excluded from the window.
	Delta1 float64 `yaml:"delta1"`
	// Delta2 is the outer bound, included in the window.
	Delta2 float64 `yaml:"delta2"`
}

// FeaturesConfig holds feature generation settings.
type FeaturesConfig struct {
	// Statistics selects which statistics to compute per window.
	// Empty means all.
	Statistics []string `yaml:"statistics"`
	// ForwardHorizons lists forward return horizons in seconds.
	ForwardHorizons []float64 `yaml:"forward_horizons"`
}

// RunConfig holds batch execution settings.
type RunConfig struct {
	// Symbols lists the tickers to process.
	Symbols []string `yaml:"symbols"`
	// StartDate and EndDate bound the calendar range, "YYYY-MM-DD"
	// inclusive.
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
	// Parallelism caps concurrent (symbol, date) jobs.
	Parallelism int `yaml:"parallelism"`
}

// Load reads, defaults and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.App.Name == "" {
		c.App.Name = "taq-pipeline"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}

	if c.Session.MarketOpen == "" {
		c.Session.MarketOpen = taqtime.DefaultMarketOpen
	}
	if c.Session.MarketClose == "" {
		c.Session.MarketClose = taqtime.DefaultMarketClose
	}
	if c.Session.RegularOpen == "" {
		c.Session.RegularOpen = taqtime.DefaultRegularOpen
	}
	if c.Session.RegularClose == "" {
		c.Session.RegularClose = taqtime.DefaultRegularClose
	}

	if len(c.Features.Statistics) == 0 {
		c.Features.Statistics = append([]string(nil), features.AllStatistics...)
	}

	if c.Run.Parallelism == 0 {
		c.Run.Parallelism = 4
	}
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	var errs []string

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.App.LogLevel)] {
		errs = append(errs, fmt.Sprintf("app.log_level: invalid level %q, valid: debug, info, warn, error", c.App.LogLevel))
	}

	if c.ClickHouse.DSN == "" {
		errs = append(errs, "clickhouse.dsn: connection string is required")
	}
	if c.Postgres.DSN == "" {
		errs = append(errs, "postgres.dsn: connection string is required")
	}

	if _, err := c.MarketSession(); err != nil {
		errs = append(errs, fmt.Sprintf("session: %v", err))
	}
	if _, err := c.RegularSession(); err != nil {
		errs = append(errs, fmt.Sprintf("session: %v", err))
	}

	if len(c.Windows) == 0 {
		errs = append(errs, "windows: at least one window definition is required")
	}
	for i, w := range c.Windows {
		if err := w.Spec().Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("windows[%d]: %v", i, err))
		}
	}

	known := make(map[string]bool, len(features.AllStatistics))
	for _, s := range features.AllStatistics {
		known[s] = true
	}
	for i, s := range c.Features.Statistics {
		if !known[s] {
			errs = append(errs, fmt.Sprintf("features.statistics[%d]: unknown statistic %q", i, s))
		}
	}
	for i, h := range c.Features.ForwardHorizons {
		if !(h > 0) {
			errs = append(errs, fmt.Sprintf("features.forward_horizons[%d]: horizon must be positive", i))
		}
	}

	if len(c.Run.Symbols) == 0 {
		errs = append(errs, "run.symbols: at least one symbol is required")
	}
	for i, sym := range c.Run.Symbols {
		if sym == "" {
			errs = append(errs, fmt.Sprintf("run.symbols[%d]: symbol must not be empty", i))
		}
	}
	if c.Run.StartDate == "" {
		errs = append(errs, "run.start_date: start date is required")
	} else if _, err := taqtime.ParseDate(c.Run.StartDate); err != nil {
		errs = append(errs, fmt.Sprintf("run.start_date: %v", err))
	}
	if c.Run.EndDate == "" {
		errs = append(errs, "run.end_date: end date is required")
	} else if _, err := taqtime.ParseDate(c.Run.EndDate); err != nil {
		errs = append(errs, fmt.Sprintf("run.end_date: %v", err))
	}
	if c.Run.StartDate != "" && c.Run.EndDate != "" && c.Run.EndDate < c.Run.StartDate {
		errs = append(errs, "run.end_date: end date precedes start date")
	}
	if c.Run.Parallelism <= 0 {
		errs = append(errs, "run.parallelism: must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Spec converts the window definition to its computable form.
func (w WindowConfig) Spec() window.Spec {
	return window.Spec{
		Mode:   window.Mode(w.Mode),
		Delta1: w.Delta1,
		Delta2: w.Delta2,
	}
}

// WindowSpecs returns all configured window definitions in computable
// form.
func (c *Config) WindowSpecs() []window.Spec {
	specs := make([]window.Spec, len(c.Windows))
	for i, w := range c.Windows {
		specs[i] = w.Spec()
	}
	return specs
}

// MarketSession returns the raw-tape trim boundaries.
func (c *Config) MarketSession() (taqtime.Session, error) {
	return taqtime.NewSession(c.Session.MarketOpen, c.Session.MarketClose)
}

// RegularSession returns the reconstructed-event trim boundaries.
func (c *Config) RegularSession() (taqtime.Session, error) {
	return taqtime.NewSession(c.Session.RegularOpen, c.Session.RegularClose)
}
