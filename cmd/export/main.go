// Package main exports stored reconstructed events and feature tables
// as CSV files for downstream analysis.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AMS-QF/TAQ-Data/internal/config"
	"github.com/AMS-QF/TAQ-Data/internal/storage"
	clickhousestore "github.com/AMS-QF/TAQ-Data/internal/storage/clickhouse"
	"github.com/AMS-QF/TAQ-Data/internal/taqcsv"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	symbol := flag.String("symbol", "", "Symbol to export")
	date := flag.String("date", "", "Trading date to export, YYYY-MM-DD")
	outputDir := flag.String("output-dir", ".", "Output directory for generated files")
	eventsOnly := flag.Bool("events-only", false, "Export only the event sequence")
	featuresOnly := flag.Bool("features-only", false, "Export only the feature table")
	flag.Parse()

	if *symbol == "" || *date == "" {
		fmt.Fprintln(os.Stderr, "both -symbol and -date are required")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.App.LogLevel)
	defer logger.Sync()

	ctx := context.Background()
	if err := run(ctx, cfg, *symbol, *date, *outputDir, *eventsOnly, *featuresOnly, logger); err != nil {
		logger.Error("export failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, symbol, date, outputDir string, eventsOnly, featuresOnly bool, logger *zap.Logger) error {
	conn, err := clickhousestore.NewConn(ctx, cfg.ClickHouse.DSN)
	if err != nil {
		return fmt.Errorf("connect clickhouse: %w", err)
	}
	defer conn.Close()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if !featuresOnly {
		if err := exportEvents(ctx, clickhousestore.NewEventStore(conn), symbol, date, outputDir, logger); err != nil {
			return err
		}
	}
	if !eventsOnly {
		if err := exportFeatures(ctx, clickhousestore.NewFeatureStore(conn), symbol, date, outputDir, logger); err != nil {
			return err
		}
	}
	return nil
}

func exportEvents(ctx context.Context, store *clickhousestore.EventStore, symbol, date, outputDir string, logger *zap.Logger) error {
	events, err := store.GetBySymbolDate(ctx, symbol, date)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no events stored for %s %s", symbol, date)
		}
		return fmt.Errorf("load events: %w", err)
	}

	path := filepath.Join(outputDir, fmt.Sprintf("%s_%s_events.csv", symbol, date))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := taqcsv.WriteEvents(f, events); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	logger.Info("events exported", zap.String("path", path), zap.Int("rows", len(events)))
	return nil
}

func exportFeatures(ctx context.Context, store *clickhousestore.FeatureStore, symbol, date, outputDir string, logger *zap.Logger) error {
	table, err := store.GetTable(ctx, symbol, date)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no features stored for %s %s", symbol, date)
		}
		return fmt.Errorf("load features: %w", err)
	}

	path := filepath.Join(outputDir, fmt.Sprintf("%s_%s_features.csv", symbol, date))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := taqcsv.WriteFeatureTable(f, table); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	logger.Info("features exported",
		zap.String("path", path),
		zap.Int("rows", len(table.Timestamps)),
		zap.Int("columns", len(table.Columns)),
	)
	return nil
}

func newLogger(level string) *zap.Logger {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(level); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
