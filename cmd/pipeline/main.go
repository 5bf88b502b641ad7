// Package main runs the TAQ reconstruction and feature pipeline over a
// calendar range: raw tape → cleaning → event reconstruction → lookback
// features → storage.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AMS-QF/TAQ-Data/internal/config"
	"github.com/AMS-QF/TAQ-Data/internal/observability"
	"github.com/AMS-QF/TAQ-Data/internal/pipeline"
	"github.com/AMS-QF/TAQ-Data/internal/storage"
	clickhousestore "github.com/AMS-QF/TAQ-Data/internal/storage/clickhouse"
	"github.com/AMS-QF/TAQ-Data/internal/storage/migrations"
	"github.com/AMS-QF/TAQ-Data/internal/storage/postgres"
	"github.com/AMS-QF/TAQ-Data/internal/taqcsv"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	csvDir := flag.String("csv-dir", "", "Read raw extracts from per-day CSV files in this directory instead of ClickHouse")
	startDate := flag.String("start", "", "Override run.start_date")
	endDate := flag.String("end", "", "Override run.end_date")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *startDate != "" {
		cfg.Run.StartDate = *startDate
	}
	if *endDate != "" {
		cfg.Run.EndDate = *endDate
	}

	logger := newLogger(cfg.App.LogLevel)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, cancelling run", zap.String("signal", sig.String()))
		cancel()
	}()

	if cfg.App.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.App.MetricsAddr, mux); err != nil {
				logger.Warn("metrics endpoint stopped", zap.Error(err))
			}
		}()
		logger.Info("metrics endpoint listening", zap.String("addr", cfg.App.MetricsAddr))
	}

	if err := run(ctx, cfg, *csvDir, logger); err != nil {
		logger.Error("pipeline failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, csvDir string, logger *zap.Logger) error {
	chConn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN)
	if err != nil {
		return fmt.Errorf("clickhouse migrations: %w", err)
	}
	defer chConn.Close()

	pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return fmt.Errorf("postgres migrations: %w", err)
	}

	var source storage.TaqSource
	if csvDir != "" {
		source = taqcsv.NewSource(csvDir)
		logger.Info("reading raw extracts from CSV", zap.String("dir", csvDir))
	} else {
		source = clickhousestore.NewTaqSource(chConn)
	}
	if err := source.VerifySchemas(ctx); err != nil {
		return fmt.Errorf("verify raw schemas: %w", err)
	}

	marketSession, err := cfg.MarketSession()
	if err != nil {
		return err
	}
	regularSession, err := cfg.RegularSession()
	if err != nil {
		return err
	}

	runner := pipeline.New(pipeline.Options{
		Source:          source,
		EventStore:      clickhousestore.NewEventStore(chConn),
		FeatureStore:    clickhousestore.NewFeatureStore(chConn),
		MarketSession:   marketSession,
		RegularSession:  regularSession,
		WindowSpecs:     cfg.WindowSpecs(),
		Statistics:      cfg.Features.Statistics,
		ForwardHorizons: cfg.Features.ForwardHorizons,
		Logger:          logger,
	})

	calendar := postgres.NewCalendarStore(pool)
	logger.Info("starting run",
		zap.Strings("symbols", cfg.Run.Symbols),
		zap.String("start", cfg.Run.StartDate),
		zap.String("end", cfg.Run.EndDate),
		zap.Int("parallelism", cfg.Run.Parallelism),
	)

	result, err := runner.RunRange(ctx, calendar, cfg.Run.Symbols, cfg.Run.StartDate, cfg.Run.EndDate, cfg.Run.Parallelism)
	if err != nil {
		return err
	}

	logger.Info("run complete",
		zap.Int("trading_days", result.TradingDays),
		zap.Int("completed", result.Completed),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", len(result.Errors)),
	)
	for _, e := range result.Errors {
		logger.Error("day failed", zap.String("job", e))
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("%d of %d jobs failed", len(result.Errors), result.Completed+result.Skipped+len(result.Errors))
	}
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
