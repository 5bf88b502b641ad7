// Package main loads raw TAQ CSV extracts into the ClickHouse raw
// tables and, optionally, the trading-day calendar into Postgres.
//
// Extract files are named <symbol>_<date>_trades.csv and
// <symbol>_<date>_quotes.csv; every pair found under -csv-dir is
// loaded. A calendar file is CSV with a date,market_open,market_close
// header.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AMS-QF/TAQ-Data/internal/config"
	"github.com/AMS-QF/TAQ-Data/internal/domain"
	"github.com/AMS-QF/TAQ-Data/internal/storage"
	clickhousestore "github.com/AMS-QF/TAQ-Data/internal/storage/clickhouse"
	"github.com/AMS-QF/TAQ-Data/internal/storage/migrations"
	"github.com/AMS-QF/TAQ-Data/internal/storage/postgres"
	"github.com/AMS-QF/TAQ-Data/internal/taqcsv"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	csvDir := flag.String("csv-dir", "", "Directory of per-day raw extract files")
	calendarPath := flag.String("calendar", "", "Trading-day calendar CSV to load into Postgres")
	flag.Parse()

	if *csvDir == "" && *calendarPath == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: pass -csv-dir and/or -calendar")
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
	if err := run(ctx, cfg, *csvDir, *calendarPath, logger); err != nil {
		logger.Error("ingest failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, csvDir, calendarPath string, logger *zap.Logger) error {
	if calendarPath != "" {
		pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("postgres migrations: %w", err)
		}
		loaded, err := loadCalendar(ctx, postgres.NewCalendarStore(pool), calendarPath)
		if err != nil {
			return fmt.Errorf("load calendar: %w", err)
		}
		logger.Info("calendar loaded", zap.Int("days", loaded))
	}

	if csvDir == "" {
		return nil
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN)
	if err != nil {
		return fmt.Errorf("clickhouse migrations: %w", err)
	}
	defer chConn.Close()
	source := clickhousestore.NewTaqSource(chConn)

	days, err := extractDays(csvDir)
	if err != nil {
		return err
	}
	if len(days) == 0 {
		return fmt.Errorf("no extract files under %s", csvDir)
	}

	for _, d := range days {
		log := logger.With(zap.String("symbol", d.symbol), zap.String("date", d.date))
		if err := loadDay(ctx, source, csvDir, d); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				log.Info("partition already loaded, skipping")
				continue
			}
			return fmt.Errorf("load %s %s: %w", d.symbol, d.date, err)
		}
		log.Info("day loaded")
	}
	return nil
}

// extractDay identifies one (symbol, date) pair of extract files.
type extractDay struct {
	symbol string
	date   string
}

// extractDays scans a directory for trade extract files and derives the
// (symbol, date) pairs to load. Quote files are located per pair.
func extractDays(dir string) ([]extractDay, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*_trades.csv"))
	if err != nil {
		return nil, err
	}
	var days []extractDay
	for _, m := range matches {
		base := strings.TrimSuffix(filepath.Base(m), "_trades.csv")
		i := strings.LastIndex(base, "_")
		if i <= 0 {
			continue
		}
		days = append(days, extractDay{symbol: base[:i], date: base[i+1:]})
	}
	return days, nil
}

func loadDay(ctx context.Context, source *clickhousestore.TaqSource, dir string, d extractDay) error {
	trades, err := readTradeFile(dir, d)
	if err != nil {
		return err
	}
	quotes, err := readQuoteFile(dir, d)
	if err != nil {
		return err
	}

	if len(trades) > 0 {
		if err := source.InsertTrades(ctx, trades); err != nil {
			return err
		}
	}
	if len(quotes) > 0 {
		return source.InsertQuotes(ctx, quotes)
	}
	return nil
}

func readTradeFile(dir string, d extractDay) ([]*domain.TradeRecord, error) {
	path := filepath.Join(dir, fmt.Sprintf("%s_%s_trades.csv", d.symbol, d.date))
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	records, err := taqcsv.ReadTrades(f, d.date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

func readQuoteFile(dir string, d extractDay) ([]*domain.QuoteRecord, error) {
	path := filepath.Join(dir, fmt.Sprintf("%s_%s_quotes.csv", d.symbol, d.date))
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	records, err := taqcsv.ReadQuotes(f, d.date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// loadCalendar inserts trading days from a CSV file, skipping dates
// already present.
func loadCalendar(ctx context.Context, store storage.CalendarStore, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range []string{"date", "market_open", "market_close"} {
		if _, ok := cols[required]; !ok {
			return 0, fmt.Errorf("calendar file missing column %q", required)
		}
	}

	var loaded int
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return loaded, fmt.Errorf("read row: %w", err)
		}
		day := &domain.TradingDay{
			Date:        row[cols["date"]],
			MarketOpen:  row[cols["market_open"]],
			MarketClose: row[cols["market_close"]],
		}
		if err := store.Insert(ctx, day); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				continue
			}
			return loaded, fmt.Errorf("insert %s: %w", day.Date, err)
		}
		loaded++
	}
	return loaded, nil
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
