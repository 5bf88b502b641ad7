// Package pipeline coordinates the per-day TAQ run:
// fetch → clean → trim → reconstruct → features → store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/AMS-QF/TAQ-Data/internal/cleaning"
	"github.com/AMS-QF/TAQ-Data/internal/domain"
	"github.com/AMS-QF/TAQ-Data/internal/features"
	"github.com/AMS-QF/TAQ-Data/internal/observability"
	"github.com/AMS-QF/TAQ-Data/internal/reconstruct"
	"github.com/AMS-QF/TAQ-Data/internal/storage"
	"github.com/AMS-QF/TAQ-Data/internal/taqtime"
	"github.com/AMS-QF/TAQ-Data/internal/window"
)

// Stage names, used in errors and metrics labels.
const (
	StageFetch       = "fetch"
	StageClean       = "clean"
	StageReconstruct = "reconstruct"
	StageFeatures    = "features"
	StageStore       = "store"
)

// StageError reports which pipeline stage failed for a (symbol, date)
// job.
type StageError struct {
	Stage  string
	Symbol string
	Date   string
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s %s: stage %s: %v", e.Symbol, e.Date, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Runner executes the reconstruction and feature pipeline for single
// days and calendar ranges.
type Runner struct {
	source       storage.TaqSource
	eventStore   storage.EventStore
	featureStore storage.FeatureStore

	marketSession  taqtime.Session
	regularSession taqtime.Session

	windowSpecs     []window.Spec
	statistics      []string
	forwardHorizons []float64

	logger *zap.Logger
}

// Options configures a Runner.
type Options struct {
	// Required stores
	Source       storage.TaqSource
	EventStore   storage.EventStore
	FeatureStore storage.FeatureStore

	// MarketSession bounds the raw tape; RegularSession bounds the
	// reconstructed-event input to feature generation.
	MarketSession  taqtime.Session
	RegularSession taqtime.Session

	// WindowSpecs and Statistics define the feature set. Empty
	// Statistics means all.
	WindowSpecs []window.Spec
	Statistics  []string

	// ForwardHorizons lists forward return horizons in seconds.
	ForwardHorizons []float64

	Logger *zap.Logger
}

// New creates a Runner.
func New(opts Options) *Runner {
	stats := opts.Statistics
	if len(stats) == 0 {
		stats = features.AllStatistics
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		source:          opts.Source,
		eventStore:      opts.EventStore,
		featureStore:    opts.FeatureStore,
		marketSession:   opts.MarketSession,
		regularSession:  opts.RegularSession,
		windowSpecs:     opts.WindowSpecs,
		statistics:      stats,
		forwardHorizons: opts.ForwardHorizons,
		logger:          logger,
	}
}

// DayResult summarizes one (symbol, date) run.
type DayResult struct {
	Symbol string
	Date   string

	TradesKept  int
	QuotesKept  int
	TradesStats *cleaning.Stats
	QuotesStats *cleaning.Stats

	Events         int
	FeatureColumns int

	// Skipped is true when the day's partitions were already written.
	Skipped bool
}

// RunDay executes the full pipeline for one symbol and trading day.
// A failure in any stage aborts the day and is reported as a
// *StageError; a day whose output partitions already exist is skipped,
// not failed.
func (r *Runner) RunDay(ctx context.Context, symbol, date string) (*DayResult, error) {
	result := &DayResult{Symbol: symbol, Date: date}
	log := r.logger.With(zap.String("symbol", symbol), zap.String("date", date))

	// Fetch
	start := time.Now()
	rawTrades, err := r.source.Trades(ctx, symbol, date)
	if err != nil {
		return nil, r.fail(StageFetch, symbol, date, err)
	}
	rawQuotes, err := r.source.Quotes(ctx, symbol, date)
	if err != nil {
		return nil, r.fail(StageFetch, symbol, date, err)
	}
	observability.RecordStageDuration(StageFetch, time.Since(start).Seconds())
	observability.RecordRowsRead("trades", len(rawTrades))
	observability.RecordRowsRead("quotes", len(rawQuotes))

	// Clean against the market session, then trim the regular session.
	start = time.Now()
	trades, tradeStats, err := cleaning.CleanTrades(rawTrades, r.marketSession)
	if err != nil {
		return nil, r.fail(StageClean, symbol, date, err)
	}
	quotes, quoteStats, err := cleaning.CleanQuotes(rawQuotes, r.marketSession)
	if err != nil {
		return nil, r.fail(StageClean, symbol, date, err)
	}
	trades = cleaning.TrimTrades(trades, r.regularSession)
	quotes = cleaning.TrimQuotes(quotes, r.regularSession)
	observability.RecordStageDuration(StageClean, time.Since(start).Seconds())
	for reason, n := range tradeStats.Dropped {
		observability.RecordRowsDropped("trades", reason, n)
	}
	for reason, n := range quoteStats.Dropped {
		observability.RecordRowsDropped("quotes", reason, n)
	}
	result.TradesKept = len(trades)
	result.QuotesKept = len(quotes)
	result.TradesStats = tradeStats
	result.QuotesStats = quoteStats

	// Reconstruct
	start = time.Now()
	events := reconstruct.Reconstruct(trades, quotes)
	observability.RecordStageDuration(StageReconstruct, time.Since(start).Seconds())
	observability.RecordEventsReconstructed(len(events), groupCount(events))
	result.Events = len(events)

	// A day with no surviving rows writes nothing.
	if len(events) == 0 {
		log.Info("no events after cleaning, nothing to store")
		observability.RecordDayProcessed("empty")
		return result, nil
	}

	// Features
	start = time.Now()
	gen := features.NewGenerator(events)
	table, err := gen.Table(symbol, date, r.windowSpecs, r.statistics)
	if err != nil {
		return nil, r.fail(StageFeatures, symbol, date, err)
	}
	for _, horizon := range r.forwardHorizons {
		table.Columns = append(table.Columns, gen.ForwardReturn(horizon))
	}
	observability.RecordStageDuration(StageFeatures, time.Since(start).Seconds())
	for _, spec := range r.windowSpecs {
		observability.RecordFeatureColumns(string(spec.Mode), len(r.statistics))
	}
	result.FeatureColumns = len(table.Columns)

	// Store
	start = time.Now()
	if err := r.eventStore.InsertBulk(ctx, date, events); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			log.Info("partition already written, skipping")
			observability.RecordDayProcessed("skipped")
			result.Skipped = true
			return result, nil
		}
		return nil, r.fail(StageStore, symbol, date, err)
	}
	if err := r.featureStore.InsertTable(ctx, table); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return nil, r.fail(StageStore, symbol, date, err)
	}
	observability.RecordStageDuration(StageStore, time.Since(start).Seconds())

	observability.RecordDayProcessed("ok")
	log.Info("day complete",
		zap.Int("trades", result.TradesKept),
		zap.Int("quotes", result.QuotesKept),
		zap.Int("events", result.Events),
		zap.Int("feature_columns", result.FeatureColumns),
	)
	return result, nil
}

func (r *Runner) fail(stage, symbol, date string, err error) error {
	observability.RecordStageError(stage)
	observability.RecordDayProcessed("error")
	return &StageError{Stage: stage, Symbol: symbol, Date: date, Err: err}
}

// groupCount returns the number of distinct timestamp groups. Group ids
// are dense, so the count is the last id plus one.
func groupCount(events []*domain.Event) int {
	if len(events) == 0 {
		return 0
	}
	return int(events[len(events)-1].GroupID) + 1
}
