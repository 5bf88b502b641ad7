package storage

import (
	"context"

	"github.com/AMS-QF/TAQ-Data/internal/domain"
)

// TaqSource provides read access to the raw trade and quote tables for
// one symbol and trading day. Rows are returned in arrival order.
type TaqSource interface {
	// Trades retrieves the raw trade prints for a symbol and date.
	Trades(ctx context.Context, symbol, date string) ([]*domain.TradeRecord, error)

	// Quotes retrieves the raw quote updates for a symbol and date.
	Quotes(ctx context.Context, symbol, date string) ([]*domain.QuoteRecord, error)

	// VerifySchemas checks that both raw tables expose the required
	// columns. Returns a *cleaning.SchemaError naming the first missing
	// column.
	VerifySchemas(ctx context.Context) error
}

// EventStore provides access to reconstructed event storage.
type EventStore interface {
	// InsertBulk adds one day's event sequence. Returns ErrDuplicateKey
	// if the (symbol, date) partition was already written.
	InsertBulk(ctx context.Context, date string, events []*domain.Event) error

	// GetBySymbolDate retrieves a day's events ordered by timestamp and
	// arrival. Returns ErrNotFound if the partition was never written.
	GetBySymbolDate(ctx context.Context, symbol, date string) ([]*domain.Event, error)

	// GetByTimeRange retrieves a symbol's events within [start, end]
	// (inclusive, UnixNano), ordered by timestamp and arrival.
	GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.Event, error)
}

// FeatureStore provides access to computed feature storage.
type FeatureStore interface {
	// InsertTable adds one day's feature columns. Returns
	// ErrDuplicateKey if the (symbol, date) partition was already
	// written.
	InsertTable(ctx context.Context, table *domain.FeatureTable) error

	// GetTable retrieves a day's feature table. Returns ErrNotFound if
	// the partition was never written.
	GetTable(ctx context.Context, symbol, date string) (*domain.FeatureTable, error)
}

// CalendarStore provides access to the market calendar.
type CalendarStore interface {
	// Insert adds a trading day. Returns ErrDuplicateKey if the date
	// exists.
	Insert(ctx context.Context, day *domain.TradingDay) error

	// GetByDate retrieves one trading day. Returns ErrNotFound if the
	// market was closed that date.
	GetByDate(ctx context.Context, date string) (*domain.TradingDay, error)

	// GetRange retrieves the trading days within [start, end]
	// (inclusive), ordered by date ASC.
	GetRange(ctx context.Context, start, end string) ([]*domain.TradingDay, error)
}
