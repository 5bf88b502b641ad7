package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/AMS-QF/TAQ-Data/internal/domain"
	"github.com/AMS-QF/TAQ-Data/internal/observability"
	"github.com/AMS-QF/TAQ-Data/internal/storage"
)

// CalendarStore implements storage.CalendarStore over the trading_days
// table.
type CalendarStore struct {
	pool *Pool
}

// NewCalendarStore creates a new CalendarStore.
func NewCalendarStore(pool *Pool) *CalendarStore {
	return &CalendarStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CalendarStore = (*CalendarStore)(nil)

// Insert adds a trading day. Returns ErrDuplicateKey if the date exists.
func (s *CalendarStore) Insert(ctx context.Context, day *domain.TradingDay) error {
	if day == nil || day.Date == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO trading_days (date, market_open, market_close)
		VALUES ($1, $2, $3)
	`

	start := time.Now()
	_, err := s.pool.Exec(ctx, query, day.Date, day.MarketOpen, day.MarketClose)
	observability.RecordDBQuery("postgres", "calendar_insert", time.Since(start).Seconds(), err)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trading day: %w", err)
	}
	return nil
}

// GetByDate retrieves one trading day. Returns ErrNotFound if the
// market was closed that date.
func (s *CalendarStore) GetByDate(ctx context.Context, date string) (*domain.TradingDay, error) {
	query := `
		SELECT date::text, market_open::text, market_close::text
		FROM trading_days
		WHERE date = $1
	`

	start := time.Now()
	var day domain.TradingDay
	err := s.pool.QueryRow(ctx, query, date).Scan(&day.Date, &day.MarketOpen, &day.MarketClose)
	observability.RecordDBQuery("postgres", "calendar_get", time.Since(start).Seconds(), err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trading day: %w", err)
	}
	return &day, nil
}

// GetRange retrieves the trading days within [start, end] (inclusive),
// ordered by date ASC.
func (s *CalendarStore) GetRange(ctx context.Context, startDate, endDate string) ([]*domain.TradingDay, error) {
	query := `
		SELECT date::text, market_open::text, market_close::text
		FROM trading_days
		WHERE date >= $1 AND date <= $2
		ORDER BY date ASC
	`

	start := time.Now()
	rows, err := s.pool.Query(ctx, query, startDate, endDate)
	observability.RecordDBQuery("postgres", "calendar_range", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("query trading days: %w", err)
	}
	defer rows.Close()

	var days []*domain.TradingDay
	for rows.Next() {
		var day domain.TradingDay
		if err := rows.Scan(&day.Date, &day.MarketOpen, &day.MarketClose); err != nil {
			return nil, fmt.Errorf("scan trading day row: %w", err)
		}
		days = append(days, &day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trading day rows: %w", err)
	}
	return days, nil
}

// isUniqueViolation reports whether the error is a unique-constraint
// violation, the signal that a trading day was already inserted.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
