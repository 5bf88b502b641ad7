package clickhouse

import (
	"context"
	"fmt"

	"github.com/AMS-QF/TAQ-Data/internal/cleaning"
	"github.com/AMS-QF/TAQ-Data/internal/domain"
	"github.com/AMS-QF/TAQ-Data/internal/storage"
)

// Raw table names.
const (
	tradesTable = "taq_trades"
	quotesTable = "taq_quotes"
)

// TaqSource implements storage.TaqSource over the raw TAQ tables.
type TaqSource struct {
	conn *Conn
}

// NewTaqSource creates a new TaqSource.
func NewTaqSource(conn *Conn) *TaqSource {
	return &TaqSource{conn: conn}
}

// Compile-time interface check.
var _ storage.TaqSource = (*TaqSource)(nil)

// InsertTrades loads one day's raw trade prints in tape arrival order.
// Returns ErrDuplicateKey if the (symbol, date) partition was already
// loaded.
func (s *TaqSource) InsertTrades(ctx context.Context, records []*domain.TradeRecord) error {
	if len(records) == 0 {
		return storage.ErrInvalidInput
	}
	symbol, date := records[0].Symbol, records[0].Date
	if symbol == "" || date == "" {
		return storage.ErrInvalidInput
	}

	written, err := s.partitionExists(ctx, tradesTable, symbol, date)
	if err != nil {
		return fmt.Errorf("check partition: %w", err)
	}
	if written {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO taq_trades (
		date, seq, participant_timestamp, symbol, exchange,
		trade_price, trade_volume, reporting_facility)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	for i, r := range records {
		err = batch.Append(
			r.Date, uint32(i), r.ParticipantTimestamp, r.Symbol, r.Exchange,
			r.TradePrice, r.TradeVolume, r.ReportingFacility,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// InsertQuotes loads one day's raw quote updates in tape arrival order.
// Returns ErrDuplicateKey if the (symbol, date) partition was already
// loaded.
func (s *TaqSource) InsertQuotes(ctx context.Context, records []*domain.QuoteRecord) error {
	if len(records) == 0 {
		return storage.ErrInvalidInput
	}
	symbol, date := records[0].Symbol, records[0].Date
	if symbol == "" || date == "" {
		return storage.ErrInvalidInput
	}

	written, err := s.partitionExists(ctx, quotesTable, symbol, date)
	if err != nil {
		return fmt.Errorf("check partition: %w", err)
	}
	if written {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO taq_quotes (
		date, seq, participant_timestamp, symbol, exchange,
		bid_price, bid_size, offer_price, offer_size)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	for i, r := range records {
		err = batch.Append(
			r.Date, uint32(i), r.ParticipantTimestamp, r.Symbol, r.Exchange,
			r.BidPrice, r.BidSize, r.OfferPrice, r.OfferSize,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

func (s *TaqSource) partitionExists(ctx context.Context, table, symbol, date string) (bool, error) {
	var count uint64
	query := fmt.Sprintf(`SELECT count() FROM %s WHERE symbol = ? AND date = ?`, table)
	row := s.conn.QueryRow(ctx, query, symbol, date)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// Trades retrieves the raw trade prints for a symbol and date, in tape
// arrival order.
func (s *TaqSource) Trades(ctx context.Context, symbol, date string) ([]*domain.TradeRecord, error) {
	query := `
		SELECT date, participant_timestamp, symbol, exchange,
		       trade_price, trade_volume, reporting_facility
		FROM taq_trades
		WHERE symbol = ? AND date = ?
		ORDER BY seq ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, date)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var records []*domain.TradeRecord
	for rows.Next() {
		var r domain.TradeRecord
		err := rows.Scan(
			&r.Date, &r.ParticipantTimestamp, &r.Symbol, &r.Exchange,
			&r.TradePrice, &r.TradeVolume, &r.ReportingFacility,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}
	return records, nil
}

// Quotes retrieves the raw quote updates for a symbol and date, in tape
// arrival order.
func (s *TaqSource) Quotes(ctx context.Context, symbol, date string) ([]*domain.QuoteRecord, error) {
	query := `
		SELECT date, participant_timestamp, symbol, exchange,
		       bid_price, bid_size, offer_price, offer_size
		FROM taq_quotes
		WHERE symbol = ? AND date = ?
		ORDER BY seq ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, date)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	var records []*domain.QuoteRecord
	for rows.Next() {
		var r domain.QuoteRecord
		err := rows.Scan(
			&r.Date, &r.ParticipantTimestamp, &r.Symbol, &r.Exchange,
			&r.BidPrice, &r.BidSize, &r.OfferPrice, &r.OfferSize,
		)
		if err != nil {
			return nil, fmt.Errorf("scan quote row: %w", err)
		}
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quote rows: %w", err)
	}
	return records, nil
}

// VerifySchemas checks both raw tables against the required column sets
// before any rows are pulled. A *cleaning.SchemaError aborts the run for
// that table.
func (s *TaqSource) VerifySchemas(ctx context.Context) error {
	tradeCols, err := s.tableColumns(ctx, tradesTable)
	if err != nil {
		return err
	}
	if err := cleaning.VerifyTradeSchema(tradeCols); err != nil {
		return err
	}

	quoteCols, err := s.tableColumns(ctx, quotesTable)
	if err != nil {
		return err
	}
	return cleaning.VerifyQuoteSchema(quoteCols)
}

func (s *TaqSource) tableColumns(ctx context.Context, table string) ([]string, error) {
	query := `
		SELECT name FROM system.columns
		WHERE database = currentDatabase() AND table = ?
		ORDER BY position
	`

	rows, err := s.conn.Query(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("query %s columns: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column name: %w", err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s columns: %w", table, err)
	}
	return columns, nil
}
