package clickhouse

import (
	"context"
	"fmt"

	"github.com/AMS-QF/TAQ-Data/internal/domain"
	"github.com/AMS-QF/TAQ-Data/internal/storage"
)

// EventStore implements storage.EventStore using ClickHouse.
type EventStore struct {
	conn *Conn
}

// NewEventStore creates a new EventStore.
func NewEventStore(conn *Conn) *EventStore {
	return &EventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

const eventColumns = `
	symbol, date, seq, timestamp, kind,
	trade_price, trade_volume,
	bid_price, bid_size, offer_price, offer_size,
	group_id, active, trade_side, mid_price, ofi_event
`

// InsertBulk adds one day's event sequence. The seq column records the
// in-memory position so reads restore arrival order exactly. Returns
// ErrDuplicateKey if the (symbol, date) partition was already written.
func (s *EventStore) InsertBulk(ctx context.Context, date string, events []*domain.Event) error {
	if date == "" || len(events) == 0 {
		return storage.ErrInvalidInput
	}
	symbol := events[0].Symbol

	written, err := s.partitionExists(ctx, symbol, date)
	if err != nil {
		return fmt.Errorf("check partition: %w", err)
	}
	if written {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO events (`+eventColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i, e := range events {
		active := uint8(0)
		if e.Active {
			active = 1
		}
		err = batch.Append(
			e.Symbol, date, uint32(i), e.Timestamp, string(e.Kind),
			toNullable(e.TradePrice), toNullable(e.TradeVolume),
			toNullable(e.BidPrice), toNullable(e.BidSize),
			toNullable(e.OfferPrice), toNullable(e.OfferSize),
			e.GroupID, active, toNullable(e.TradeSide),
			toNullable(e.MidPrice), toNullable(e.OFIEvent),
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

// GetBySymbolDate retrieves a day's events in sequence order. Returns
// ErrNotFound if the partition was never written.
func (s *EventStore) GetBySymbolDate(ctx context.Context, symbol, date string) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE symbol = ? AND date = ?
		ORDER BY seq ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, date)
	if err != nil {
		return nil, fmt.Errorf("query by symbol and date: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, storage.ErrNotFound
	}
	return events, nil
}

// GetByTimeRange retrieves a symbol's events within [start, end]
// (inclusive, UnixNano), in sequence order across days.
func (s *EventStore) GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE symbol = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY date ASC, seq ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// partitionExists checks whether any row was written for (symbol, date).
func (s *EventStore) partitionExists(ctx context.Context, symbol, date string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count(*) FROM events WHERE symbol = ? AND date = ?`,
		symbol, date,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanEvents scans multiple rows.
func scanEvents(rows chRows) ([]*domain.Event, error) {
	var events []*domain.Event

	for rows.Next() {
		var e domain.Event
		var date string
		var seq uint32
		var kind string
		var active uint8
		var tradePrice, tradeVolume *float64
		var bidPrice, bidSize, offerPrice, offerSize *float64
		var tradeSide, midPrice, ofiEvent *float64

		err := rows.Scan(
			&e.Symbol, &date, &seq, &e.Timestamp, &kind,
			&tradePrice, &tradeVolume,
			&bidPrice, &bidSize, &offerPrice, &offerSize,
			&e.GroupID, &active, &tradeSide, &midPrice, &ofiEvent,
		)
		if err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}

		e.Kind = domain.EventKind(kind)
		e.Active = active != 0
		e.TradePrice = fromNullable(tradePrice)
		e.TradeVolume = fromNullable(tradeVolume)
		e.BidPrice = fromNullable(bidPrice)
		e.BidSize = fromNullable(bidSize)
		e.OfferPrice = fromNullable(offerPrice)
		e.OfferSize = fromNullable(offerSize)
		e.TradeSide = fromNullable(tradeSide)
		e.MidPrice = fromNullable(midPrice)
		e.OFIEvent = fromNullable(ofiEvent)

		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}
	return events, nil
}
