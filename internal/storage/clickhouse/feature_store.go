package clickhouse

import (
	"context"
	"fmt"

	"github.com/AMS-QF/TAQ-Data/internal/domain"
	"github.com/AMS-QF/TAQ-Data/internal/storage"
)

// FeatureStore implements storage.FeatureStore using ClickHouse. Tables
// are stored long: one row per (timestamp row, feature name).
type FeatureStore struct {
	conn *Conn
}

// NewFeatureStore creates a new FeatureStore.
func NewFeatureStore(conn *Conn) *FeatureStore {
	return &FeatureStore{conn: conn}
}

// Compile-time interface check.
var _ storage.FeatureStore = (*FeatureStore)(nil)

// InsertTable adds one day's feature columns. Returns ErrDuplicateKey
// if the (symbol, date) partition was already written.
func (s *FeatureStore) InsertTable(ctx context.Context, table *domain.FeatureTable) error {
	if table == nil || table.Symbol == "" || table.Date == "" {
		return storage.ErrInvalidInput
	}
	for _, col := range table.Columns {
		if len(col.Values) != len(table.Timestamps) {
			return storage.ErrInvalidInput
		}
	}

	written, err := s.partitionExists(ctx, table.Symbol, table.Date)
	if err != nil {
		return fmt.Errorf("check partition: %w", err)
	}
	if written {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO features (symbol, date, seq, timestamp, name, value)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, col := range table.Columns {
		for i, v := range col.Values {
			err = batch.Append(
				table.Symbol, table.Date, uint32(i), table.Timestamps[i],
				col.Name, toNullable(v),
			)
			if err != nil {
				return fmt.Errorf("append to batch: %w", err)
			}
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetTable retrieves a day's feature table, columns in name order.
// Returns ErrNotFound if the partition was never written.
func (s *FeatureStore) GetTable(ctx context.Context, symbol, date string) (*domain.FeatureTable, error) {
	query := `
		SELECT seq, timestamp, name, value
		FROM features
		WHERE symbol = ? AND date = ?
		ORDER BY name ASC, seq ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, date)
	if err != nil {
		return nil, fmt.Errorf("query feature table: %w", err)
	}
	defer rows.Close()

	table := &domain.FeatureTable{Symbol: symbol, Date: date}
	var current *domain.FeatureColumn

	for rows.Next() {
		var seq uint32
		var timestamp int64
		var name string
		var value *float64
		if err := rows.Scan(&seq, &timestamp, &name, &value); err != nil {
			return nil, fmt.Errorf("scan feature row: %w", err)
		}

		if current == nil || current.Name != name {
			table.Columns = append(table.Columns, domain.FeatureColumn{Name: name})
			current = &table.Columns[len(table.Columns)-1]
		}
		current.Values = append(current.Values, fromNullable(value))

		// The timestamp axis is shared by all columns; capture it once.
		if len(table.Columns) == 1 {
			table.Timestamps = append(table.Timestamps, timestamp)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feature rows: %w", err)
	}

	if len(table.Columns) == 0 {
		return nil, storage.ErrNotFound
	}
	return table, nil
}

// partitionExists checks whether any row was written for (symbol, date).
func (s *FeatureStore) partitionExists(ctx context.Context, symbol, date string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count(*) FROM features WHERE symbol = ? AND date = ?`,
		symbol, date,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
