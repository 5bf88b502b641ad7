package memory

import (
	"context"
	"sync"

	"github.com/AMS-QF/TAQ-Data/internal/domain"
	"github.com/AMS-QF/TAQ-Data/internal/storage"
)

// FeatureStore is an in-memory implementation of storage.FeatureStore.
type FeatureStore struct {
	mu   sync.RWMutex
	data map[string]*domain.FeatureTable // keyed by symbol|date
}

// NewFeatureStore creates a new in-memory feature store.
func NewFeatureStore() *FeatureStore {
	return &FeatureStore{
		data: make(map[string]*domain.FeatureTable),
	}
}

// Compile-time interface check.
var _ storage.FeatureStore = (*FeatureStore)(nil)

// InsertTable adds one day's feature columns. Returns ErrDuplicateKey
// if the (symbol, date) partition was already written.
func (s *FeatureStore) InsertTable(_ context.Context, table *domain.FeatureTable) error {
	if table == nil || table.Symbol == "" || table.Date == "" {
		return storage.ErrInvalidInput
	}
	key := partitionKey(table.Symbol, table.Date)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[key] = copyTable(table)
	return nil
}

// GetTable retrieves a day's feature table. Returns ErrNotFound if the
// partition was never written.
func (s *FeatureStore) GetTable(_ context.Context, symbol, date string) (*domain.FeatureTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	table, exists := s.data[partitionKey(symbol, date)]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyTable(table), nil
}

func copyTable(table *domain.FeatureTable) *domain.FeatureTable {
	out := &domain.FeatureTable{
		Symbol:     table.Symbol,
		Date:       table.Date,
		Timestamps: append([]int64(nil), table.Timestamps...),
		Columns:    make([]domain.FeatureColumn, len(table.Columns)),
	}
	for i, col := range table.Columns {
		out.Columns[i] = domain.FeatureColumn{
			Name:   col.Name,
			Values: append([]float64(nil), col.Values...),
		}
	}
	return out
}
