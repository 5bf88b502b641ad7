package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/AMS-QF/TAQ-Data/internal/domain"
	"github.com/AMS-QF/TAQ-Data/internal/storage"
)

// EventStore is an in-memory implementation of storage.EventStore.
type EventStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.Event // keyed by symbol|date, sequence order
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{
		data: make(map[string][]*domain.Event),
	}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

// InsertBulk adds one day's event sequence. Returns ErrDuplicateKey if
// the (symbol, date) partition was already written.
func (s *EventStore) InsertBulk(_ context.Context, date string, events []*domain.Event) error {
	if date == "" || len(events) == 0 {
		return storage.ErrInvalidInput
	}
	symbol := events[0].Symbol
	if symbol == "" {
		return storage.ErrInvalidInput
	}
	key := partitionKey(symbol, date)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	stored := make([]*domain.Event, len(events))
	for i, e := range events {
		copy := *e
		stored[i] = &copy
	}
	s.data[key] = stored
	return nil
}

// GetBySymbolDate retrieves a day's events in sequence order.
func (s *EventStore) GetBySymbolDate(_ context.Context, symbol, date string) ([]*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, exists := s.data[partitionKey(symbol, date)]
	if !exists {
		return nil, storage.ErrNotFound
	}
	out := make([]*domain.Event, len(stored))
	for i, e := range stored {
		copy := *e
		out[i] = &copy
	}
	return out, nil
}

// GetByTimeRange retrieves a symbol's events within [start, end]
// (inclusive, UnixNano), in sequence order across days.
func (s *EventStore) GetByTimeRange(_ context.Context, symbol string, start, end int64) ([]*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Event
	for _, stored := range s.data {
		if len(stored) == 0 || stored[0].Symbol != symbol {
			continue
		}
		for _, e := range stored {
			if e.Timestamp >= start && e.Timestamp <= end {
				copy := *e
				out = append(out, &copy)
			}
		}
	}
	// Partitions never overlap in time, so a stable sort on timestamp
	// keeps each day's internal arrival order.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out, nil
}
