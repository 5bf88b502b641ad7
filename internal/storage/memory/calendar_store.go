package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/AMS-QF/TAQ-Data/internal/domain"
	"github.com/AMS-QF/TAQ-Data/internal/storage"
)

// CalendarStore is an in-memory implementation of storage.CalendarStore.
type CalendarStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TradingDay // keyed by date
}

// NewCalendarStore creates a new in-memory calendar store.
func NewCalendarStore() *CalendarStore {
	return &CalendarStore{
		data: make(map[string]*domain.TradingDay),
	}
}

// Compile-time interface check.
var _ storage.CalendarStore = (*CalendarStore)(nil)

// Insert adds a trading day. Returns ErrDuplicateKey if the date exists.
func (s *CalendarStore) Insert(_ context.Context, day *domain.TradingDay) error {
	if day == nil || day.Date == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[day.Date]; exists {
		return storage.ErrDuplicateKey
	}
	copy := *day
	s.data[day.Date] = &copy
	return nil
}

// GetByDate retrieves one trading day. Returns ErrNotFound if the
// market was closed that date.
func (s *CalendarStore) GetByDate(_ context.Context, date string) (*domain.TradingDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	day, exists := s.data[date]
	if !exists {
		return nil, storage.ErrNotFound
	}
	copy := *day
	return &copy, nil
}

// GetRange retrieves the trading days within [start, end] (inclusive),
// ordered by date ASC.
func (s *CalendarStore) GetRange(_ context.Context, start, end string) ([]*domain.TradingDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.TradingDay
	for date, day := range s.data {
		if date >= start && date <= end {
			copy := *day
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out, nil
}
