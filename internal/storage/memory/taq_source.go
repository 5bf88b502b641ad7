// Package memory provides in-memory storage implementations used by
// tests and small local runs.
package memory

import (
	"context"
	"sync"

	"github.com/AMS-QF/TAQ-Data/internal/domain"
	"github.com/AMS-QF/TAQ-Data/internal/storage"
)

// TaqSource is an in-memory implementation of storage.TaqSource. Rows
// are seeded with AddTrades/AddQuotes and served back in seed order.
type TaqSource struct {
	mu     sync.RWMutex
	trades map[string][]*domain.TradeRecord // keyed by symbol|date
	quotes map[string][]*domain.QuoteRecord
}

// NewTaqSource creates an empty in-memory source.
func NewTaqSource() *TaqSource {
	return &TaqSource{
		trades: make(map[string][]*domain.TradeRecord),
		quotes: make(map[string][]*domain.QuoteRecord),
	}
}

// Compile-time interface check.
var _ storage.TaqSource = (*TaqSource)(nil)

func partitionKey(symbol, date string) string {
	return symbol + "|" + date
}

// AddTrades seeds raw trade rows for their symbol and date.
func (s *TaqSource) AddTrades(records ...*domain.TradeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		key := partitionKey(r.Symbol, r.Date)
		copy := *r
		s.trades[key] = append(s.trades[key], &copy)
	}
}

// AddQuotes seeds raw quote rows for their symbol and date.
func (s *TaqSource) AddQuotes(records ...*domain.QuoteRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		key := partitionKey(r.Symbol, r.Date)
		copy := *r
		s.quotes[key] = append(s.quotes[key], &copy)
	}
}

// Trades retrieves the raw trade prints for a symbol and date.
func (s *TaqSource) Trades(_ context.Context, symbol, date string) ([]*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.trades[partitionKey(symbol, date)]
	out := make([]*domain.TradeRecord, len(rows))
	for i, r := range rows {
		copy := *r
		out[i] = &copy
	}
	return out, nil
}

// Quotes retrieves the raw quote updates for a symbol and date.
func (s *TaqSource) Quotes(_ context.Context, symbol, date string) ([]*domain.QuoteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.quotes[partitionKey(symbol, date)]
	out := make([]*domain.QuoteRecord, len(rows))
	for i, r := range rows {
		copy := *r
		out[i] = &copy
	}
	return out, nil
}

// VerifySchemas always succeeds: seeded rows are already structured.
func (s *TaqSource) VerifySchemas(_ context.Context) error {
	return nil
}
