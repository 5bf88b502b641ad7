package taqcsv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AMS-QF/TAQ-Data/internal/domain"
	"github.com/AMS-QF/TAQ-Data/internal/storage"
)

// Source reads raw TAQ extracts from a directory of per-day CSV files
// named <symbol>_<date>_trades.csv and <symbol>_<date>_quotes.csv.
type Source struct {
	dir string
}

var _ storage.TaqSource = (*Source)(nil)

// NewSource creates a file-backed TAQ source rooted at dir.
func NewSource(dir string) *Source {
	return &Source{dir: dir}
}

// Trades reads the trade extract for a symbol and date.
func (s *Source) Trades(ctx context.Context, symbol, date string) ([]*domain.TradeRecord, error) {
	f, err := s.open(symbol, date, "trades")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	records, err := ReadTrades(f, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name(), err)
	}
	return records, nil
}

// Quotes reads the quote extract for a symbol and date.
func (s *Source) Quotes(ctx context.Context, symbol, date string) ([]*domain.QuoteRecord, error) {
	f, err := s.open(symbol, date, "quotes")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	records, err := ReadQuotes(f, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name(), err)
	}
	return records, nil
}

// VerifySchemas is satisfied per file: each read verifies its own
// header row, so there is no table schema to check up front.
func (s *Source) VerifySchemas(ctx context.Context) error {
	return nil
}

func (s *Source) open(symbol, date, kind string) (*os.File, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("%s_%s_%s.csv", symbol, date, kind))
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", path, storage.ErrNotFound)
	}
	return f, err
}
