// Package taqcsv reads raw TAQ extracts from CSV files and renders
// reconstructed events and feature tables back out. Numeric fields
// parse the empty string as NaN and render NaN as the empty string, so
// round-trips preserve undefined values.
package taqcsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/AMS-QF/TAQ-Data/internal/cleaning"
	"github.com/AMS-QF/TAQ-Data/internal/domain"
)

// ReadTrades parses a raw trade extract for one trading day. The header
// row must carry the trade table's required columns; extra columns are
// ignored.
func ReadTrades(r io.Reader, date string) ([]*domain.TradeRecord, error) {
	rows, cols, err := readTable(r, cleaning.VerifyTradeSchema)
	if err != nil {
		return nil, err
	}

	records := make([]*domain.TradeRecord, 0, len(rows))
	for i, row := range rows {
		ts, err := parseInt(row[cols[domain.ColTimestamp]])
		if err != nil {
			return nil, fmt.Errorf("trades row %d: %s: %w", i+1, domain.ColTimestamp, err)
		}
		price, err := parseFloat(row[cols[domain.ColTradePrice]])
		if err != nil {
			return nil, fmt.Errorf("trades row %d: %s: %w", i+1, domain.ColTradePrice, err)
		}
		volume, err := parseFloat(row[cols[domain.ColTradeVolume]])
		if err != nil {
			return nil, fmt.Errorf("trades row %d: %s: %w", i+1, domain.ColTradeVolume, err)
		}
		records = append(records, &domain.TradeRecord{
			Symbol:               row[cols[domain.ColSymbol]],
			Exchange:             optional(row, cols, domain.ColExchange),
			Date:                 date,
			ParticipantTimestamp: ts,
			TradePrice:           price,
			TradeVolume:          volume,
			ReportingFacility:    row[cols[domain.ColReportingFacility]],
		})
	}
	return records, nil
}

// ReadQuotes parses a raw quote extract for one trading day. The header
// row must carry the quote table's required columns; extra columns are
// ignored.
func ReadQuotes(r io.Reader, date string) ([]*domain.QuoteRecord, error) {
	rows, cols, err := readTable(r, cleaning.VerifyQuoteSchema)
	if err != nil {
		return nil, err
	}

	records := make([]*domain.QuoteRecord, 0, len(rows))
	for i, row := range rows {
		ts, err := parseInt(row[cols[domain.ColTimestamp]])
		if err != nil {
			return nil, fmt.Errorf("quotes row %d: %s: %w", i+1, domain.ColTimestamp, err)
		}
		fields := [4]float64{}
		for j, col := range [4]string{domain.ColBidPrice, domain.ColBidSize, domain.ColOfferPrice, domain.ColOfferSize} {
			v, err := parseFloat(row[cols[col]])
			if err != nil {
				return nil, fmt.Errorf("quotes row %d: %s: %w", i+1, col, err)
			}
			fields[j] = v
		}
		records = append(records, &domain.QuoteRecord{
			Symbol:               row[cols[domain.ColSymbol]],
			Exchange:             optional(row, cols, domain.ColExchange),
			Date:                 date,
			ParticipantTimestamp: ts,
			BidPrice:             fields[0],
			BidSize:              fields[1],
			OfferPrice:           fields[2],
			OfferSize:            fields[3],
		})
	}
	return records, nil
}

// readTable reads the header, verifies the schema and returns all data
// rows plus a column-name to index mapping.
func readTable(r io.Reader, verify func([]string) error) ([][]string, map[string]int, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	if err := verify(header); err != nil {
		return nil, nil, err
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, cols, nil
}

// optional reads a column that the schema does not require, returning
// the empty string when the file does not carry it.
func optional(row []string, cols map[string]int, name string) string {
	if i, ok := cols[name]; ok {
		return row[i]
	}
	return ""
}

func parseInt(v string) (int64, error) {
	return strconv.ParseInt(v, 10, 64)
}

func parseFloat(v string) (float64, error) {
	if v == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(v, 64)
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteEvents renders a reconstructed event sequence as CSV.
func WriteEvents(w io.Writer, events []*domain.Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"symbol", "timestamp", "kind",
		"trade_price", "trade_volume",
		"bid_price", "bid_size", "offer_price", "offer_size",
		"group_id", "active", "trade_side", "mid_price", "ofi_event",
	}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range events {
		active := "0"
		if e.Active {
			active = "1"
		}
		row := []string{
			e.Symbol,
			strconv.FormatInt(e.Timestamp, 10),
			string(e.Kind),
			formatFloat(e.TradePrice),
			formatFloat(e.TradeVolume),
			formatFloat(e.BidPrice),
			formatFloat(e.BidSize),
			formatFloat(e.OfferPrice),
			formatFloat(e.OfferSize),
			strconv.FormatInt(e.GroupID, 10),
			active,
			formatFloat(e.TradeSide),
			formatFloat(e.MidPrice),
			formatFloat(e.OFIEvent),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFeatureTable renders a feature table as CSV, one row per event
// with a leading timestamp column.
func WriteFeatureTable(w io.Writer, table *domain.FeatureTable) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(table.Columns)+1)
	header = append(header, "timestamp")
	for _, col := range table.Columns {
		header = append(header, col.Name)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(header))
	for i, ts := range table.Timestamps {
		row[0] = strconv.FormatInt(ts, 10)
		for j, col := range table.Columns {
			row[j+1] = formatFloat(col.Values[i])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
