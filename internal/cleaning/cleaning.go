// Package cleaning normalizes participant timestamps and removes invalid
// rows from the raw trade and quote tables. Each stream is cleaned
// independently before the merge; the merger never re-validates.
package cleaning

import (
	"fmt"

	"github.com/AMS-QF/TAQ-Data/internal/domain"
	"github.com/AMS-QF/TAQ-Data/internal/taqtime"
)

// Form-D (exempt) reporting facility, excluded from the tape.
const facilityFormD = "D"

// Drop reasons reported in Stats.
const (
	ReasonBadPrice     = "bad_price"
	ReasonBadVolume    = "bad_volume"
	ReasonFacility     = "reporting_facility"
	ReasonCrossedQuote = "crossed_quote"
	ReasonAfterHours   = "after_hours"
)

// Stats counts the rows removed by a cleaning pass, by reason.
type Stats struct {
	Kept    int
	Dropped map[string]int
}

func newStats() *Stats {
	return &Stats{Dropped: make(map[string]int)}
}

func (s *Stats) drop(reason string) {
	s.Dropped[reason]++
}

// CleanTrades resolves timestamps, trims the market session and removes
// invalid trade prints: non-positive price or volume, and Form-D facility
// reports. Row order is preserved.
//
// A participant timestamp that cannot be parsed aborts the pass: silent
// timestamp corruption would corrupt the ordering every later stage
// depends on.
func CleanTrades(records []*domain.TradeRecord, session taqtime.Session) ([]*domain.CleanedTrade, *Stats, error) {
	stats := newStats()
	out := make([]*domain.CleanedTrade, 0, len(records))

	for i, r := range records {
		date, err := taqtime.ParseDate(r.Date)
		if err != nil {
			return nil, nil, fmt.Errorf("trades row %d: %w", i, err)
		}
		ts, err := taqtime.ParseParticipant(date, r.ParticipantTimestamp)
		if err != nil {
			return nil, nil, fmt.Errorf("trades row %d: %w", i, err)
		}
		if !session.Contains(ts) {
			stats.drop(ReasonAfterHours)
			continue
		}
		if !(r.TradePrice > 0) { // also drops NaN
			stats.drop(ReasonBadPrice)
			continue
		}
		if !(r.TradeVolume > 0) {
			stats.drop(ReasonBadVolume)
			continue
		}
		if r.ReportingFacility == facilityFormD {
			stats.drop(ReasonFacility)
			continue
		}
		out = append(out, &domain.CleanedTrade{
			Symbol:    r.Symbol,
			Exchange:  r.Exchange,
			Timestamp: ts.UnixNano(),
			Price:     r.TradePrice,
			Volume:    r.TradeVolume,
		})
		stats.Kept++
	}
	return out, stats, nil
}

// CleanQuotes resolves timestamps, trims the market session and removes
// invalid quote updates: non-positive bids and crossed or locked markets
// (offer at or below bid). Row order is preserved.
func CleanQuotes(records []*domain.QuoteRecord, session taqtime.Session) ([]*domain.CleanedQuote, *Stats, error) {
	stats := newStats()
	out := make([]*domain.CleanedQuote, 0, len(records))

	for i, r := range records {
		date, err := taqtime.ParseDate(r.Date)
		if err != nil {
			return nil, nil, fmt.Errorf("quotes row %d: %w", i, err)
		}
		ts, err := taqtime.ParseParticipant(date, r.ParticipantTimestamp)
		if err != nil {
			return nil, nil, fmt.Errorf("quotes row %d: %w", i, err)
		}
		if !session.Contains(ts) {
			stats.drop(ReasonAfterHours)
			continue
		}
		if !(r.BidPrice > 0) { // also drops NaN
			stats.drop(ReasonBadPrice)
			continue
		}
		if !(r.OfferPrice > r.BidPrice) {
			stats.drop(ReasonCrossedQuote)
			continue
		}
		out = append(out, &domain.CleanedQuote{
			Symbol:     r.Symbol,
			Exchange:   r.Exchange,
			Timestamp:  ts.UnixNano(),
			BidPrice:   r.BidPrice,
			BidSize:    r.BidSize,
			OfferPrice: r.OfferPrice,
			OfferSize:  r.OfferSize,
		})
		stats.Kept++
	}
	return out, stats, nil
}
