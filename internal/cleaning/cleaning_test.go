package cleaning

import (
	"errors"
	"math"
	"testing"

	"github.com/AMS-QF/TAQ-Data/internal/domain"
	"github.com/AMS-QF/TAQ-Data/internal/taqtime"
)

var marketSession = taqtime.MustSession(taqtime.DefaultMarketOpen, taqtime.DefaultMarketClose)

func rawTrade(packed int64, price, volume float64, facility string) *domain.TradeRecord {
	return &domain.TradeRecord{
		Symbol:               "TEST",
		Date:                 "2017-01-03",
		ParticipantTimestamp: packed,
		TradePrice:           price,
		TradeVolume:          volume,
		ReportingFacility:    facility,
	}
}

func rawQuote(packed int64, bid, offer float64) *domain.QuoteRecord {
	return &domain.QuoteRecord{
		Symbol:               "TEST",
		Date:                 "2017-01-03",
		ParticipantTimestamp: packed,
		BidPrice:             bid,
		BidSize:              10,
		OfferPrice:           offer,
		OfferSize:            10,
	}
}

func TestCleanTrades(t *testing.T) {
	records := []*domain.TradeRecord{
		rawTrade(100000000000000, 10.0, 100, ""),  // 10:00, kept
		rawTrade(90000000000000, 10.0, 100, ""),   // 09:00, before open
		rawTrade(103000000000000, 0, 100, ""),     // zero price
		rawTrade(103000000000000, -1, 100, ""),    // negative price
		rawTrade(103000000000000, 10.0, 0, ""),    // zero volume
		rawTrade(103000000000000, 10.0, 100, "D"), // Form D
		rawTrade(110000000000000, 11.0, 50, "N"),  // kept
	}
	cleaned, stats, err := CleanTrades(records, marketSession)
	if err != nil {
		t.Fatal(err)
	}
	if len(cleaned) != 2 {
		t.Fatalf("kept %d trades, want 2", len(cleaned))
	}
	if stats.Kept != 2 {
		t.Errorf("stats.Kept = %d, want 2", stats.Kept)
	}
	wantDropped := map[string]int{
		ReasonAfterHours: 1,
		ReasonBadPrice:   2,
		ReasonBadVolume:  1,
		ReasonFacility:   1,
	}
	for reason, want := range wantDropped {
		if got := stats.Dropped[reason]; got != want {
			t.Errorf("dropped[%s] = %d, want %d", reason, got, want)
		}
	}
	// Order preserved.
	if cleaned[0].Price != 10.0 || cleaned[1].Price != 11.0 {
		t.Errorf("cleaned order wrong: %v, %v", cleaned[0].Price, cleaned[1].Price)
	}
}

func TestCleanTradesDropsNaN(t *testing.T) {
	records := []*domain.TradeRecord{
		rawTrade(100000000000000, math.NaN(), 100, ""),
		rawTrade(100000000000000, 10.0, math.NaN(), ""),
	}
	cleaned, _, err := CleanTrades(records, marketSession)
	if err != nil {
		t.Fatal(err)
	}
	if len(cleaned) != 0 {
		t.Errorf("kept %d NaN trades, want 0", len(cleaned))
	}
}

func TestCleanTradesSessionBoundariesInclusive(t *testing.T) {
	records := []*domain.TradeRecord{
		rawTrade(93000000000000, 10.0, 100, ""),  // exactly 09:30
		rawTrade(160000000000000, 10.0, 100, ""), // exactly 16:00
	}
	cleaned, _, err := CleanTrades(records, marketSession)
	if err != nil {
		t.Fatal(err)
	}
	if len(cleaned) != 2 {
		t.Errorf("kept %d boundary trades, want 2", len(cleaned))
	}
}

func TestCleanTradesMalformedTimestampFatal(t *testing.T) {
	records := []*domain.TradeRecord{
		rawTrade(100000000000000, 10.0, 100, ""),
		rawTrade(250000000000000, 10.0, 100, ""), // hour 25
	}
	_, _, err := CleanTrades(records, marketSession)
	var malformed *taqtime.MalformedTimestampError
	if !errors.As(err, &malformed) {
		t.Fatalf("got %v, want MalformedTimestampError", err)
	}
}

func TestCleanQuotes(t *testing.T) {
	records := []*domain.QuoteRecord{
		rawQuote(100000000000000, 9.9, 10.1),  // kept
		rawQuote(100000000000000, 0, 10.1),    // zero bid
		rawQuote(100000000000000, 10.1, 9.9),  // crossed
		rawQuote(100000000000000, 10.0, 10.0), // locked
		rawQuote(170000000000000, 9.9, 10.1),  // after close
	}
	cleaned, stats, err := CleanQuotes(records, marketSession)
	if err != nil {
		t.Fatal(err)
	}
	if len(cleaned) != 1 {
		t.Fatalf("kept %d quotes, want 1", len(cleaned))
	}
	if stats.Dropped[ReasonCrossedQuote] != 2 {
		t.Errorf("dropped[%s] = %d, want 2", ReasonCrossedQuote, stats.Dropped[ReasonCrossedQuote])
	}
	if stats.Dropped[ReasonBadPrice] != 1 {
		t.Errorf("dropped[%s] = %d, want 1", ReasonBadPrice, stats.Dropped[ReasonBadPrice])
	}
}

func TestTrimRegularSession(t *testing.T) {
	regular := taqtime.MustSession(taqtime.DefaultRegularOpen, taqtime.DefaultRegularClose)
	records := []*domain.TradeRecord{
		rawTrade(93000000000000, 10.0, 100, ""),  // 09:30, inside both sessions
		rawTrade(155000000000000, 10.0, 100, ""), // 15:50, market only
	}
	cleaned, _, err := CleanTrades(records, marketSession)
	if err != nil {
		t.Fatal(err)
	}
	trimmed := TrimTrades(cleaned, regular)
	if len(trimmed) != 1 {
		t.Fatalf("kept %d trades after regular trim, want 1", len(trimmed))
	}
	if trimmed[0].Timestamp != cleaned[0].Timestamp {
		t.Error("wrong trade survived the regular trim")
	}
}

func TestVerifySchemas(t *testing.T) {
	if err := VerifyTradeSchema([]string{
		domain.ColTimestamp, domain.ColSymbol, domain.ColExchange,
		domain.ColTradePrice, domain.ColTradeVolume, domain.ColReportingFacility,
	}); err != nil {
		t.Errorf("complete trade schema rejected: %v", err)
	}

	err := VerifyTradeSchema([]string{domain.ColTimestamp, domain.ColSymbol})
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("got %v, want SchemaError", err)
	}
	if schemaErr.Table != "trades" {
		t.Errorf("schema error table = %q, want trades", schemaErr.Table)
	}

	err = VerifyQuoteSchema([]string{domain.ColTimestamp})
	if !errors.As(err, &schemaErr) {
		t.Fatalf("got %v, want SchemaError", err)
	}
}
