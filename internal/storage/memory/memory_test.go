package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/AMS-QF/TAQ-Data/internal/domain"
	"github.com/AMS-QF/TAQ-Data/internal/storage"
)

func TestTaqSource_SeedAndRead(t *testing.T) {
	source := NewTaqSource()
	ctx := context.Background()

	source.AddTrades(
		&domain.TradeRecord{Symbol: "IBM", Date: "2017-01-03", ParticipantTimestamp: 93000000000000, TradePrice: 100, TradeVolume: 10},
		&domain.TradeRecord{Symbol: "IBM", Date: "2017-01-03", ParticipantTimestamp: 93001000000000, TradePrice: 101, TradeVolume: 20},
	)
	source.AddQuotes(
		&domain.QuoteRecord{Symbol: "IBM", Date: "2017-01-03", ParticipantTimestamp: 93000500000000, BidPrice: 99, OfferPrice: 101},
	)

	trades, err := source.Trades(ctx, "IBM", "2017-01-03")
	if err != nil {
		t.Fatalf("Trades failed: %v", err)
	}
	if len(trades) != 2 {
		t.Errorf("Expected 2 trades, got %d", len(trades))
	}
	if trades[0].TradePrice != 100 {
		t.Errorf("Seed order not preserved: got %f", trades[0].TradePrice)
	}

	quotes, err := source.Quotes(ctx, "IBM", "2017-01-03")
	if err != nil {
		t.Fatalf("Quotes failed: %v", err)
	}
	if len(quotes) != 1 {
		t.Errorf("Expected 1 quote, got %d", len(quotes))
	}

	// Other partitions are empty, not errors.
	other, err := source.Trades(ctx, "IBM", "2017-01-04")
	if err != nil || len(other) != 0 {
		t.Errorf("Expected empty partition, got %d rows, err %v", len(other), err)
	}
}

func TestEventStore_InsertAndGet(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	events := []*domain.Event{
		{Symbol: "IBM", Timestamp: 1000, Kind: domain.EventTrade, TradePrice: 100, TradeVolume: 10},
		{Symbol: "IBM", Timestamp: 2000, Kind: domain.EventQuote, BidPrice: 99, OfferPrice: 101},
	}
	if err := store.InsertBulk(ctx, "2017-01-03", events); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetBySymbolDate(ctx, "IBM", "2017-01-03")
	if err != nil {
		t.Fatalf("GetBySymbolDate failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(result))
	}
	if result[0].TradePrice != 100 {
		t.Errorf("Sequence order not preserved: got %f", result[0].TradePrice)
	}

	// Stored events are copies.
	result[0].TradePrice = 0
	again, _ := store.GetBySymbolDate(ctx, "IBM", "2017-01-03")
	if again[0].TradePrice != 100 {
		t.Error("Store leaked a mutable reference")
	}
}

func TestEventStore_DuplicatePartition(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	events := []*domain.Event{{Symbol: "IBM", Timestamp: 1000, Kind: domain.EventTrade}}
	if err := store.InsertBulk(ctx, "2017-01-03", events); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := store.InsertBulk(ctx, "2017-01-03", events); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestEventStore_GetByTimeRange(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	day1 := []*domain.Event{
		{Symbol: "IBM", Timestamp: 1000, Kind: domain.EventTrade},
		{Symbol: "IBM", Timestamp: 2000, Kind: domain.EventTrade},
	}
	day2 := []*domain.Event{
		{Symbol: "IBM", Timestamp: 5000, Kind: domain.EventTrade},
	}
	if err := store.InsertBulk(ctx, "2017-01-03", day1); err != nil {
		t.Fatal(err)
	}
	if err := store.InsertBulk(ctx, "2017-01-04", day2); err != nil {
		t.Fatal(err)
	}
	store.InsertBulk(ctx, "2017-01-03", []*domain.Event{{Symbol: "MSFT", Timestamp: 1500, Kind: domain.EventTrade}})

	result, err := store.GetByTimeRange(ctx, "IBM", 1500, 5000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(result))
	}
	if result[0].Timestamp != 2000 || result[1].Timestamp != 5000 {
		t.Errorf("Wrong events or order: %d, %d", result[0].Timestamp, result[1].Timestamp)
	}
}

func TestEventStore_GetMissingPartition(t *testing.T) {
	store := NewEventStore()
	if _, err := store.GetBySymbolDate(context.Background(), "IBM", "2017-01-03"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestFeatureStore_InsertAndGet(t *testing.T) {
	store := NewFeatureStore()
	ctx := context.Background()

	table := &domain.FeatureTable{
		Symbol:     "IBM",
		Date:       "2017-01-03",
		Timestamps: []int64{1000, 2000},
		Columns: []domain.FeatureColumn{
			{Name: "VolumeAll_0.1_0.5", Values: []float64{10, 20}},
		},
	}
	if err := store.InsertTable(ctx, table); err != nil {
		t.Fatalf("InsertTable failed: %v", err)
	}

	result, err := store.GetTable(ctx, "IBM", "2017-01-03")
	if err != nil {
		t.Fatalf("GetTable failed: %v", err)
	}
	col := result.Column("VolumeAll_0.1_0.5")
	if col == nil || col.Values[1] != 20 {
		t.Errorf("Column lookup failed: %+v", col)
	}

	if err := store.InsertTable(ctx, table); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	if _, err := store.GetTable(ctx, "IBM", "2017-01-04"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCalendarStore(t *testing.T) {
	store := NewCalendarStore()
	ctx := context.Background()

	days := []*domain.TradingDay{
		{Date: "2017-01-03", MarketOpen: "09:30:00", MarketClose: "16:00:00"},
		{Date: "2017-01-04", MarketOpen: "09:30:00", MarketClose: "16:00:00"},
		{Date: "2017-07-03", MarketOpen: "09:30:00", MarketClose: "13:00:00"}, // half day
	}
	for _, d := range days {
		if err := store.Insert(ctx, d); err != nil {
			t.Fatalf("Insert %s failed: %v", d.Date, err)
		}
	}

	if err := store.Insert(ctx, days[0]); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	day, err := store.GetByDate(ctx, "2017-07-03")
	if err != nil {
		t.Fatalf("GetByDate failed: %v", err)
	}
	if day.MarketClose != "13:00:00" {
		t.Errorf("MarketClose = %s, want 13:00:00", day.MarketClose)
	}

	if _, err := store.GetByDate(ctx, "2017-01-01"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for holiday, got %v", err)
	}

	r, err := store.GetRange(ctx, "2017-01-01", "2017-01-31")
	if err != nil {
		t.Fatalf("GetRange failed: %v", err)
	}
	if len(r) != 2 || r[0].Date != "2017-01-03" || r[1].Date != "2017-01-04" {
		t.Errorf("GetRange wrong: %+v", r)
	}
}
