package domain

// EventKind distinguishes trade prints from quote updates in the merged
// event sequence.
type EventKind string

// Event kinds.
const (
	EventTrade EventKind = "T"
	EventQuote EventKind = "Q"
)

// Event is the unit record of the reconstructed sequence: one trade print
// or one BBO update, ordered by timestamp, with the prevailing quote state
// carried onto every row.
//
// Numeric fields that are not defined for a row hold NaN: TradePrice and
// TradeVolume on quotes, Bid/Offer fields before the first active quote,
// TradeSide on quotes and on trades with a null price. Storage backends
// translate NaN to SQL NULL and back.
type Event struct {
	Symbol    string    // ticker symbol
	Timestamp int64     // absolute time, Unix nanoseconds
	Kind      EventKind // trade or quote

	TradePrice  float64 // execution price, NaN for quotes
	TradeVolume float64 // executed quantity, NaN for quotes

	BidPrice   float64 // prevailing (or literal, for quotes) bid price
	BidSize    float64 // prevailing bid size
	OfferPrice float64 // prevailing offer price
	OfferSize  float64 // prevailing offer size

	GroupID int64 // MOX identifier: shared by all events at this timestamp
	Active  bool  // true for the single prevailing quote of a group

	TradeSide float64 // +1 buy / -1 sell from the tick test, NaN if undefined
	MidPrice  float64 // (BidPrice+OfferPrice)/2 after carry-forward
	OFIEvent  float64 // order-flow-imbalance contribution of this quote update
}

// IsTrade reports whether the event is a trade print.
func (e *Event) IsTrade() bool { return e.Kind == EventTrade }

// IsQuote reports whether the event is a quote update.
func (e *Event) IsQuote() bool { return e.Kind == EventQuote }
