package domain

// TradeRecord is a raw trade print as delivered by the TAQ source,
// before timestamp normalization and cleaning.
type TradeRecord struct {
	Symbol               string  // ticker symbol
	Exchange             string  // reporting exchange code
	Date                 string  // trading date, "2006-01-02"
	ParticipantTimestamp int64   // packed intraday offset, HHMMSSmmmuuunnn digits
	TradePrice           float64 // execution price
	TradeVolume          float64 // executed share quantity
	ReportingFacility    string  // trade reporting facility code
}

// QuoteRecord is a raw BBO update as delivered by the TAQ source.
type QuoteRecord struct {
	Symbol               string  // ticker symbol
	Exchange             string  // quoting exchange code
	Date                 string  // trading date, "2006-01-02"
	ParticipantTimestamp int64   // packed intraday offset, HHMMSSmmmuuunnn digits
	BidPrice             float64 // best bid price
	BidSize              float64 // best bid size
	OfferPrice           float64 // best offer price
	OfferSize            float64 // best offer size
}

// CleanedTrade is a trade print that survived cleaning, with its
// participant timestamp resolved to an absolute time.
type CleanedTrade struct {
	Symbol    string
	Exchange  string
	Timestamp int64 // Unix nanoseconds
	Price     float64
	Volume    float64
}

// CleanedQuote is a BBO update that survived cleaning, with its
// participant timestamp resolved to an absolute time.
type CleanedQuote struct {
	Symbol     string
	Exchange   string
	Timestamp  int64 // Unix nanoseconds
	BidPrice   float64
	BidSize    float64
	OfferPrice float64
	OfferSize  float64
}

// Column names of the logical trade and quote tables. Sources report the
// column set they actually carry so the cleaner can verify it.
const (
	ColTimestamp         = "participant_timestamp"
	ColSymbol            = "symbol"
	ColExchange          = "exchange"
	ColTradePrice        = "trade_price"
	ColTradeVolume       = "trade_volume"
	ColReportingFacility = "reporting_facility"
	ColBidPrice          = "bid_price"
	ColBidSize           = "bid_size"
	ColOfferPrice        = "offer_price"
	ColOfferSize         = "offer_size"
)
