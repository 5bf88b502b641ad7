package domain

// TradingDay is one entry of the market calendar. Dates use the
// "2006-01-02" form. Sessions are "HH:MM:SS" boundaries; half days
// carry an early close.
type TradingDay struct {
	Date        string
	MarketOpen  string
	MarketClose string
}
