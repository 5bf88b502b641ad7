package reconstruct

import (
	"math"

	"github.com/AMS-QF/TAQ-Data/internal/domain"
)

// ComputeOFIEvents assigns each quote its order flow imbalance
// contribution relative to the preceding quote. Bid improvements add the
// new bid depth, bid declines remove the old depth, and symmetrically on
// the offer side; an unchanged price level contributes the depth change.
// The first quote has no predecessor and stays NaN, as do all trades.
func ComputeOFIEvents(events []*domain.Event) {
	var prev *domain.Event
	for _, e := range events {
		if !e.IsQuote() {
			continue
		}
		if prev == nil {
			e.OFIEvent = math.NaN()
			prev = e
			continue
		}
		var ofi float64
		if e.BidPrice >= prev.BidPrice {
			ofi += e.BidSize
		}
		if e.BidPrice <= prev.BidPrice {
			ofi -= prev.BidSize
		}
		if e.OfferPrice <= prev.OfferPrice {
			ofi -= e.OfferSize
		}
		if e.OfferPrice >= prev.OfferPrice {
			ofi += prev.OfferSize
		}
		e.OFIEvent = ofi
		prev = e
	}
}

// Reconstruct runs the full event reconstruction over cleaned inputs:
// merge and order, fill the prevailing quote state, classify trade sides
// and attach per-quote order flow imbalance.
func Reconstruct(trades []*domain.CleanedTrade, quotes []*domain.CleanedQuote) []*domain.Event {
	events := Merge(trades, quotes)
	CarryForward(events)
	ClassifyTradeSides(events)
	ComputeOFIEvents(events)
	return events
}
