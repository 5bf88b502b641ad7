package reconstruct

import (
	"math"

	"github.com/AMS-QF/TAQ-Data/internal/domain"
)

// CarryForward fills the prevailing quote state onto every trade. Active
// quotes set the state, trades receive it. Superseded quotes neither set
// nor receive: they keep the stale fields they posted, retained for
// audit.
//
// Trades before the first active quote keep NaN quote fields. MidPrice
// is derived after the fill as (bid+offer)/2 and stays NaN while either
// side is unknown.
func CarryForward(events []*domain.Event) {
	bid, bidSz := math.NaN(), math.NaN()
	off, offSz := math.NaN(), math.NaN()

	for _, e := range events {
		switch {
		case e.IsQuote() && e.Active:
			bid, bidSz = e.BidPrice, e.BidSize
			off, offSz = e.OfferPrice, e.OfferSize
		case e.IsTrade():
			e.BidPrice, e.BidSize = bid, bidSz
			e.OfferPrice, e.OfferSize = off, offSz
		}
		e.MidPrice = (e.BidPrice + e.OfferPrice) / 2
	}
}
