// Package reconstruct merges cleaned trade and quote streams into one
// causally ordered event sequence: stable timestamp ordering, MOX group
// identifiers, active-quote selection, prevailing-quote carry-forward and
// tick-test trade sides.
package reconstruct

import (
	"math"
	"sort"

	"github.com/AMS-QF/TAQ-Data/internal/domain"
)

// Merge concatenates cleaned trades and quotes into a single sequence
// sorted by timestamp. The sort is stable: events sharing a timestamp keep
// their pre-sort relative order, trades first only because trades are
// concatenated first within their own stream; no tie-break on kind is
// applied. Empty inputs yield an empty sequence.
//
// After sorting, every event carries its MOX group id (dense rank of its
// distinct timestamp) and at most one quote per group is marked active:
// the last-arriving quote of the group supersedes earlier same-instant
// updates.
func Merge(trades []*domain.CleanedTrade, quotes []*domain.CleanedQuote) []*domain.Event {
	events := make([]*domain.Event, 0, len(trades)+len(quotes))

	for _, t := range trades {
		events = append(events, &domain.Event{
			Symbol:      t.Symbol,
			Timestamp:   t.Timestamp,
			Kind:        domain.EventTrade,
			TradePrice:  t.Price,
			TradeVolume: t.Volume,
			BidPrice:    math.NaN(),
			BidSize:     math.NaN(),
			OfferPrice:  math.NaN(),
			OfferSize:   math.NaN(),
			TradeSide:   math.NaN(),
			MidPrice:    math.NaN(),
			OFIEvent:    math.NaN(),
		})
	}
	for _, q := range quotes {
		events = append(events, &domain.Event{
			Symbol:      q.Symbol,
			Timestamp:   q.Timestamp,
			Kind:        domain.EventQuote,
			TradePrice:  math.NaN(),
			TradeVolume: math.NaN(),
			BidPrice:    q.BidPrice,
			BidSize:     q.BidSize,
			OfferPrice:  q.OfferPrice,
			OfferSize:   q.OfferSize,
			TradeSide:   math.NaN(),
			MidPrice:    math.NaN(),
			OFIEvent:    math.NaN(),
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp < events[j].Timestamp
	})

	assignGroupIDs(events)
	markActiveQuotes(events)

	return events
}

// assignGroupIDs factorizes the sorted timestamp column: the first
// distinct timestamp gets id 0, the next distinct timestamp id 1, and so
// on. Requires events sorted by timestamp.
func assignGroupIDs(events []*domain.Event) {
	var id int64 = -1
	var prev int64
	for i, e := range events {
		if i == 0 || e.Timestamp != prev {
			id++
			prev = e.Timestamp
		}
		e.GroupID = id
	}
}

// markActiveQuotes marks, within each group, the last-arriving quote as
// the one prevailing quote for that instant. Earlier same-group quotes
// stay inactive: they are superseded updates retained for audit only.
func markActiveQuotes(events []*domain.Event) {
	lastQuote := make(map[int64]int)
	for i, e := range events {
		e.Active = false
		if e.IsQuote() {
			lastQuote[e.GroupID] = i
		}
	}
	for _, i := range lastQuote {
		events[i].Active = true
	}
}
