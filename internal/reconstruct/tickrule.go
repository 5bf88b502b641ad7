package reconstruct

import (
	"math"

	"github.com/AMS-QF/TAQ-Data/internal/domain"
)

// tickState tracks the classifier between trades. Zero ticks inherit the
// direction of the last directional move, so the state distinguishes
// plain ticks from zero ticks even though both map to the same sign.
type tickState int

const (
	tickUndefined tickState = iota
	tickUp
	tickDown
	tickZeroUp
	tickZeroDown
)

func (s tickState) sign() float64 {
	switch s {
	case tickUp, tickZeroUp:
		return 1
	case tickDown, tickZeroDown:
		return -1
	default:
		return math.NaN()
	}
}

// ClassifyTradeSides assigns every trade a tick-test side from the price
// path: +1 buyer-initiated, -1 seller-initiated. The reference price
// starts at zero, so the first trade with a positive price classifies as
// an uptick. A trade at the previous price inherits the prior direction
// as a zero tick; zero ticks before any directional move stay undefined
// (NaN). A NaN trade price yields a NaN side and leaves the classifier
// state untouched. Quote events are skipped.
func ClassifyTradeSides(events []*domain.Event) {
	prevPrice := 0.0
	state := tickUndefined

	for _, e := range events {
		if !e.IsTrade() {
			continue
		}
		p := e.TradePrice
		if math.IsNaN(p) {
			e.TradeSide = math.NaN()
			continue
		}
		switch {
		case p > prevPrice:
			state = tickUp
		case p < prevPrice:
			state = tickDown
		case state == tickUp || state == tickZeroUp:
			state = tickZeroUp
		case state == tickDown || state == tickZeroDown:
			state = tickZeroDown
		}
		e.TradeSide = state.sign()
		prevPrice = p
	}
}
