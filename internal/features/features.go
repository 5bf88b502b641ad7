// Package features computes lookback statistics over a reconstructed
// event sequence. A Generator owns one sequence plus a window indexer
// and memoizes every computed column per window spec, so statistics that
// share an input (VolumeAll feeds VolumeAvg, Lambda and TxnImbalance)
// are computed once.
//
// NaN propagation is strict: a NaN anywhere in a statistic's inputs
// (undefined mid price, undefined trade side, missing book state) makes
// that row's statistic NaN instead of being skipped or zeroed.
package features

import (
	"fmt"
	"math"
	"strconv"

	"github.com/AMS-QF/TAQ-Data/internal/domain"
	"github.com/AMS-QF/TAQ-Data/internal/window"
)

// Statistic names, as they appear in feature column names.
const (
	StatBreadth         = "Breadth"
	StatImmediacy       = "Immediacy"
	StatVolumeAll       = "VolumeAll"
	StatVolumeAvg       = "VolumeAvg"
	StatVolumeMax       = "VolumeMax"
	StatLambda          = "Lambda"
	StatLobImbalance    = "LobImbalance"
	StatTxnImbalance    = "TxnImbalance"
	StatPastReturn      = "PastReturn"
	StatQuotedSpread    = "QuotedSpread"
	StatEffectiveSpread = "EffectiveSpread"
	StatAutoCov         = "AutoCov"
	StatOFI             = "OFI"
)

// AllStatistics lists every windowed statistic in output order.
var AllStatistics = []string{
	StatBreadth, StatImmediacy, StatVolumeAll, StatVolumeAvg, StatVolumeMax,
	StatLambda, StatLobImbalance, StatTxnImbalance, StatPastReturn,
	StatQuotedSpread, StatEffectiveSpread, StatAutoCov, StatOFI,
}

// Generator computes feature columns over one event sequence.
type Generator struct {
	events  []*domain.Event
	indexer *window.Indexer

	// autoProducts[i] is log(p_i/p_prev)*log(p_prev/p_prevprev) over
	// the trade subsequence, NaN for quotes and the first two trades.
	autoProducts []float64

	cache map[window.Spec]map[string][]float64
}

// NewGenerator builds a generator over a timestamp-ordered sequence.
func NewGenerator(events []*domain.Event) *Generator {
	return &Generator{
		events:       events,
		indexer:      window.NewIndexer(events),
		autoProducts: autoCovProducts(events),
		cache:        make(map[window.Spec]map[string][]float64),
	}
}

// Name renders the output column name for one statistic under one spec:
// the statistic, the two deltas, and a mode suffix for non-calendar
// windows, e.g. "VolumeAll_0.1_0.5" or "Breadth_1_5_txn".
func Name(stat string, spec window.Spec) string {
	return stat + "_" +
		strconv.FormatFloat(spec.Delta1, 'g', -1, 64) + "_" +
		strconv.FormatFloat(spec.Delta2, 'g', -1, 64) +
		spec.Suffix()
}

// Columns computes the requested statistics under one window spec,
// returned in request order.
func (g *Generator) Columns(spec window.Spec, stats []string) ([]domain.FeatureColumn, error) {
	intervals, err := g.indexer.Intervals(spec)
	if err != nil {
		return nil, err
	}
	out := make([]domain.FeatureColumn, 0, len(stats))
	for _, stat := range stats {
		values, err := g.column(spec, intervals, stat)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.FeatureColumn{Name: Name(stat, spec), Values: values})
	}
	return out, nil
}

// Table computes full statistic sets for several window specs joined on
// the event sequence's timestamps.
func (g *Generator) Table(symbol, date string, specs []window.Spec, stats []string) (*domain.FeatureTable, error) {
	table := &domain.FeatureTable{
		Symbol:     symbol,
		Date:       date,
		Timestamps: make([]int64, len(g.events)),
	}
	for i, e := range g.events {
		table.Timestamps[i] = e.Timestamp
	}
	for _, spec := range specs {
		cols, err := g.Columns(spec, stats)
		if err != nil {
			return nil, err
		}
		table.Columns = append(table.Columns, cols...)
	}
	return table, nil
}

func (g *Generator) column(spec window.Spec, intervals []window.Interval, stat string) ([]float64, error) {
	if memo, ok := g.cache[spec]; ok {
		if values, ok := memo[stat]; ok {
			return values, nil
		}
	} else {
		g.cache[spec] = make(map[string][]float64)
	}

	var values []float64
	switch stat {
	case StatBreadth:
		values = g.breadth(intervals)
	case StatImmediacy:
		breadth, err := g.column(spec, intervals, StatBreadth)
		if err != nil {
			return nil, err
		}
		values = immediacy(breadth, spec)
	case StatVolumeAll:
		values = g.volumeAll(intervals)
	case StatVolumeAvg:
		volumeAll, err := g.column(spec, intervals, StatVolumeAll)
		if err != nil {
			return nil, err
		}
		breadth, err := g.column(spec, intervals, StatBreadth)
		if err != nil {
			return nil, err
		}
		values = ratio(volumeAll, breadth)
	case StatVolumeMax:
		values = g.volumeMax(intervals)
	case StatLambda:
		volumeAll, err := g.column(spec, intervals, StatVolumeAll)
		if err != nil {
			return nil, err
		}
		values = g.lambda(intervals, volumeAll)
	case StatLobImbalance:
		values = g.lobImbalance(intervals)
	case StatTxnImbalance:
		volumeAll, err := g.column(spec, intervals, StatVolumeAll)
		if err != nil {
			return nil, err
		}
		values = g.txnImbalance(intervals, volumeAll)
	case StatPastReturn:
		values = g.pastReturn(intervals)
	case StatQuotedSpread:
		values = g.quotedSpread(intervals)
	case StatEffectiveSpread:
		values = g.effectiveSpread(intervals)
	case StatAutoCov:
		values = g.autoCov(intervals)
	case StatOFI:
		values = g.ofi(intervals)
	default:
		return nil, fmt.Errorf("features: unknown statistic %q", stat)
	}
	g.cache[spec][stat] = values
	return values, nil
}

func (g *Generator) breadth(intervals []window.Interval) []float64 {
	out := make([]float64, len(intervals))
	for i, iv := range intervals {
		if !iv.Valid {
			out[i] = math.NaN()
			continue
		}
		count := 0.0
		for j := iv.Start; j <= iv.End; j++ {
			if g.events[j].IsTrade() {
				count++
			}
		}
		out[i] = count
	}
	return out
}

func immediacy(breadth []float64, spec window.Spec) []float64 {
	width := spec.Delta2 - spec.Delta1
	out := make([]float64, len(breadth))
	for i, b := range breadth {
		if b == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = width / b
	}
	return out
}

func (g *Generator) volumeAll(intervals []window.Interval) []float64 {
	out := make([]float64, len(intervals))
	for i, iv := range intervals {
		if !iv.Valid {
			out[i] = math.NaN()
			continue
		}
		sum := 0.0
		for j := iv.Start; j <= iv.End; j++ {
			if g.events[j].IsTrade() {
				sum += g.events[j].TradeVolume
			}
		}
		out[i] = sum
	}
	return out
}

// ratio divides elementwise; 0/0 and NaN inputs yield NaN.
func ratio(num, den []float64) []float64 {
	out := make([]float64, len(num))
	for i := range num {
		out[i] = num[i] / den[i]
	}
	return out
}

func (g *Generator) volumeMax(intervals []window.Interval) []float64 {
	out := make([]float64, len(intervals))
	for i, iv := range intervals {
		max := math.NaN()
		if iv.Valid {
			for j := iv.Start; j <= iv.End; j++ {
				e := g.events[j]
				if e.IsTrade() && !(e.TradeVolume <= max) {
					max = e.TradeVolume
				}
			}
		}
		out[i] = max
	}
	return out
}

func (g *Generator) lambda(intervals []window.Interval, volumeAll []float64) []float64 {
	out := make([]float64, len(intervals))
	for i, iv := range intervals {
		if !iv.Valid || volumeAll[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		lo, hi := math.NaN(), math.NaN()
		for j := iv.Start; j <= iv.End; j++ {
			e := g.events[j]
			if !e.IsTrade() {
				continue
			}
			if !(e.TradePrice >= lo) {
				lo = e.TradePrice
			}
			if !(e.TradePrice <= hi) {
				hi = e.TradePrice
			}
		}
		out[i] = (hi - lo) / volumeAll[i]
	}
	return out
}

func (g *Generator) lobImbalance(intervals []window.Interval) []float64 {
	out := make([]float64, len(intervals))
	for i, iv := range intervals {
		if !iv.Valid {
			out[i] = math.NaN()
			continue
		}
		sum, count := 0.0, 0.0
		for j := iv.Start; j <= iv.End; j++ {
			e := g.events[j]
			sum += (e.OfferSize - e.BidSize) / (e.OfferSize + e.BidSize)
			count++
		}
		out[i] = sum / count
	}
	return out
}

func (g *Generator) txnImbalance(intervals []window.Interval, volumeAll []float64) []float64 {
	out := make([]float64, len(intervals))
	for i, iv := range intervals {
		if !iv.Valid || volumeAll[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		sum := 0.0
		for j := iv.Start; j <= iv.End; j++ {
			e := g.events[j]
			if e.IsTrade() {
				sum += e.TradeVolume * e.TradeSide
			}
		}
		out[i] = sum / volumeAll[i]
	}
	return out
}

func (g *Generator) pastReturn(intervals []window.Interval) []float64 {
	out := make([]float64, len(intervals))
	for i, iv := range intervals {
		if !iv.Valid {
			out[i] = math.NaN()
			continue
		}
		sum, count, max := 0.0, 0.0, math.NaN()
		for j := iv.Start; j <= iv.End; j++ {
			e := g.events[j]
			if !e.IsTrade() {
				continue
			}
			sum += e.TradePrice
			count++
			if !(e.TradePrice <= max) {
				max = e.TradePrice
			}
		}
		out[i] = 1 - (sum/count)/max
	}
	return out
}

func (g *Generator) quotedSpread(intervals []window.Interval) []float64 {
	out := make([]float64, len(intervals))
	for i, iv := range intervals {
		if !iv.Valid {
			out[i] = math.NaN()
			continue
		}
		sum, count := 0.0, 0.0
		for j := iv.Start; j <= iv.End; j++ {
			e := g.events[j]
			if !e.IsQuote() {
				continue
			}
			sum += (e.OfferPrice - e.BidPrice) / e.MidPrice
			count++
		}
		if count == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / count
	}
	return out
}

func (g *Generator) effectiveSpread(intervals []window.Interval) []float64 {
	out := make([]float64, len(intervals))
	for i, iv := range intervals {
		if !iv.Valid {
			out[i] = math.NaN()
			continue
		}
		num, den := 0.0, 0.0
		for j := iv.Start; j <= iv.End; j++ {
			e := g.events[j]
			if !e.IsTrade() {
				continue
			}
			notional := e.TradeVolume * e.TradePrice
			num += math.Log(e.TradePrice/e.MidPrice) * e.TradeSide * notional
			den += notional
		}
		if den == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = num / den
	}
	return out
}

// autoCovProducts precomputes, per trade, the product of its two most
// recent consecutive log returns. The first two trades and every quote
// stay NaN.
func autoCovProducts(events []*domain.Event) []float64 {
	out := make([]float64, len(events))
	prev, prevPrev := math.NaN(), math.NaN()
	for i, e := range events {
		out[i] = math.NaN()
		if !e.IsTrade() {
			continue
		}
		p := e.TradePrice
		if !math.IsNaN(prev) && !math.IsNaN(prevPrev) {
			out[i] = math.Log(p/prev) * math.Log(prev/prevPrev)
		}
		prevPrev, prev = prev, p
	}
	return out
}

// autoCov averages the per-trade log-return products over the window's
// trades. Trades without two predecessors are skipped rather than
// propagated; a window with no eligible trade is NaN.
func (g *Generator) autoCov(intervals []window.Interval) []float64 {
	out := make([]float64, len(intervals))
	for i, iv := range intervals {
		if !iv.Valid {
			out[i] = math.NaN()
			continue
		}
		sum, count := 0.0, 0.0
		for j := iv.Start; j <= iv.End; j++ {
			if p := g.autoProducts[j]; !math.IsNaN(p) {
				sum += p
				count++
			}
		}
		if count == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / count
	}
	return out
}

// ofi sums each window's per-quote order flow imbalance contributions.
// Quotes without a predecessor are skipped; a window with no
// contributing quote is NaN.
func (g *Generator) ofi(intervals []window.Interval) []float64 {
	out := make([]float64, len(intervals))
	for i, iv := range intervals {
		if !iv.Valid {
			out[i] = math.NaN()
			continue
		}
		sum := 0.0
		seen := false
		for j := iv.Start; j <= iv.End; j++ {
			e := g.events[j]
			if e.IsQuote() && !math.IsNaN(e.OFIEvent) {
				sum += e.OFIEvent
				seen = true
			}
		}
		if !seen {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum
	}
	return out
}

// ForwardReturn computes, per row, the mean trade price over the span
// [t, t+horizon] divided by the row's own mid price, minus one. The row
// itself is included when it is a trade. Horizon is in seconds. Rows
// with no trade in the span or an undefined mid are NaN.
func (g *Generator) ForwardReturn(horizon float64) domain.FeatureColumn {
	n := len(g.events)
	values := make([]float64, n)
	span := int64(horizon * 1e9)

	end := 0
	for i, e := range g.events {
		if end < i+1 {
			end = i + 1
		}
		limit := e.Timestamp + span
		for end < n && g.events[end].Timestamp <= limit {
			end++
		}
		sum, count := 0.0, 0.0
		for j := i; j < end; j++ {
			if g.events[j].IsTrade() {
				sum += g.events[j].TradePrice
				count++
			}
		}
		if count == 0 {
			values[i] = math.NaN()
			continue
		}
		values[i] = (sum/count)/e.MidPrice - 1
	}
	return domain.FeatureColumn{
		Name:   "Return_" + strconv.FormatFloat(horizon, 'g', -1, 64),
		Values: values,
	}
}
