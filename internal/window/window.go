// Package window computes lookback index intervals over a reconstructed
// event sequence. A window is defined by a mode and two offsets delta1
// (inner bound) and delta2 (outer bound) and selects, for every row, the
// contiguous index range of events falling between the two bounds.
//
// All three modes share one boundary convention: an event at index j
// belongs to row T's window when its cumulative measure lies in
// (m(T)-delta2, m(T)-delta1], right-inclusive and left-exclusive. The
// measure is the raw timestamp in calendar mode, the inclusive trade
// count in transaction mode and the inclusive cumulative trade volume in
// volume mode.
package window

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/AMS-QF/TAQ-Data/internal/domain"
	"github.com/AMS-QF/TAQ-Data/internal/observability"
)

// Mode selects how window width is measured.
type Mode string

const (
	// ModeCalendar measures width in wall-clock seconds.
	ModeCalendar Mode = "calendar"
	// ModeTransaction measures width in trade counts.
	ModeTransaction Mode = "transaction"
	// ModeVolume measures width in cumulative traded volume.
	ModeVolume Mode = "volume"
)

// ErrInvalidBounds is returned when a spec's delta1 is not strictly
// below its delta2. It fails the one feature request, not the run.
var ErrInvalidBounds = errors.New("window: delta1 must be strictly less than delta2")

// Spec identifies one lookback window definition. Specs are comparable
// and used directly as cache keys.
type Spec struct {
	Mode   Mode
	Delta1 float64
	Delta2 float64
}

// Validate checks the mode and the bound ordering.
func (s Spec) Validate() error {
	switch s.Mode {
	case ModeCalendar, ModeTransaction, ModeVolume:
	default:
		return fmt.Errorf("window: unknown mode %q", s.Mode)
	}
	if !(s.Delta1 >= 0) || !(s.Delta1 < s.Delta2) {
		return ErrInvalidBounds
	}
	return nil
}

// Suffix is the feature-name suffix distinguishing the mode:
// calendar windows are unsuffixed, matching the historical file naming.
func (s Spec) Suffix() string {
	switch s.Mode {
	case ModeTransaction:
		return "_txn"
	case ModeVolume:
		return "_vol"
	default:
		return ""
	}
}

// Interval is one row's window as an inclusive index range. Valid is
// false when no event falls inside the bounds, typically because the
// window precedes the start of the sequence; every statistic over an
// invalid interval is NaN.
type Interval struct {
	Start int
	End   int
	Valid bool
}

// Indexer precomputes, once per event sequence, the sorted timestamp
// column and the inclusive trade-count and trade-volume prefix sums, so
// each row's interval resolves with binary search instead of a per-row
// rescan. Results are memoized per spec.
type Indexer struct {
	timestamps []int64
	cumTrades  []float64
	cumVolume  []float64
	cache      map[Spec][]Interval
}

// NewIndexer builds an indexer over a timestamp-ordered event sequence.
func NewIndexer(events []*domain.Event) *Indexer {
	n := len(events)
	ix := &Indexer{
		timestamps: make([]int64, n),
		cumTrades:  make([]float64, n),
		cumVolume:  make([]float64, n),
		cache:      make(map[Spec][]Interval),
	}
	var trades, volume float64
	for i, e := range events {
		if e.IsTrade() {
			trades++
			volume += e.TradeVolume
		}
		ix.timestamps[i] = e.Timestamp
		ix.cumTrades[i] = trades
		ix.cumVolume[i] = volume
	}
	return ix
}

// Len returns the number of rows the indexer covers.
func (ix *Indexer) Len() int { return len(ix.timestamps) }

// Intervals resolves the per-row window intervals for one spec,
// computing them on first request and serving the memoized slice after.
// The returned slice is shared; callers must not modify it.
func (ix *Indexer) Intervals(spec Spec) ([]Interval, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if cached, ok := ix.cache[spec]; ok {
		observability.RecordWindowCacheHit()
		return cached, nil
	}
	observability.RecordWindowCacheMiss()

	var intervals []Interval
	switch spec.Mode {
	case ModeCalendar:
		intervals = ix.calendarIntervals(spec.Delta1, spec.Delta2)
	case ModeTransaction:
		intervals = ix.measureIntervals(ix.cumTrades, spec.Delta1, spec.Delta2)
	case ModeVolume:
		intervals = ix.measureIntervals(ix.cumVolume, spec.Delta1, spec.Delta2)
	}
	ix.cache[spec] = intervals
	return intervals, nil
}

// secondsToNanos converts a second offset to nanoseconds, saturating at
// the int64 range so an effectively unbounded delta2 selects from the
// start of the sequence.
func secondsToNanos(seconds float64) int64 {
	ns := seconds * float64(time.Second)
	if ns >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(ns)
}

func (ix *Indexer) calendarIntervals(delta1, delta2 float64) []Interval {
	n := len(ix.timestamps)
	d1 := secondsToNanos(delta1)
	d2 := secondsToNanos(delta2)
	intervals := make([]Interval, n)
	for i, ts := range ix.timestamps {
		lo, hi := ts-d2, ts-d1
		start := sort.Search(n, func(j int) bool { return ix.timestamps[j] > lo })
		end := sort.Search(n, func(j int) bool { return ix.timestamps[j] > hi }) - 1
		intervals[i] = makeInterval(start, end)
	}
	return intervals
}

// measureIntervals resolves windows over a nondecreasing prefix measure.
// Quotes carry the count of the last preceding trade, so a quote sits in
// exactly the windows that trade sits in.
func (ix *Indexer) measureIntervals(measure []float64, delta1, delta2 float64) []Interval {
	n := len(measure)
	intervals := make([]Interval, n)
	for i, m := range measure {
		lo, hi := m-delta2, m-delta1
		start := sort.Search(n, func(j int) bool { return measure[j] > lo })
		end := sort.Search(n, func(j int) bool { return measure[j] > hi }) - 1
		intervals[i] = makeInterval(start, end)
	}
	return intervals
}

func makeInterval(start, end int) Interval {
	if end < start {
		return Interval{}
	}
	return Interval{Start: start, End: end, Valid: true}
}
