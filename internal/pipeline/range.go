package pipeline

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/AMS-QF/TAQ-Data/internal/storage"
)

// RangeResult summarizes a calendar-range run.
type RangeResult struct {
	TradingDays int
	Completed   int
	Skipped     int
	Errors      []string
}

// RunRange executes the pipeline for every configured symbol over every
// trading day in [start, end], up to parallelism days at once. A failed
// day is reported in the result and does not stop the others; only a
// calendar failure or context cancellation aborts the run.
func (r *Runner) RunRange(ctx context.Context, calendar storage.CalendarStore, symbols []string, start, end string, parallelism int) (*RangeResult, error) {
	days, err := calendar.GetRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load calendar %s..%s: %w", start, end, err)
	}
	result := &RangeResult{TradingDays: len(days)}
	if len(days) == 0 {
		return result, nil
	}

	if parallelism <= 0 {
		parallelism = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	var mu sync.Mutex
	for _, day := range days {
		for _, symbol := range symbols {
			symbol, date := symbol, day.Date
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				dayResult, err := r.RunDay(ctx, symbol, date)

				mu.Lock()
				defer mu.Unlock()
				switch {
				case err != nil:
					result.Errors = append(result.Errors, err.Error())
				case dayResult.Skipped:
					result.Skipped++
				default:
					result.Completed++
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
