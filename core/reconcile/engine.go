package reconcile

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Run reconciles every item through fn with at most workers in flight.
// Each item is an independent unit of work; a failing item never stops the others.
// Results keep the order of items.
func Run[T any](ctx context.Context, items []T, workers int, opts Options, fn func(context.Context, T) Result) *Report {
	if workers < 1 {
		workers = 1
	}

	report := &Report{
		StartedAt: time.Now(),
		DryRun:    opts.DryRun,
		Results:   make([]Result, len(items)),
	}

	var g errgroup.Group
	g.SetLimit(workers)

	for i, item := range items {
		g.Go(func() error {
			report.Results[i] = fn(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range report.Results {
		report.Summary.Add(r)
	}
	report.Duration = time.Since(report.StartedAt)

	return report
}
