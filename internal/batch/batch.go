// Package batch runs per-page work on a bounded worker pool and reassembles
// the results by page index.
package batch

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/MeKo-Tech/docweave/internal/ocrerr"
	"golang.org/x/sync/errgroup"
)

// Options controls a batch run.
type Options struct {
	// MaxWorkers bounds concurrency; 0 means runtime.NumCPU().
	MaxWorkers int
	// ContinueOnError keeps processing after a page fails. Failures are then
	// reported together as a *ocrerr.BatchError next to the partial results.
	// Without it the first failing page (lowest index) aborts the batch.
	ContinueOnError bool
	// Progress receives optional progress notifications.
	Progress Progress
}

// Workers returns the effective worker count for n items.
func (o Options) Workers(n int) int {
	w := o.MaxWorkers
	if w <= 0 {
		w = runtime.NumCPU()
	}
	return max(1, min(w, n))
}

// Run calls fn for every index in [0, n) and returns the results in index
// order regardless of completion order.
//
// In fail-fast mode no page after a failing page is started and the error of
// the lowest failing index is returned; pages before it always run, so the
// reported page does not depend on scheduling. With ContinueOnError every page
// runs; failed pages keep the zero value of T and the returned error is a
// *ocrerr.BatchError listing them.
func Run[T any](ctx context.Context, n int, opts Options, fn func(ctx context.Context, i int) (T, error)) ([]T, error) {
	results := make([]T, n)
	if n == 0 {
		return results, nil
	}
	progress := opts.Progress
	if progress == nil {
		progress = NoOpProgress{}
	}
	progress.OnStart(n)
	defer progress.OnComplete()

	errs := make([]error, n)
	var done atomic.Int64
	var firstFail atomic.Int64
	firstFail.Store(int64(n))
	skip := func(i int) bool {
		return !opts.ContinueOnError && int64(i) > firstFail.Load()
	}

	var g errgroup.Group
	g.SetLimit(opts.Workers(n))
	for i := range n {
		if ctx.Err() != nil || skip(i) {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil || skip(i) {
				return nil
			}
			v, err := fn(ctx, i)
			if err != nil {
				errs[i] = err
				for {
					cur := firstFail.Load()
					if int64(i) >= cur || firstFail.CompareAndSwap(cur, int64(i)) {
						break
					}
				}
				progress.OnError(i, err)
				return nil
			}
			results[i] = v
			progress.OnProgress(int(done.Add(1)), n)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !opts.ContinueOnError {
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
		return results, nil
	}
	be := &ocrerr.BatchError{Total: n}
	for i, err := range errs {
		if err != nil {
			be.Errors = append(be.Errors, ocrerr.PageError{Page: i, Err: err})
		}
	}
	if len(be.Errors) > 0 {
		return results, be
	}
	return results, nil
}
