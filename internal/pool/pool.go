// Package pool provides the bounded worker pool used to parallelize the
// deduplicator's hashing stages (§5): parallelism = min(cpu_count, 8) by
// default, configurable, built on golang.org/x/sync/errgroup so a single
// failing work item does not lose track of its context.
package pool

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers returns min(runtime.NumCPU(), 8).
func DefaultWorkers() int {
	n := runtime.NumCPU()
	if n > 8 {
		n = 8
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Run executes fn(i) for i in [0, n) across at most `workers` goroutines at
// once, returning the first non-nil error (if any). It does not abort
// remaining work items on a single item's error — callers that want
// all-or-nothing semantics should check the returned error; callers in this
// module (the hasher stages) treat per-item errors as soft failures and
// never return them from fn in the first place.
func Run(ctx context.Context, workers, n int, fn func(ctx context.Context, i int) error) error {
	if workers < 1 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			return fn(ctx, i)
		})
	}
	return g.Wait()
}
