// Package workerpool provides an ordered parallel map over contiguous batches.
package workerpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Task computes the result for item i.
type Task[T, R any] func(ctx context.Context, i int, item T) (R, error)

// Batches splits n items into at most jobs contiguous [start, end) ranges.
// The first n%jobs ranges hold one extra item. When n <= jobs every item is
// its own range.
func Batches(n, jobs int) [][2]int {
	if n == 0 {
		return nil
	}
	if jobs < 1 {
		jobs = 1
	}
	if n <= jobs {
		out := make([][2]int, n)
		for i := range n {
			out[i] = [2]int{i, i + 1}
		}
		return out
	}

	size, extra := n/jobs, n%jobs
	out := make([][2]int, 0, jobs)
	start := 0
	for b := range jobs {
		end := start + size
		if b < extra {
			end++
		}
		out = append(out, [2]int{start, end})
		start = end
	}
	return out
}

// Map applies fn to every item and returns the results in input order,
// regardless of jobs. Each batch runs serially on its own goroutine; the
// context is checked before every task and the first error cancels the rest.
func Map[T, R any](ctx context.Context, jobs int, items []T, fn Task[T, R]) ([]R, error) {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results, nil
	}

	if jobs <= 1 {
		for i, item := range items {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r, err := fn(ctx, i, item)
			if err != nil {
				return nil, err
			}
			results[i] = r
		}
		return results, nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	for _, batch := range Batches(len(items), jobs) {
		start, end := batch[0], batch[1]
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gCtx.Err(); err != nil {
					return err
				}
				r, err := fn(gCtx, i, items[i])
				if err != nil {
					return err
				}
				results[i] = r
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
