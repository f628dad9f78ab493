package sim

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Job is one independent run of a sweep. Build is called on the worker
// goroutine so every job gets its own model and scratch buffers.
type Job struct {
	Name  string
	Build func() (*Simulator, error)
	Times []float64
}

// Sweep runs jobs in parallel, at most limit at a time (GOMAXPROCS when
// limit <= 0). The first failing job cancels the rest.
func Sweep(ctx context.Context, jobs []Job, limit int) ([]*Result, error) {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	results := make([]*Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, job := range jobs {
		g.Go(func() error {
			s, err := job.Build()
			if err != nil {
				return fmt.Errorf("job %q: %w", job.Name, err)
			}
			res, err := Run(ctx, s, job.Times)
			results[i] = res
			if err != nil {
				return fmt.Errorf("job %q: %w", job.Name, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
