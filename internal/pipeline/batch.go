package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunBatch runs jobs with at most parallelism concurrent workers and
// returns results in input order. One job's ERROR never cancels its
// siblings; only context cancellation stops the batch early, and cancelled
// jobs come back with the context error in Result.Err.
func RunBatch(ctx context.Context, jobs []Job, parallelism int) []Result {
	if parallelism < 1 {
		parallelism = 1
	}

	results := make([]Result, len(jobs))
	var g errgroup.Group
	g.SetLimit(parallelism)

	for i, job := range jobs {
		g.Go(func() error {
			res, err := Run(ctx, job)
			if err != nil {
				res.Err = err
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait() // workers never return errors
	return results
}
