package renderer

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// WorkerPool runs independent scanline jobs on a bounded number of goroutines
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a pool; numWorkers <= 0 uses one worker per CPU
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{numWorkers: numWorkers}
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// Run calls job once for every row in [0, rows). Jobs are not started once ctx is done.
// The first job error, or the context error, is returned after all started jobs finish.
func (wp *WorkerPool) Run(ctx context.Context, rows int, job func(row int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(wp.numWorkers)

	queued := 0
	for ; queued < rows; queued++ {
		if gctx.Err() != nil {
			break
		}
		row := queued
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return job(row)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if queued < rows {
		return ctx.Err()
	}
	return nil
}
