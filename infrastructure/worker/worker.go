package worker

import (
	"context"
	"sync"

	"trackpub/infrastructure/logger"
)

// Task is a unit of work executed by the pool. The returned error is
// collected, never fatal to the pool.
type Task func(ctx context.Context) error

// Result pairs a task index with its outcome.
type Result struct {
	Index int
	Err   error
}

// RunPooled executes tasks on a fixed number of goroutines and returns one
// result per task, index-aligned. size<=0 falls back to a single worker.
func RunPooled(ctx context.Context, size int, tasks []Task) []Result {
	if size <= 0 {
		size = 1
	}
	if size > len(tasks) {
		size = len(tasks)
	}
	results := make([]Result, len(tasks))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < size; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := ctx.Err(); err != nil {
					results[idx] = Result{Index: idx, Err: err}
					continue
				}
				err := tasks[idx](ctx)
				if err != nil {
					logger.GetLogger().WithField("task", idx).WithField("error", err).Warn("Pooled task failed")
				}
				results[idx] = Result{Index: idx, Err: err}
			}
		}()
	}

	for i := range tasks {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}
