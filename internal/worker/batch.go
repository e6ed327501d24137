package worker

import (
	"context"
	"runtime"
	"sort"
)

// DefaultBatchSize bounds how many tasks run concurrently in one batch
const DefaultBatchSize = 8

// Stream runs tasks in consecutive batches of at most batchSize and emits
// every result as soon as its task finishes, so a consumer can start work
// before a whole batch completes. Between batches the producer yields. The
// channel closes when all tasks have run or ctx is cancelled; tasks not yet
// started at cancellation are skipped.
func Stream[T any](ctx context.Context, tasks []Task[T], batchSize int) <-chan Result[T] {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	out := make(chan Result[T], batchSize)
	go func() {
		defer close(out)

		for start := 0; start < len(tasks); start += batchSize {
			if ctx.Err() != nil {
				return
			}
			end := min(start+batchSize, len(tasks))

			pool := NewPool[T](ctx, end-start)
			pool.Start()
			for i := start; i < end; i++ {
				if !pool.Submit(i, tasks[i]) {
					break
				}
			}
			pool.Close()

			for result := range pool.Results() {
				select {
				case out <- result:
				case <-ctx.Done():
					pool.Shutdown()
					return
				}
			}

			// Yield point between batches
			runtime.Gosched()
		}
	}()
	return out
}

// Collect runs tasks like Stream and returns the results in task order
func Collect[T any](ctx context.Context, tasks []Task[T], batchSize int) []Result[T] {
	results := make([]Result[T], 0, len(tasks))
	for r := range Stream(ctx, tasks, batchSize) {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	return results
}
