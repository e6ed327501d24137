package worker

import (
	"context"
	"sync"
)

// Task is one independent unit of work, typically a search or evidence call
type Task[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// Result is the outcome of one task. Index is the task's position in the
// submitted sequence so callers can restore submission order.
type Result[T any] struct {
	Index int
	Name  string
	Value T
	Err   error
}

// GetError returns the task error
func (r Result[T]) GetError() error {
	return r.Err
}

type job[T any] struct {
	index int
	task  Task[T]
}

// Pool runs tasks on a fixed number of workers and streams results as each
// task finishes.
type Pool[T any] struct {
	workers    int
	jobQueue   chan job[T]
	results    chan Result[T]
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
	doneOnce   sync.Once
}

// NewPool creates a pool bound to ctx. Cancelling ctx stops the workers.
func NewPool[T any](ctx context.Context, workers int) *Pool[T] {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool[T]{
		workers:    workers,
		jobQueue:   make(chan job[T], workers*2),
		results:    make(chan Result[T], workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start starts the workers
func (p *Pool[T]) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool[T]) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case j, ok := <-p.jobQueue:
			if !ok {
				return
			}
			value, err := j.task.Run(p.ctx)
			result := Result[T]{Index: j.index, Name: j.task.Name, Value: value, Err: err}
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a task. It returns false if the pool is shutting down.
func (p *Pool[T]) Submit(index int, task Task[T]) bool {
	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- job[T]{index: index, task: task}:
		return true
	}
}

// Results streams results as they complete. The channel closes once Close
// has been called and every worker has exited.
func (p *Pool[T]) Results() <-chan Result[T] {
	return p.results
}

// Close signals that no more tasks will be submitted
func (p *Pool[T]) Close() {
	p.closeOnce.Do(func() {
		close(p.jobQueue)
		go func() {
			p.wg.Wait()
			p.closeResults()
		}()
	})
}

// Wait closes the pool and collects every remaining result
func (p *Pool[T]) Wait() []Result[T] {
	p.Close()

	var results []Result[T]
	for result := range p.results {
		results = append(results, result)
	}
	return results
}

// Shutdown stops the workers without waiting for queued tasks
func (p *Pool[T]) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool[T]) closeResults() {
	p.doneOnce.Do(func() {
		close(p.results)
		p.cancelFunc()
	})
}
