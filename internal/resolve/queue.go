package resolve

import (
	"context"
	"sync"
	"time"

	"github.com/ppiankov/sieve/internal/model"
)

// EvaluateFunc verifies one candidate in place
type EvaluateFunc func(ctx context.Context, cand *model.Candidate)

// EvaluationQueue feeds candidates to a single background consumer. Any
// number of goroutines may Submit; only the consumer mutates a candidate once
// it is queued. Close marks the end of the stream.
type EvaluationQueue struct {
	items    chan *model.Candidate
	evaluate EvaluateFunc

	closeMu sync.RWMutex
	closed  bool

	mu       sync.Mutex
	finished []*model.Candidate

	done chan struct{}
}

// NewEvaluationQueue starts the consumer. It stops evaluating once ctx is
// done; candidates still queued at that point are left untouched.
func NewEvaluationQueue(ctx context.Context, evaluate EvaluateFunc, buffer int) *EvaluationQueue {
	if buffer < 1 {
		buffer = 1
	}
	q := &EvaluationQueue{
		items:    make(chan *model.Candidate, buffer),
		evaluate: evaluate,
		done:     make(chan struct{}),
	}
	go q.consume(ctx)
	return q
}

func (q *EvaluationQueue) consume(ctx context.Context) {
	defer close(q.done)
	for cand := range q.items {
		if ctx.Err() != nil {
			continue
		}
		q.evaluate(ctx, cand)
		if ctx.Err() != nil {
			// Result may be incomplete
			continue
		}
		q.mu.Lock()
		q.finished = append(q.finished, cand)
		q.mu.Unlock()
	}
}

// Submit queues a candidate. It blocks while the buffer is full.
func (q *EvaluationQueue) Submit(cand *model.Candidate) error {
	q.closeMu.RLock()
	defer q.closeMu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.items <- cand
	return nil
}

// Close signals that no more candidates will be submitted. Safe to call
// more than once.
func (q *EvaluationQueue) Close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.items)
	}
}

// Wait blocks until the consumer drains the queue or timeout passes, and
// returns the candidates evaluated so far in evaluation order. complete is
// false when the timeout was hit. A timeout of zero waits indefinitely.
func (q *EvaluationQueue) Wait(timeout time.Duration) (evaluated []*model.Candidate, complete bool) {
	if timeout <= 0 {
		<-q.done
		return q.Finished(), true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-q.done:
		return q.Finished(), true
	case <-timer.C:
		return q.Finished(), false
	}
}

// Finished returns a snapshot of the candidates evaluated so far
func (q *EvaluationQueue) Finished() []*model.Candidate {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*model.Candidate(nil), q.finished...)
}
