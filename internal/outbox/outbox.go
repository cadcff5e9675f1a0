// Package outbox queues best-effort side effects so domain operations do
// not block on, or fail because of, notification delivery. A worker drains
// the queue with bounded retry; a task that keeps failing is logged and
// dropped.
package outbox

import (
	"context"
	"log"
	"sync"
	"time"
)

type task struct {
	name     string
	attempts int
	run      func(ctx context.Context) error
}

type Queue struct {
	tasks       chan task
	wg          sync.WaitGroup
	maxAttempts int
	backoff     time.Duration

	startOnce sync.Once
	stop      chan struct{}
}

type Option func(*Queue)

// WithRetry overrides the attempt limit and base backoff. Backoff grows
// linearly with the attempt number.
func WithRetry(maxAttempts int, backoff time.Duration) Option {
	return func(q *Queue) {
		q.maxAttempts = maxAttempts
		q.backoff = backoff
	}
}

func NewQueue(opts ...Option) *Queue {
	q := &Queue{
		tasks:       make(chan task, 256),
		maxAttempts: 3,
		backoff:     time.Second,
		stop:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue registers a side effect. When the queue is full the task runs
// inline instead of blocking the caller.
func (q *Queue) Enqueue(name string, run func(ctx context.Context) error) {
	q.wg.Add(1)
	select {
	case q.tasks <- task{name: name, run: run}:
	default:
		defer q.wg.Done()
		if err := run(context.Background()); err != nil {
			log.Printf("outbox: inline task %s failed: %s", name, err)
		}
	}
}

// Start launches the worker. Safe to call once; subsequent calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.startOnce.Do(func() {
		go q.worker(ctx)
	})
}

// The worker runs until Close so a graceful shutdown can still drain tasks
// enqueued after the context was cancelled. A cancelled context only cuts
// retries short.
func (q *Queue) worker(ctx context.Context) {
	for {
		select {
		case <-q.stop:
			return
		case t := <-q.tasks:
			q.process(ctx, t)
		}
	}
}

func (q *Queue) process(ctx context.Context, t task) {
	defer q.wg.Done()

	for t.attempts = 1; ; t.attempts++ {
		err := t.run(ctx)
		if err == nil {
			return
		}
		if t.attempts >= q.maxAttempts {
			log.Printf("outbox: task %s dropped after %d attempts: %s", t.name, t.attempts, err)
			return
		}
		log.Printf("outbox: task %s attempt %d failed, retrying: %s", t.name, t.attempts, err)

		select {
		case <-ctx.Done():
			log.Printf("outbox: task %s abandoned on shutdown", t.name)
			return
		case <-time.After(q.backoff * time.Duration(t.attempts)):
		}
	}
}

// Wait blocks until every enqueued task has been processed. Used by tests
// and by graceful shutdown to drain pending notifications.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// Close stops the worker after the current task. Pending tasks stay queued.
func (q *Queue) Close() {
	close(q.stop)
}
