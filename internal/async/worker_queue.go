package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrClosed is returned by Enqueue after Shutdown.
var ErrClosed = errors.New("queue is shutting down")

// WorkerQueue runs a Handler over queued jobs with a fixed pool of workers.
type WorkerQueue struct {
	handle  Handler
	logger  *slog.Logger
	workers int
	timeout time.Duration
	onDepth func(int)

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool

	depth     atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
}

type Option func(*WorkerQueue)

func WithWorkers(n int) Option {
	return func(q *WorkerQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *WorkerQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *WorkerQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithDepthHook reports the number of waiting jobs after every change.
func WithDepthHook(fn func(int)) Option {
	return func(q *WorkerQueue) { q.onDepth = fn }
}

func NewWorkerQueue(handle Handler, logger *slog.Logger, opts ...Option) *WorkerQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &WorkerQueue{
		handle:  handle,
		logger:  logger,
		workers: 2,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *WorkerQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("queue.worker.started", "worker_id", workerID)

				for job := range q.ch {
					q.setDepth(q.depth.Add(-1))
					start := time.Now()
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					err := q.run(ctx, job)
					cancel()

					if err != nil {
						q.failed.Add(1)
						q.logger.Error("queue.job.failed",
							"worker_id", workerID, "path", job.Path, "trace_id", job.TraceID,
							"duration_ms", time.Since(start).Milliseconds(), "err", err)
					} else {
						q.processed.Add(1)
						q.logger.Info("queue.job.ok",
							"worker_id", workerID, "path", job.Path, "trace_id", job.TraceID,
							"duration_ms", time.Since(start).Milliseconds())
					}
				}

				q.logger.Debug("queue.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// run isolates a panicking handler so the worker survives it.
func (q *WorkerQueue) run(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("handler panic")
			q.logger.Error("queue.job.panic", "path", job.Path, "panic", r)
		}
	}()
	return q.handle(ctx, job)
}

// Enqueue blocks while the queue is full, until ctx is done.
func (q *WorkerQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("queue.enqueue.closed", "path", job.Path)
		return ErrClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now().UTC()
	}
	q.setDepth(q.depth.Add(1))
	select {
	case q.ch <- job:
	default:
		q.logger.Warn("queue.full", "path", job.Path)
		select {
		case q.ch <- job:
		case <-ctx.Done():
			q.setDepth(q.depth.Add(-1))
			return ctx.Err()
		}
	}
	q.logger.Debug("queue.enqueued", "path", job.Path, "trace_id", job.TraceID)
	return nil
}

func (q *WorkerQueue) setDepth(n int64) {
	if q.onDepth != nil {
		q.onDepth(int(max(n, 0)))
	}
}

// Stats returns how many jobs succeeded and failed so far.
func (q *WorkerQueue) Stats() (processed, failed int64) {
	return q.processed.Load(), q.failed.Load()
}

// Shutdown stops accepting jobs and waits for the queued ones to finish,
// or for ctx to end.
func (q *WorkerQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		processed, failed := q.Stats()
		q.logger.Info("queue.shutdown.ok", "processed", processed, "failed", failed)
	}
}
