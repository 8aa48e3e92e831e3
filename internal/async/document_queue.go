package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/doccollate/internal/common"
	"github.com/joseph-ayodele/doccollate/internal/metrics"
)

// DocumentQueue feeds jobs to a fixed number of workers. Each job runs under
// its own timeout; a failed job is logged and handed to the result hook.
type DocumentQueue struct {
	proc     Processor
	logger   *slog.Logger
	workers  int
	timeout  time.Duration
	onResult func(Job, error)

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*DocumentQueue)

func WithWorkers(n int) Option {
	return func(q *DocumentQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *DocumentQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *DocumentQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithResultHook is called from the worker goroutine after every job.
func WithResultHook(fn func(Job, error)) Option {
	return func(q *DocumentQueue) {
		q.onResult = fn
	}
}

func NewDocumentQueue(proc Processor, logger *slog.Logger, opts ...Option) *DocumentQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &DocumentQueue{
		proc:    proc,
		logger:  logger,
		workers: 1,
		timeout: 10 * time.Minute,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

var _ Queue = (*DocumentQueue)(nil)

func (q *DocumentQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go q.work(i + 1)
		}
	})
}

func (q *DocumentQueue) work(workerID int) {
	defer q.wg.Done()
	q.logger.Debug("queue.worker.start", "worker_id", workerID)

	for job := range q.ch {
		metrics.QueueDepth.Dec()
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		ctx = common.WithRequestID(ctx, job.TraceID)
		start := time.Now()
		err := q.proc.Process(ctx, job)
		cancel()

		if err != nil {
			q.logger.Error("queue.job.failed", "worker_id", workerID, "path", job.Path, "req_id", job.TraceID, "error", err)
		} else {
			q.logger.Info("queue.job.ok", "worker_id", workerID, "path", job.Path, "req_id", job.TraceID,
				"elapsed_ms", time.Since(start).Milliseconds())
		}
		if q.onResult != nil {
			q.onResult(job, err)
		}
	}

	q.logger.Debug("queue.worker.stop", "worker_id", workerID)
}

// Enqueue blocks while the buffer is full, until ctx is done.
func (q *DocumentQueue) Enqueue(ctx context.Context, job Job) error {
	if job.TraceID == "" {
		job.TraceID = uuid.NewString()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("queue.enqueue.closed", "path", job.Path)
		return ErrQueueClosed
	}
	metrics.QueueDepth.Inc()
	select {
	case q.ch <- job:
	default:
		q.logger.Warn("queue.enqueue.backpressure", "path", job.Path)
		select {
		case q.ch <- job:
		case <-ctx.Done():
			metrics.QueueDepth.Dec()
			return ctx.Err()
		}
	}
	q.logger.Debug("queue.enqueue.ok", "path", job.Path, "target", job.Target, "req_id", job.TraceID)
	return nil
}

// Shutdown stops intake and waits for queued jobs to finish or ctx to end.
func (q *DocumentQueue) Shutdown(ctx context.Context) {
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
		q.logger.Info("queue.shutdown.drained")
	}
}
