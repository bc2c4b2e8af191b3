package async

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/joseph-ayodele/legal-analyzer/internal/common"
	"github.com/joseph-ayodele/legal-analyzer/internal/entity"
)

// DocumentProcessor is the work a queue worker performs for one job.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, id uuid.UUID) (*entity.Analysis, error)
}

type jobState struct {
	cancel   context.CancelFunc // set once a worker picks the job up
	canceled bool
}

// ProcessorQueue is a bounded worker pool. At most one job per document is
// queued or running at any time.
type ProcessorQueue struct {
	proc    DocumentProcessor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	// sendMu guards closed and sends on ch; stateMu guards jobs.
	sendMu  sync.Mutex
	closed  bool
	stateMu sync.Mutex
	jobs    map[uuid.UUID]*jobState
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(proc DocumentProcessor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 5 * time.Minute,
		ch:      make(chan Job, 256),
		jobs:    make(map[uuid.UUID]*jobState),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("queue.worker.started", "worker_id", workerID)
				for job := range q.ch {
					q.run(workerID, job)
				}
				q.logger.Debug("queue.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	ctx = common.WithTraceID(ctx, job.TraceID)

	q.stateMu.Lock()
	st := q.jobs[job.DocumentID]
	if st == nil || st.canceled {
		delete(q.jobs, job.DocumentID)
		q.stateMu.Unlock()
		q.logger.Info("queue.job.skipped", "document_id", job.DocumentID, "trace_id", job.TraceID)
		return
	}
	st.cancel = cancel
	q.stateMu.Unlock()

	defer func() {
		q.stateMu.Lock()
		delete(q.jobs, job.DocumentID)
		q.stateMu.Unlock()
	}()

	start := time.Now()
	waited := start.Sub(job.SubmittedAt)
	_, err := q.proc.ProcessDocument(ctx, job.DocumentID)
	attrs := []any{
		"worker_id", workerID,
		"document_id", job.DocumentID,
		"trace_id", job.TraceID,
		"wait_ms", waited.Milliseconds(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		q.logger.Error("queue.job.failed", append(attrs, "error", err)...)
		return
	}
	q.logger.Info("queue.job.done", attrs...)
}

// Enqueue blocks while the buffer is full, until ctx is done.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	if job.TraceID == "" {
		job.TraceID = ulid.Make().String()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}

	q.sendMu.Lock()
	defer q.sendMu.Unlock()
	if q.closed {
		q.logger.Warn("queue.enqueue.closed", "document_id", job.DocumentID)
		return ErrQueueClosed
	}

	q.stateMu.Lock()
	if _, busy := q.jobs[job.DocumentID]; busy {
		q.stateMu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyQueued, job.DocumentID)
	}
	q.jobs[job.DocumentID] = &jobState{}
	q.stateMu.Unlock()

	select {
	case q.ch <- job:
	default:
		q.logger.Warn("queue.full", "document_id", job.DocumentID, "capacity", cap(q.ch))
		select {
		case q.ch <- job:
		case <-ctx.Done():
			q.stateMu.Lock()
			delete(q.jobs, job.DocumentID)
			q.stateMu.Unlock()
			return ctx.Err()
		}
	}
	q.logger.Info("queue.job.queued", "document_id", job.DocumentID, "trace_id", job.TraceID)
	return nil
}

// Cancel stops the job for id if it is queued or running. A running job sees its
// context canceled; a queued one is skipped when a worker reaches it.
func (q *ProcessorQueue) Cancel(id uuid.UUID) bool {
	q.stateMu.Lock()
	defer q.stateMu.Unlock()
	st, ok := q.jobs[id]
	if !ok {
		return false
	}
	st.canceled = true
	if st.cancel != nil {
		st.cancel()
	}
	q.logger.Info("queue.job.canceled", "document_id", id, "running", st.cancel != nil)
	return true
}

// Busy reports whether id is queued or running.
func (q *ProcessorQueue) Busy(id uuid.UUID) bool {
	q.stateMu.Lock()
	defer q.stateMu.Unlock()
	_, ok := q.jobs[id]
	return ok
}

// Shutdown stops intake and waits for queued jobs to finish. When ctx ends
// first, running jobs are canceled.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.sendMu.Lock()
	if q.closed {
		q.sendMu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.sendMu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted")
		q.stateMu.Lock()
		for _, st := range q.jobs {
			st.canceled = true
			if st.cancel != nil {
				st.cancel()
			}
		}
		q.stateMu.Unlock()
		<-done
	case <-done:
		q.logger.Info("queue.shutdown.drained")
	}
}
