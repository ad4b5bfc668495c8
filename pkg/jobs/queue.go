// Package jobs runs background work (notification delivery, report rendering) on
// bounded in-process worker pools with retry and backoff.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrNotStarted = errors.New("queue not started")
	ErrStopped    = errors.New("queue stopped")
	ErrFull       = errors.New("queue full")
)

// Job is one unit of work. Attempt counts failed runs so far.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

type Handler func(context.Context, Job) error

// ResultHook observes every handler run, successful or not.
type ResultHook func(queue string, job Job, err error)

type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

// QueueConfig tunes a queue. Zero values get defaults in NewQueue.
type QueueConfig struct {
	Workers       int
	BufferSize    int
	MaxRetries    int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	Logger        *zap.Logger
	OnResult      ResultHook
}

// Queue dispatches jobs to a fixed pool of goroutines. Retries wait
// RetryDelay doubled per attempt, capped at MaxRetryDelay.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig
	log     *zap.SugaredLogger

	jobs chan Job

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool

	workers sync.WaitGroup
	retries sync.WaitGroup
}

func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.MaxRetryDelay < cfg.RetryDelay {
		cfg.MaxRetryDelay = 30 * cfg.RetryDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		log:     cfg.Logger.Sugar().With("queue", name),
		jobs:    make(chan Job, cfg.BufferSize),
	}
}

func (q *Queue) Name() string { return q.name }

// Pending reports buffered jobs not yet picked up by a worker.
func (q *Queue) Pending() int { return len(q.jobs) }

// Start launches the workers. Later calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.workers.Add(1)
		go q.run()
	}
	q.started = true
	q.log.Infow("queue started", "workers", q.cfg.Workers, "buffer", q.cfg.BufferSize)
}

// Stop cancels the queue, lets running handlers return and drops buffered jobs.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started || q.ctx.Err() != nil {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()

	q.workers.Wait()
	q.retries.Wait()
	if dropped := len(q.jobs); dropped > 0 {
		q.log.Warnw("queue stopped with pending jobs", "dropped", dropped)
		return
	}
	q.log.Infow("queue stopped")
}

// Enqueue blocks while the buffer is full, until the queue stops.
func (q *Queue) Enqueue(job Job) error {
	return q.EnqueueContext(context.Background(), job)
}

// EnqueueContext is Enqueue that also gives up when ctx is done.
func (q *Queue) EnqueueContext(ctx context.Context, job Job) error {
	running, job, err := q.admit(job)
	if err != nil {
		return err
	}
	select {
	case q.jobs <- job:
		return nil
	case <-running.Done():
		return fmt.Errorf("%s: %w", q.name, ErrStopped)
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", q.name, ctx.Err())
	}
}

// TryEnqueue never waits. A full buffer yields ErrFull.
func (q *Queue) TryEnqueue(job Job) error {
	_, job, err := q.admit(job)
	if err != nil {
		return err
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return fmt.Errorf("%s: %w", q.name, ErrFull)
	}
}

func (q *Queue) admit(job Job) (context.Context, Job, error) {
	q.mu.Lock()
	ctx, started := q.ctx, q.started
	q.mu.Unlock()

	if !started {
		return nil, job, fmt.Errorf("%s: %w", q.name, ErrNotStarted)
	}
	if ctx.Err() != nil {
		return nil, job, fmt.Errorf("%s: %w", q.name, ErrStopped)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	return ctx, job, nil
}

func (q *Queue) run() {
	defer q.workers.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			err := q.invoke(job)
			if q.cfg.OnResult != nil {
				q.cfg.OnResult(q.name, job, err)
			}
			if err != nil {
				q.retry(job, err)
			}
		}
	}
}

func (q *Queue) invoke(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Permanent(fmt.Errorf("handler panic: %v", r))
		}
	}()
	return q.handler(q.ctx, job)
}

func (q *Queue) retry(job Job, err error) {
	job.Attempt++
	if IsPermanent(err) || job.Attempt > q.cfg.MaxRetries {
		q.log.Errorw("job abandoned", "job_id", job.ID, "type", job.Type, "attempts", job.Attempt, "error", err)
		return
	}
	delay := q.backoff(job.Attempt)
	q.log.Warnw("job failed, retrying", "job_id", job.ID, "type", job.Type, "attempt", job.Attempt, "delay", delay, "error", err)

	q.retries.Add(1)
	go func() {
		defer q.retries.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
		case <-timer.C:
			if err := q.Enqueue(job); err != nil && !errors.Is(err, ErrStopped) {
				q.log.Errorw("requeue failed", "job_id", job.ID, "error", err)
			}
		}
	}()
}

func (q *Queue) backoff(attempt int) time.Duration {
	delay := q.cfg.RetryDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= q.cfg.MaxRetryDelay {
			return q.cfg.MaxRetryDelay
		}
	}
	return delay
}
