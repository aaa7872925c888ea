package services

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/jobmonitor/backend/internal/core/ports"
	"github.com/jobmonitor/backend/internal/domain"
	"github.com/jobmonitor/backend/internal/infrastructure/logger"
)

// Worker drains a JobQueue with a fixed number of goroutines, running each
// job's function from the registry and writing the outcome back to the queue.
type Worker struct {
	queue          ports.JobQueue
	registry       *TaskRegistry
	history        ports.JobRecordRepository
	log            *logger.Logger
	concurrency    int
	dequeueTimeout time.Duration

	wg sync.WaitGroup
}

type WorkerConfig struct {
	Queue          ports.JobQueue
	Registry       *TaskRegistry
	History        ports.JobRecordRepository
	Logger         *logger.Logger
	Concurrency    int
	DequeueTimeout time.Duration
}

func NewWorker(cfg WorkerConfig) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	timeout := cfg.DequeueTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	return &Worker{
		queue:          cfg.Queue,
		registry:       cfg.Registry,
		history:        cfg.History,
		log:            cfg.Logger,
		concurrency:    concurrency,
		dequeueTimeout: timeout,
	}
}

// Start launches the worker goroutines. They stop when ctx is cancelled;
// Wait blocks until the last one returned.
func (w *Worker) Start(ctx context.Context) {
	w.log.Infow("worker_start", "queue", w.queue.Name(), "concurrency", w.concurrency)
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.loop(ctx, i)
	}
}

func (w *Worker) Wait() {
	w.wg.Wait()
}

// Run is Start followed by Wait.
func (w *Worker) Run(ctx context.Context) {
	w.Start(ctx)
	w.Wait()
	w.log.Infow("worker_stopped", "queue", w.queue.Name())
}

// Drain runs queued jobs one at a time until a dequeue times out with
// nothing to do, and reports how many jobs it ran.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	n := 0
	for {
		job, err := w.queue.Dequeue(ctx, w.dequeueTimeout)
		if err != nil {
			return n, err
		}
		if job == nil {
			return n, nil
		}
		w.Perform(ctx, job)
		n++
	}
}

func (w *Worker) loop(ctx context.Context, n int) {
	defer w.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}
		job, err := w.queue.Dequeue(ctx, w.dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Warnw("worker_dequeue_failed", "worker", n, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.dequeueTimeout):
			}
			continue
		}
		if job == nil {
			continue
		}
		w.Perform(ctx, job)
	}
}

// Perform runs a single job to completion and stores its final state.
func (w *Worker) Perform(ctx context.Context, job *domain.Job) {
	start := time.Now()
	job.MarkStarted()
	if err := w.queue.Save(ctx, job); err != nil {
		w.log.Errorw("worker_job_save_failed", "id", job.ID, "status", job.Status, "error", err)
	}

	result, err := w.execute(ctx, job)
	if err != nil {
		job.MarkFailed(err.Error())
		w.log.Warnw("worker_job_failed", "id", job.ID, "func", job.FuncName, "error", err,
			"duration_ms", time.Since(start).Milliseconds())
	} else {
		job.MarkFinished(result)
		w.log.Infow("worker_job_finished", "id", job.ID, "func", job.FuncName,
			"duration_ms", time.Since(start).Milliseconds())
	}

	// The final state must be stored even when shutdown already cancelled ctx.
	saveCtx := context.WithoutCancel(ctx)
	if err := w.queue.Save(saveCtx, job); err != nil {
		w.log.Errorw("worker_job_save_failed", "id", job.ID, "status", job.Status, "error", err)
	}
	if w.history != nil {
		if err := w.history.Create(saveCtx, domain.JobRecordFromJob(job)); err != nil {
			w.log.Errorw("worker_job_history_failed", "id", job.ID, "error", err)
		}
	}
}

func (w *Worker) execute(ctx context.Context, job *domain.Job) (result any, err error) {
	fn, ok := w.registry.Lookup(job.FuncName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, job.FuncName)
	}

	defer func() {
		if r := recover(); r != nil {
			w.log.Errorw("worker_job_panic", "id", job.ID, "panic", r, "stack", string(debug.Stack()))
			result = nil
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}
	}()

	return fn(ctx, job.Args)
}
