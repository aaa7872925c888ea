package queue

import (
	"context"
	"sync"
	"time"

	"github.com/jobmonitor/backend/internal/domain"
)

// MemoryQueue keeps jobs in process memory. Jobs are lost on restart, so it
// only suits embedded workers and tests.
type MemoryQueue struct {
	name      string
	resultTTL time.Duration
	now       func() time.Time

	mu      sync.Mutex
	jobs    map[string]*domain.Job
	expires map[string]time.Time
	pending []string
	notify  chan struct{}
}

// NewMemoryQueue builds an in-process queue. Finished and failed jobs are
// dropped resultTTL after they are saved; zero keeps them forever.
func NewMemoryQueue(name string, resultTTL time.Duration) *MemoryQueue {
	return &MemoryQueue{
		name:      name,
		resultTTL: resultTTL,
		now:       time.Now,
		jobs:      make(map[string]*domain.Job),
		expires:   make(map[string]time.Time),
		notify:    make(chan struct{}, 1),
	}
}

func (q *MemoryQueue) Name() string {
	return q.name
}

func (q *MemoryQueue) Enqueue(ctx context.Context, job *domain.Job) error {
	q.mu.Lock()
	q.jobs[job.ID] = job.Clone()
	q.pending = append(q.pending, job.ID)
	q.mu.Unlock()

	q.signal()
	return nil
}

func (q *MemoryQueue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// evictExpired drops terminal jobs past their expiry. Callers hold q.mu.
func (q *MemoryQueue) evictExpired() {
	if len(q.expires) == 0 {
		return
	}
	now := q.now()
	for id, at := range q.expires {
		if !now.Before(at) {
			delete(q.jobs, id)
			delete(q.expires, id)
		}
	}
}

func (q *MemoryQueue) Fetch(ctx context.Context, id string) (*domain.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.evictExpired()

	job, ok := q.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return job.Clone(), nil
}

func (q *MemoryQueue) List(ctx context.Context) ([]*domain.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.evictExpired()

	jobs := make([]*domain.Job, 0, len(q.pending))
	for _, id := range q.pending {
		if job, ok := q.jobs[id]; ok {
			jobs = append(jobs, job.Clone())
		}
	}
	return jobs, nil
}

func (q *MemoryQueue) Dequeue(ctx context.Context, timeout time.Duration) (*domain.Job, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if job := q.pop(); job != nil {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, nil
		case <-q.notify:
		}
	}
}

func (q *MemoryQueue) pop() *domain.Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.pending) > 0 {
		id := q.pending[0]
		q.pending = q.pending[1:]
		job, ok := q.jobs[id]
		if !ok {
			continue
		}
		if len(q.pending) > 0 {
			// Wake another consumer for the remaining jobs.
			q.signal()
		}
		return job.Clone()
	}
	return nil
}

func (q *MemoryQueue) Save(ctx context.Context, job *domain.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.evictExpired()
	q.jobs[job.ID] = job.Clone()
	if q.resultTTL > 0 && !job.Status.IsPending() {
		q.expires[job.ID] = q.now().Add(q.resultTTL)
	} else {
		delete(q.expires, job.ID)
	}
	return nil
}

// Empty drops every job still waiting on the queue.
func (q *MemoryQueue) Empty(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, id := range q.pending {
		delete(q.jobs, id)
	}
	q.pending = nil
	return nil
}
