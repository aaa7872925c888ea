package ports

import (
	"context"
	"time"

	"github.com/jobmonitor/backend/internal/domain"
)

// JobQueue stores jobs and hands them to workers in FIFO order.
type JobQueue interface {
	Name() string
	Enqueue(ctx context.Context, job *domain.Job) error
	// Fetch returns domain.ErrJobNotFound for unknown or expired ids.
	Fetch(ctx context.Context, id string) (*domain.Job, error)
	// List returns the jobs still waiting on the queue.
	List(ctx context.Context) ([]*domain.Job, error)
	// Dequeue blocks for up to timeout and returns nil, nil when nothing arrived.
	Dequeue(ctx context.Context, timeout time.Duration) (*domain.Job, error)
	Save(ctx context.Context, job *domain.Job) error
	Empty(ctx context.Context) error
}

type JobRecordRepository interface {
	Create(ctx context.Context, record *domain.JobRecord) error
	GetByJobID(ctx context.Context, jobID string) (*domain.JobRecord, error)
	GetRecent(ctx context.Context, limit int) ([]domain.JobRecord, error)
	CleanupOld(ctx context.Context, olderThan time.Duration) error
}
