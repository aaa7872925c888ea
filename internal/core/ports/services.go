package ports

import (
	"context"

	"github.com/jobmonitor/backend/internal/domain"
)

// SubmitReceipt acknowledges a job created on behalf of the files API.
type SubmitReceipt struct {
	Status string `json:"status"`
	JobID  string `json:"job_id"`
}

// JobState is what the polling API reports for a job. HasResult is set once
// the job finished, even when the result itself is null.
type JobState struct {
	Status    domain.JobStatus
	JobID     string
	Result    any
	HasResult bool
}

type JobService interface {
	Submit(ctx context.Context, taskName string, args map[string]any) (*domain.Job, error)
	Enqueue(ctx context.Context, funcName string, args map[string]any) (*SubmitReceipt, error)
	Get(ctx context.Context, id string) (*domain.Job, error)
	List(ctx context.Context) ([]*domain.Job, error)
	Fetch(ctx context.Context, id string) (*JobState, error)
	History(ctx context.Context, limit int) ([]domain.JobRecord, error)
}

type FileService interface {
	AddFileExtension(name string) string
	Path(name string) (string, error)
	ListFile(path string) domain.TaskResult
	GetKeyFromFile(path, key string) domain.TaskResult
}

type PageResolver interface {
	DefaultChildPath(path string) string
}
