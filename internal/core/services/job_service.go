package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jobmonitor/backend/internal/core/ports"
	"github.com/jobmonitor/backend/internal/domain"
	"github.com/jobmonitor/backend/internal/infrastructure/logger"
)

const defaultHistoryLimit = 50

type JobService struct {
	queue     ports.JobQueue
	resolvers *ResolverChain
	history   ports.JobRecordRepository
	log       *logger.Logger
}

type JobServiceConfig struct {
	Queue     ports.JobQueue
	Resolvers *ResolverChain
	// History is optional; without it History returns ErrHistoryDisabled.
	History ports.JobRecordRepository
	Logger  *logger.Logger
}

func NewJobService(cfg JobServiceConfig) *JobService {
	return &JobService{
		queue:     cfg.Queue,
		resolvers: cfg.Resolvers,
		history:   cfg.History,
		log:       cfg.Logger,
	}
}

// Submit resolves taskName and puts a new job for it on the queue.
func (s *JobService) Submit(ctx context.Context, taskName string, args map[string]any) (*domain.Job, error) {
	if taskName == "" {
		return nil, ErrNoTaskName
	}
	funcName, ok := s.resolvers.Resolve(taskName)
	if !ok {
		s.log.Warnw("job_submit_unresolved", "task", taskName)
		return nil, fmt.Errorf("%w: `%s`", ErrInvalidTaskName, taskName)
	}

	job := domain.NewJob(s.queue.Name(), taskName, funcName, args)
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.log.Errorw("job_submit_enqueue_failed", "task", taskName, "error", err)
		return nil, err
	}
	s.log.Infow("job_submit_ok", "id", job.ID, "task", taskName, "func", funcName)
	return job, nil
}

// Enqueue puts a job for an already resolved function on the queue. The
// files API uses it for its internal tasks.
func (s *JobService) Enqueue(ctx context.Context, funcName string, args map[string]any) (*ports.SubmitReceipt, error) {
	job := domain.NewJob(s.queue.Name(), funcName, funcName, args)
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.log.Errorw("job_enqueue_failed", "func", funcName, "error", err)
		return nil, err
	}
	s.log.Infow("job_enqueue_ok", "id", job.ID, "func", funcName)
	return &ports.SubmitReceipt{Status: "submitted", JobID: job.ID}, nil
}

func (s *JobService) Get(ctx context.Context, id string) (*domain.Job, error) {
	job, err := s.queue.Fetch(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrJobNotFound) {
			s.log.Errorw("job_get_failed", "id", id, "error", err)
		}
		return nil, err
	}
	return job, nil
}

func (s *JobService) List(ctx context.Context) ([]*domain.Job, error) {
	jobs, err := s.queue.List(ctx)
	if err != nil {
		s.log.Errorw("job_list_failed", "error", err)
		return nil, err
	}
	return jobs, nil
}

// Fetch reports the state of a job for the polling API. The result is only
// attached once the job finished.
func (s *JobService) Fetch(ctx context.Context, id string) (*ports.JobState, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	state := &ports.JobState{Status: job.Status, JobID: job.ID}
	if job.IsFinished() {
		state.Result = job.Result
		state.HasResult = true
	}
	return state, nil
}

func (s *JobService) History(ctx context.Context, limit int) ([]domain.JobRecord, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.history.GetRecent(ctx, limit)
}

// PruneHistory deletes history older than retention every interval until ctx
// is cancelled. It returns at once when history is disabled.
func (s *JobService) PruneHistory(ctx context.Context, interval, retention time.Duration) {
	if s.history == nil || retention <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.history.CleanupOld(ctx, retention); err != nil {
				s.log.Warnw("job_history_prune_failed", "error", err)
			}
		}
	}
}
