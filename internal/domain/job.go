package domain

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusQueued   JobStatus = "queued"
	JobStatusStarted  JobStatus = "started"
	JobStatusFinished JobStatus = "finished"
	JobStatusFailed   JobStatus = "failed"
)

// IsPending reports whether a job in this state may still change.
func (s JobStatus) IsPending() bool {
	return s == JobStatusQueued || s == JobStatusStarted
}

// Job is a unit of work on the queue. TaskName is what the client asked for,
// FuncName is what the resolvers turned it into and what the worker runs.
type Job struct {
	ID         string         `json:"id"`
	Queue      string         `json:"queue"`
	TaskName   string         `json:"task_name"`
	FuncName   string         `json:"func_name"`
	Args       map[string]any `json:"args"`
	Status     JobStatus      `json:"status"`
	Result     any            `json:"result,omitempty"`
	ExcInfo    string         `json:"exc_info,omitempty"`
	EnqueuedAt time.Time      `json:"enqueued_at"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	EndedAt    *time.Time     `json:"ended_at,omitempty"`
}

func NewJob(queue, taskName, funcName string, args map[string]any) *Job {
	if args == nil {
		args = map[string]any{}
	}
	return &Job{
		ID:         uuid.New().String(),
		Queue:      queue,
		TaskName:   taskName,
		FuncName:   funcName,
		Args:       args,
		Status:     JobStatusQueued,
		EnqueuedAt: time.Now().UTC(),
	}
}

func (j *Job) IsFinished() bool {
	return j.Status == JobStatusFinished
}

func (j *Job) MarkStarted() {
	now := time.Now().UTC()
	j.Status = JobStatusStarted
	j.StartedAt = &now
}

func (j *Job) MarkFinished(result any) {
	now := time.Now().UTC()
	j.Status = JobStatusFinished
	j.Result = result
	j.EndedAt = &now
}

func (j *Job) MarkFailed(excInfo string) {
	now := time.Now().UTC()
	j.Status = JobStatusFailed
	j.ExcInfo = excInfo
	j.EndedAt = &now
}

// Clone returns a copy that shares no maps with j.
func (j *Job) Clone() *Job {
	c := *j
	if j.Args != nil {
		c.Args = make(map[string]any, len(j.Args))
		for k, v := range j.Args {
			c.Args[k] = v
		}
	}
	return &c
}

// TaskResult is the return value convention for tasks: Success tells the
// caller whether the task did what it was asked, Message explains why not.
type TaskResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func TaskSucceeded(data any) TaskResult {
	return TaskResult{Success: true, Data: data}
}

func TaskFailed(message string) TaskResult {
	return TaskResult{Success: false, Message: message}
}
