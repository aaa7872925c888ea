package dto

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jobmonitor/backend/internal/core/ports"
	"github.com/jobmonitor/backend/internal/domain"
)

type CreateJobRequest struct {
	TaskName string         `json:"task_name"`
	Args     map[string]any `json:"args"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

// JobResponse is the public view of a job. URI points at the job's own
// resource so clients can poll it directly.
type JobResponse struct {
	ID     string           `json:"id"`
	URI    string           `json:"uri"`
	Status domain.JobStatus `json:"status"`
	Result any              `json:"result"`
}

func JobURI(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/jobs/" + id
}

func JobToResponse(job *domain.Job, baseURL string) JobResponse {
	return JobResponse{
		ID:     job.ID,
		URI:    JobURI(baseURL, job.ID),
		Status: job.Status,
		Result: job.Result,
	}
}

func JobsToResponse(jobs []*domain.Job, baseURL string) []JobResponse {
	out := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, JobToResponse(job, baseURL))
	}
	return out
}

// Envelope wraps responses of the polling and files APIs.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func EnvelopeFailure(message string) Envelope {
	return Envelope{Success: false, Message: message}
}

func SubmitEnvelope(receipt *ports.SubmitReceipt) Envelope {
	return Envelope{Success: true, Data: receipt}
}

// FetchEnvelope keeps a null result visible once the job finished, which
// is why the payload is a map rather than a struct with omitempty.
func FetchEnvelope(state *ports.JobState) Envelope {
	data := fiber.Map{
		"status": state.Status,
		"job_id": state.JobID,
	}
	if state.HasResult {
		data["result"] = state.Result
	}
	return Envelope{Success: true, Data: data}
}
