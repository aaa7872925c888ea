package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jobmonitor/backend/internal/domain"
	"github.com/jobmonitor/backend/internal/infrastructure/logger"
)

const DefaultPollRate = 300 * time.Millisecond

// ErrJobNotFound is returned when the polling API does not know the job.
var ErrJobNotFound = errors.New("client: job not found")

// Job is the server's view of a job. Result stays raw until the caller
// knows what the task returns.
type Job struct {
	ID     string           `json:"id"`
	URI    string           `json:"uri"`
	Status domain.JobStatus `json:"status"`
	Result json.RawMessage  `json:"result"`
}

// TaskResult interprets the result of a finished job. Only an object whose
// success field is false counts as unsuccessful; any other value, including
// a bare number or an object without success, is carried in Data.
func (j *Job) TaskResult() (*TaskResult, error) {
	return decodeTaskResult(j.Result)
}

type TaskResult struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// JobState is one answer of the polling API.
type JobState struct {
	Status domain.JobStatus `json:"status"`
	JobID  string           `json:"job_id"`
	Result json.RawMessage  `json:"result,omitempty"`
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type Client struct {
	baseURL    string
	apiToken   string
	pollRate   time.Duration
	httpClient *http.Client
	logger     *logger.Logger
}

type Config struct {
	BaseURL  string
	APIToken string
	Timeout  time.Duration
	PollRate time.Duration
	Logger   *logger.Logger
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	pollRate := cfg.PollRate
	if pollRate <= 0 {
		pollRate = DefaultPollRate
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiToken:   cfg.APIToken,
		pollRate:   pollRate,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

// SubmitJob creates a job for taskName. With poll set it keeps polling the
// job's URI until the job is no longer pending and returns its final state;
// otherwise it returns the job as submitted.
func (c *Client) SubmitJob(ctx context.Context, taskName string, args map[string]any, poll bool) (*Job, error) {
	if args == nil {
		args = map[string]any{}
	}
	var resp struct {
		Job *Job `json:"job"`
	}
	body := map[string]any{"task_name": taskName, "args": args}
	if err := c.do(ctx, http.MethodPost, "/jobs", body, &resp); err != nil {
		c.logger.Warnw("client_job_submit_failed", "task", taskName, "error", err)
		return nil, err
	}
	if resp.Job == nil {
		return nil, &TransportError{StatusCode: http.StatusOK, Message: "response carries no job"}
	}
	c.logger.Debugw("client_job_submit_ok", "task", taskName, "id", resp.Job.ID)
	if !poll {
		return resp.Job, nil
	}
	return c.Poll(ctx, resp.Job)
}

// Poll re-reads job from its URI every poll interval while it is pending.
func (c *Client) Poll(ctx context.Context, job *Job) (*Job, error) {
	for job.Status.IsPending() {
		if err := c.wait(ctx); err != nil {
			return job, err
		}
		var resp struct {
			Job *Job `json:"job"`
		}
		target := job.URI
		if target == "" {
			target = "/jobs/" + url.PathEscape(job.ID)
		}
		if err := c.do(ctx, http.MethodGet, target, nil, &resp); err != nil {
			return job, err
		}
		if resp.Job == nil {
			return job, &TransportError{StatusCode: http.StatusOK, Message: "response carries no job"}
		}
		job = resp.Job
		c.logger.Debugw("client_job_poll", "id", job.ID, "status", job.Status)
	}
	return job, nil
}

// CreateTask submits a job, waits for it and checks its task result. Errors
// are a *TransportError, ErrJobFailed or a *TaskError; the job is returned
// alongside the latter two.
func (c *Client) CreateTask(ctx context.Context, taskName string, args map[string]any) (*Job, error) {
	job, err := c.SubmitJob(ctx, taskName, args, true)
	if err != nil {
		return nil, err
	}
	if job.Status == domain.JobStatusFailed {
		return job, ErrJobFailed
	}
	result, err := job.TaskResult()
	if err != nil {
		return job, err
	}
	if !result.Success {
		return job, &TaskError{Message: result.Message}
	}
	return job, nil
}

// Fetch asks the polling API once for the state of job id.
func (c *Client) Fetch(ctx context.Context, id string) (*JobState, error) {
	var env envelope
	if err := c.do(ctx, http.MethodGet, "/fetch/"+url.PathEscape(id), nil, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, env.Message)
	}
	var state JobState
	if err := json.Unmarshal(env.Data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse job state: %w", err)
	}
	return &state, nil
}

// WaitForResult polls Fetch until job id is done and returns its task
// result. A failed job gives ErrJobFailed, an unsuccessful task a *TaskError.
func (c *Client) WaitForResult(ctx context.Context, id string) (*TaskResult, error) {
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		state, err := c.Fetch(ctx, id)
		if err != nil {
			return nil, err
		}
		switch state.Status {
		case domain.JobStatusFinished:
			result, err := decodeTaskResult(state.Result)
			if err != nil {
				return nil, err
			}
			if !result.Success {
				return result, &TaskError{Message: result.Message}
			}
			return result, nil
		case domain.JobStatusFailed:
			return nil, ErrJobFailed
		}
		c.logger.Debugw("client_fetch_poll", "id", id, "status", state.Status)
	}
}

// ListFile returns the keys stored in a histogram file.
func (c *Client) ListFile(ctx context.Context, file string) (*domain.FileListing, error) {
	var listing domain.FileListing
	if err := c.runFileTask(ctx, "/files/"+url.PathEscape(file)+"/list", &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

// GetKey returns one object of a histogram file.
func (c *Client) GetKey(ctx context.Context, file, key string) (*domain.KeyData, error) {
	var data domain.KeyData
	path := "/files/" + url.PathEscape(file) + "/" + url.PathEscape(key)
	if err := c.runFileTask(ctx, path, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) runFileTask(ctx context.Context, path string, out any) error {
	var env envelope
	if err := c.do(ctx, http.MethodGet, path, nil, &env); err != nil {
		return err
	}
	if !env.Success {
		return &TaskError{Message: env.Message}
	}
	var receipt struct {
		Status string `json:"status"`
		JobID  string `json:"job_id"`
	}
	if err := json.Unmarshal(env.Data, &receipt); err != nil {
		return fmt.Errorf("failed to parse submission: %w", err)
	}
	result, err := c.WaitForResult(ctx, receipt.JobID)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("failed to parse task data: %w", err)
	}
	return nil
}

func (c *Client) wait(ctx context.Context) error {
	t := time.NewTimer(c.pollRate)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) resolve(target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}
	return c.baseURL + target
}

func (c *Client) do(ctx context.Context, method, target string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(target), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &TransportError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{StatusCode: resp.StatusCode, Message: err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := http.StatusText(resp.StatusCode)
		var errBody struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &errBody) == nil && errBody.Message != "" {
			message = errBody.Message
		}
		return &TransportError{StatusCode: resp.StatusCode, Message: message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func decodeTaskResult(raw json.RawMessage) (*TaskResult, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return &TaskResult{Success: true, Data: raw}, nil
	}

	var fields struct {
		Success *bool           `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("failed to parse task result: %w", err)
	}
	if fields.Success == nil {
		return &TaskResult{Success: true, Data: raw}, nil
	}
	return &TaskResult{Success: *fields.Success, Message: fields.Message, Data: fields.Data}, nil
}
