package client

import (
	"errors"
	"fmt"
	"html"
)

var (
	// ErrJobFailed is returned when the worker could not run the job to completion.
	ErrJobFailed = errors.New("client: job failed")
	// ErrUnsupportedObject is returned by LoadHistogram for objects that are not TH1F.
	ErrUnsupportedObject = errors.New("client: unsupported object class")
)

// TransportError reports a request that never got a usable answer: the
// server could not be reached, or it replied with a non-2xx status.
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("client: request failed: %s", e.Message)
	}
	return fmt.Sprintf("client: server responded %d: %s", e.StatusCode, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// TaskError is returned when a job finished but its task reported success=false.
type TaskError struct {
	Message string
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("client: task unsuccessful: %s", e.Message)
}

// FailureHTML renders err as the paragraph shown to dashboard users.
func FailureHTML(err error) string {
	var transportErr *TransportError
	var taskErr *TaskError
	switch {
	case errors.As(err, &transportErr):
		return fmt.Sprintf(
			"<p>The server responded with the error code <code>%d</code> and the message <code>%s</code>.</p>",
			transportErr.StatusCode, html.EscapeString(transportErr.Message),
		)
	case errors.Is(err, ErrJobFailed):
		return "<p>The job completed unsuccessfully.</p>"
	case errors.As(err, &taskErr):
		return fmt.Sprintf(
			"<p>The task could not complete successfully. It returned the error message <code>%s</code>.</p>",
			html.EscapeString(taskErr.Message),
		)
	case err == nil:
		return ""
	default:
		return html.EscapeString(err.Error())
	}
}

// HistogramFailureHTML is the message shown in place of a histogram that
// could not be loaded.
func HistogramFailureHTML(file, key string) string {
	return fmt.Sprintf(
		"There was a problem retrieving histogram <code>%s</code> from file <code>%s</code>. Please contact the administrator.",
		html.EscapeString(key), html.EscapeString(file),
	)
}
