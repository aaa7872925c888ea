package services

import "errors"

// Job errors
var (
	ErrNoTaskName      = errors.New("job: no task name provided")
	ErrInvalidTaskName = errors.New("job: invalid task name")
	ErrHistoryDisabled = errors.New("job: history is not enabled")
	ErrUnknownFunction = errors.New("worker: unknown function")
	ErrTaskPanicked    = errors.New("worker: task panicked")
)

// Resolver errors
var (
	ErrResolverExists = errors.New("resolver: already registered")
)

// Task argument errors
var (
	ErrMissingArgument = errors.New("task: missing argument")
	ErrInvalidArgument = errors.New("task: invalid argument")
)

// File errors
var (
	ErrInvalidFileName = errors.New("file: invalid file name")
)
