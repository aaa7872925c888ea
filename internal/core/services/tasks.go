package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/jobmonitor/backend/internal/core/ports"
)

// TaskPrefix is the namespace the built-in tasks are registered under.
const TaskPrefix = "tasks"

// TaskFunc runs a job. Arguments arrive as decoded JSON, so numbers are float64.
// A returned error fails the job; a task that ran but could not do its work
// should instead return a domain.TaskResult with Success false.
type TaskFunc func(ctx context.Context, args map[string]any) (any, error)

type TaskRegistry struct {
	mu    sync.RWMutex
	tasks map[string]TaskFunc
}

func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{tasks: make(map[string]TaskFunc)}
}

func (r *TaskRegistry) Register(name string, fn TaskFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[name] = fn
}

func (r *TaskRegistry) Lookup(name string) (TaskFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.tasks[name]
	return fn, ok
}

func (r *TaskRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterBuiltinTasks installs add, list_file and get_key_from_file.
func RegisterBuiltinTasks(r *TaskRegistry, files ports.FileService) {
	r.Register(TaskPrefix+".add", addTask)
	r.Register(TaskPrefix+".list_file", func(ctx context.Context, args map[string]any) (any, error) {
		filename, err := stringArg(args, "filename")
		if err != nil {
			return nil, err
		}
		return files.ListFile(filename), nil
	})
	r.Register(TaskPrefix+".get_key_from_file", func(ctx context.Context, args map[string]any) (any, error) {
		filename, err := stringArg(args, "filename")
		if err != nil {
			return nil, err
		}
		key, err := stringArg(args, "key_name")
		if err != nil {
			return nil, err
		}
		return files.GetKeyFromFile(filename, key), nil
	})
}

func addTask(ctx context.Context, args map[string]any) (any, error) {
	a, err := numberArg(args, "a")
	if err != nil {
		return nil, err
	}
	b, err := numberArg(args, "b")
	if err != nil {
		return nil, err
	}
	return a + b, nil
}

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidArgument, key)
	}
	return s, nil
}

func numberArg(args map[string]any, key string) (float64, error) {
	v, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingArgument, key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	default:
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidArgument, key)
	}
}
