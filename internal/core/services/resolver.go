package services

import (
	"fmt"
	"sync"
)

// JobResolver turns a task name received from a client into the name of
// the function a worker should run. Resolve returns false when it does not
// know the task.
type JobResolver interface {
	Name() string
	Resolve(taskName string) (string, bool)
}

// ResolverChain asks its resolvers in the order they were added; the first
// one that answers wins.
type ResolverChain struct {
	mu        sync.RWMutex
	resolvers []JobResolver
}

func NewResolverChain(resolvers ...JobResolver) (*ResolverChain, error) {
	c := &ResolverChain{}
	for _, r := range resolvers {
		if err := c.Add(r); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *ResolverChain) Add(r JobResolver) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.resolvers {
		if existing.Name() == r.Name() {
			return fmt.Errorf("%w: %s", ErrResolverExists, r.Name())
		}
	}
	c.resolvers = append(c.resolvers, r)
	return nil
}

func (c *ResolverChain) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, r := range c.resolvers {
		if r.Name() == name {
			c.resolvers = append(c.resolvers[:i], c.resolvers[i+1:]...)
			return
		}
	}
}

func (c *ResolverChain) Resolvers() []JobResolver {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]JobResolver, len(c.resolvers))
	copy(out, c.resolvers)
	return out
}

func (c *ResolverChain) Resolve(taskName string) (string, bool) {
	for _, r := range c.Resolvers() {
		if name, ok := r.Resolve(taskName); ok && name != "" {
			return name, true
		}
	}
	return "", false
}

// PrefixResolver maps "bar" to "<Prefix>.bar". With a Registry it only
// answers for functions the registry knows, otherwise it answers for anything.
type PrefixResolver struct {
	Prefix   string
	Registry *TaskRegistry
}

func (r PrefixResolver) Name() string {
	return "prefix:" + r.Prefix
}

func (r PrefixResolver) Resolve(taskName string) (string, bool) {
	if taskName == "" {
		return "", false
	}
	name := r.Prefix + "." + taskName
	if r.Registry != nil {
		if _, ok := r.Registry.Lookup(name); !ok {
			return "", false
		}
	}
	return name, true
}

// ResolverFunc adapts a plain function into a named JobResolver.
type ResolverFunc struct {
	ID string
	Fn func(taskName string) (string, bool)
}

func (r ResolverFunc) Name() string { return r.ID }

func (r ResolverFunc) Resolve(taskName string) (string, bool) { return r.Fn(taskName) }
