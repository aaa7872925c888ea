package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func moduleResolver(id, module string) ResolverFunc {
	return ResolverFunc{ID: id, Fn: func(task string) (string, bool) {
		return module + "." + task, true
	}}
}

func TestResolverChainAddRejectsDuplicates(t *testing.T) {
	chain, err := NewResolverChain(moduleResolver("foo", "foo"))
	require.NoError(t, err)

	err = chain.Add(moduleResolver("foo", "other"))
	assert.ErrorIs(t, err, ErrResolverExists)
	assert.Len(t, chain.Resolvers(), 1)
}

func TestResolverChainOrder(t *testing.T) {
	only := ResolverFunc{ID: "only-baz", Fn: func(task string) (string, bool) {
		if task == "baz" {
			return "special.baz", true
		}
		return "", false
	}}
	chain, err := NewResolverChain(only, moduleResolver("foo", "foo"))
	require.NoError(t, err)

	name, ok := chain.Resolve("baz")
	require.True(t, ok)
	assert.Equal(t, "special.baz", name)

	name, ok = chain.Resolve("bar")
	require.True(t, ok)
	assert.Equal(t, "foo.bar", name)
}

func TestResolverChainRemove(t *testing.T) {
	chain, err := NewResolverChain(moduleResolver("foo", "foo"))
	require.NoError(t, err)

	chain.Remove("foo")
	chain.Remove("never-added")

	_, ok := chain.Resolve("bar")
	assert.False(t, ok)
	assert.Empty(t, chain.Resolvers())
}

func TestResolverChainNoneResolve(t *testing.T) {
	never := ResolverFunc{ID: "never", Fn: func(string) (string, bool) { return "", false }}
	empty := ResolverFunc{ID: "empty", Fn: func(string) (string, bool) { return "", true }}
	chain, err := NewResolverChain(never, empty)
	require.NoError(t, err)

	_, ok := chain.Resolve("anything")
	assert.False(t, ok)
}

func TestPrefixResolverWithRegistry(t *testing.T) {
	registry := NewTaskRegistry()
	registry.Register("tasks.add", addTask)
	r := PrefixResolver{Prefix: TaskPrefix, Registry: registry}

	name, ok := r.Resolve("add")
	require.True(t, ok)
	assert.Equal(t, "tasks.add", name)

	_, ok = r.Resolve("subtract")
	assert.False(t, ok)
	_, ok = r.Resolve("")
	assert.False(t, ok)
	assert.True(t, strings.HasPrefix(r.Name(), "prefix:"))
}

func TestPrefixResolverWithoutRegistry(t *testing.T) {
	r := PrefixResolver{Prefix: "monitoring_app.tasks"}
	name, ok := r.Resolve("anything")
	require.True(t, ok)
	assert.Equal(t, "monitoring_app.tasks.anything", name)
}
