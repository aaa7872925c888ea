package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "app_name: Web Monitor\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Web Monitor", cfg.AppName)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Queue.Backend)
	assert.Equal(t, "default", cfg.Queue.Name)
	assert.Equal(t, 300*time.Millisecond, cfg.Queue.PollInterval)
	assert.Equal(t, ".yaml", cfg.Files.Extension)
	assert.Equal(t, "redis://localhost:6379", cfg.Redis.URL)
}

func TestLoadDefaultChildren(t *testing.T) {
	path := writeConfig(t, `
pages:
  default_children:
    - parent: ""
      child: velo_view
    - parent: velo_view
      child: velo_view/overview
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	m := cfg.Pages.DefaultChildMap()
	assert.Equal(t, "velo_view", m[""])
	assert.Equal(t, "velo_view/overview", m["velo_view"])
}

func TestLoadEnvironmentOverride(t *testing.T) {
	path := writeConfig(t, "redis:\n  url: redis://from-file:6379\n")
	t.Setenv("JOBMONITOR_REDIS_URL", "redis://from-env:6380")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "redis://from-env:6380", cfg.Redis.URL)
}

func TestLoadRejectsDetachedMemoryQueue(t *testing.T) {
	path := writeConfig(t, "queue:\n  backend: memory\n  embedded: false\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, "queue:\n  backend: kafka\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateNormalisesExtension(t *testing.T) {
	cfg := Config{Queue: QueueConfig{Backend: "redis"}, Files: FilesConfig{Extension: "json"}}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ".json", cfg.Files.Extension)
	assert.Equal(t, 1, cfg.Queue.Workers)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
