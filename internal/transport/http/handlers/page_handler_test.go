package handlers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplatePath(t *testing.T) {
	h := NewPageHandler(nil, "/srv/templates", "Job Monitor", nil)

	path, err := h.templatePath("examples/table")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/srv/templates", "examples", "table.html"), path)

	for _, page := range []string{"", "/", "../secret", "examples/../../secret"} {
		_, err := h.templatePath(page)
		assert.ErrorIs(t, err, os.ErrNotExist, page)
	}
}

func TestRenderExposesActivePage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "errors"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "home.html"), []byte("{{.AppName}}|{{.ActivePage}}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "errors", "404.html"), []byte("{{.ActivePage}}"), 0o644))
	h := NewPageHandler(nil, dir, "JM", nil)

	body, err := h.render("home")
	require.NoError(t, err)
	assert.Equal(t, "JM|home", string(body))

	body, err = h.render(notFoundPage)
	require.NoError(t, err)
	assert.Equal(t, "404", string(body))

	_, err = h.render("absent")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
