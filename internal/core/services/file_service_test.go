package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jobmonitor/backend/internal/config"
	"github.com/jobmonitor/backend/internal/domain"
	"github.com/jobmonitor/backend/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const histogramsYAML = `
objects:
  - name: histogram_0
    title: Gaussian
    class: TH1F
    x_axis: {title: x, bins: 2, low: -1, high: 1}
    y_axis: {title: Entries}
    contents: [4, 16]
  - name: run_info
    title: Run information
    class: TNamed
`

func newTestFileService(t *testing.T) (*FileService, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "histograms.yaml"), []byte(histogramsYAML), 0o644))
	return NewFileService(config.FilesConfig{Directory: dir, Extension: ".yaml"}, logger.NewNop()), dir
}

func TestAddFileExtension(t *testing.T) {
	s, _ := newTestFileService(t)
	assert.Equal(t, "histograms.yaml", s.AddFileExtension("histograms"))
	assert.Equal(t, "histograms.yaml", s.AddFileExtension("histograms.yaml"))

	bare := NewFileService(config.FilesConfig{Directory: "."}, logger.NewNop())
	assert.Equal(t, "histograms", bare.AddFileExtension("histograms"))
}

func TestFilePath(t *testing.T) {
	s, dir := newTestFileService(t)

	p, err := s.Path("histograms.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "histograms.yaml"), p)

	for _, bad := range []string{"", ".", "..", "../etc/passwd", `a\b`, "sub/file.yaml"} {
		_, err := s.Path(bad)
		assert.ErrorIs(t, err, ErrInvalidFileName, bad)
	}
}

func TestListFile(t *testing.T) {
	s, dir := newTestFileService(t)
	path := filepath.Join(dir, "histograms.yaml")

	res := s.ListFile(path)
	require.True(t, res.Success)
	listing := res.Data.(domain.FileListing)
	assert.Equal(t, path, listing.Filename)
	assert.Equal(t, []string{"histogram_0", "run_info"}, listing.Keys)
}

func TestGetKeyFromFile(t *testing.T) {
	s, dir := newTestFileService(t)
	path := filepath.Join(dir, "histograms.yaml")

	res := s.GetKeyFromFile(path, "histogram_0")
	require.True(t, res.Success)
	data := res.Data.(domain.KeyData)
	assert.Equal(t, "TH1F", data.KeyClass)
	assert.Equal(t, "histogram_0", data.KeyName)
	assert.Equal(t, []float64{4, 16}, data.KeyData.Values)
	assert.Equal(t, [2]float64{4, 4}, data.KeyData.Uncertainties[1])

	res = s.GetKeyFromFile(path, "missing")
	assert.False(t, res.Success)
	assert.Equal(t, "Could not find key `missing` in file `"+path+"`", res.Message)

	res = s.GetKeyFromFile(filepath.Join(dir, "absent.yaml"), "histogram_0")
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "Could not open file")
}
