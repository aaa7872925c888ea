package services

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jobmonitor/backend/internal/config"
	"github.com/jobmonitor/backend/internal/domain"
	"github.com/jobmonitor/backend/internal/infrastructure/histfile"
	"github.com/jobmonitor/backend/internal/infrastructure/logger"
)

// FileService locates histogram files under the files directory and reads
// them on behalf of the file tasks.
type FileService struct {
	dir string
	ext string
	log *logger.Logger
}

func NewFileService(cfg config.FilesConfig, log *logger.Logger) *FileService {
	return &FileService{dir: cfg.Directory, ext: cfg.Extension, log: log}
}

// AddFileExtension appends the configured extension unless name already has it.
func (s *FileService) AddFileExtension(name string) string {
	if s.ext == "" || strings.HasSuffix(name, s.ext) {
		return name
	}
	return name + s.ext
}

// Path returns the location of the file called name. Names are single path
// elements; anything that would escape the files directory is rejected.
func (s *FileService) Path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}
	return filepath.Join(s.dir, name), nil
}

func (s *FileService) ListFile(path string) domain.TaskResult {
	f, err := histfile.Open(path)
	if err != nil {
		s.log.Warnw("file_list_open_failed", "path", path, "error", err)
		return domain.TaskFailed(fmt.Sprintf("Could not open file `%s`", path))
	}
	s.log.Infow("file_list_ok", "path", path, "keys", len(f.Objects))
	return domain.TaskSucceeded(domain.FileListing{Filename: path, Keys: f.Keys()})
}

func (s *FileService) GetKeyFromFile(path, key string) domain.TaskResult {
	f, err := histfile.Open(path)
	if err != nil {
		s.log.Warnw("file_get_key_open_failed", "path", path, "error", err)
		return domain.TaskFailed(fmt.Sprintf("Could not open file `%s`", path))
	}
	obj, err := f.Get(key)
	if err != nil {
		s.log.Warnw("file_get_key_not_found", "path", path, "key", key)
		return domain.TaskFailed(fmt.Sprintf("Could not find key `%s` in file `%s`", key, path))
	}
	return domain.TaskSucceeded(domain.KeyData{
		Filename: path,
		KeyName:  obj.Name,
		KeyClass: obj.Class,
		KeyData:  obj.Data(),
	})
}
