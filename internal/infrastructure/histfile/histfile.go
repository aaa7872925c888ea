// Package histfile reads and writes histogram files. The format is YAML; JSON
// documents are accepted as well since they are valid YAML.
package histfile

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jobmonitor/backend/internal/domain"
	"gopkg.in/yaml.v3"
)

func Decode(data []byte) (*domain.HistogramFile, error) {
	var f domain.HistogramFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode histogram file: %w", err)
	}
	for i := range f.Objects {
		if err := f.Objects[i].Validate(); err != nil {
			return nil, err
		}
	}
	return &f, nil
}

func Open(path string) (*domain.HistogramFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

func Write(path string, f *domain.HistogramFile) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode histogram file: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
