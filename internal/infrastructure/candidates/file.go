// Package candidates supplies the classification candidates from a YAML
// file maintained by the owning application. The file is re-read per
// pipeline run so edits apply without a restart.
package candidates

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"docvault/internal/core/domain"
)

type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Candidates(ctx context.Context) (domain.Candidates, error) {
	if s.path == "" {
		return domain.Candidates{}, nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Candidates{}, nil
		}
		return domain.Candidates{}, fmt.Errorf("read candidates file: %w", err)
	}

	var candidates domain.Candidates
	if err := yaml.Unmarshal(data, &candidates); err != nil {
		return domain.Candidates{}, fmt.Errorf("parse candidates file: %w", err)
	}
	return candidates, nil
}
