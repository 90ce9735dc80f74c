package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sitroom/sitrep/internal/domain"
)

// FileStore persists the monitor list as a JSON file with atomic
// temp-file-then-rename writes.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// LoadMonitors reads the monitor list. A missing file is an empty list,
// not an error.
func (s *FileStore) LoadMonitors(_ context.Context) ([]domain.Monitor, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Monitor{}, nil
		}
		return nil, fmt.Errorf("failed to read monitors file: %w", err)
	}

	var monitors []domain.Monitor
	if err := json.Unmarshal(b, &monitors); err != nil {
		return nil, fmt.Errorf("failed to unmarshal monitors file: %w", err)
	}
	return monitors, nil
}

// SaveMonitors writes the full list atomically.
func (s *FileStore) SaveMonitors(_ context.Context, monitors []domain.Monitor) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create monitors dir: %w", err)
	}

	b, err := json.MarshalIndent(monitors, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal monitors: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("failed to write monitors temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace monitors file: %w", err)
	}
	return nil
}
