// Package jsonfile persists box snapshots as a single JSON array on disk.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alphabot-ai/boxshare/internal/model"
)

type Snapshot struct {
	path string
}

func New(path string) *Snapshot {
	return &Snapshot{path: path}
}

func (s *Snapshot) Path() string {
	return s.path
}

// Load returns an empty collection when no snapshot file exists yet.
func (s *Snapshot) Load(ctx context.Context) ([]model.Box, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []model.Box{}, nil
	}
	if err != nil {
		return nil, err
	}
	boxes := []model.Box{}
	if len(data) == 0 {
		return boxes, nil
	}
	if err := json.Unmarshal(data, &boxes); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return boxes, nil
}

// Save overwrites the snapshot. The new content is written to a temp file in
// the same directory and renamed into place.
func (s *Snapshot) Save(ctx context.Context, boxes []model.Box) error {
	if boxes == nil {
		boxes = []model.Box{}
	}
	data, err := json.MarshalIndent(boxes, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
