// Package memory keeps box snapshots in process memory.
package memory

import (
	"context"
	"sync"

	"github.com/alphabot-ai/boxshare/internal/model"
)

type Snapshot struct {
	mu    sync.Mutex
	boxes []model.Box
	saves int

	// SaveErr, when set, is returned by Save without storing anything.
	SaveErr error
}

func New(seed ...model.Box) *Snapshot {
	return &Snapshot{boxes: append([]model.Box(nil), seed...)}
}

func (s *Snapshot) Load(ctx context.Context) ([]model.Box, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Box(nil), s.boxes...), nil
}

func (s *Snapshot) Save(ctx context.Context, boxes []model.Box) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.boxes = append([]model.Box(nil), boxes...)
	s.saves++
	return nil
}

// Saves returns how many successful saves have happened.
func (s *Snapshot) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
