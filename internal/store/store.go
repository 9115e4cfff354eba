package store

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/alphabot-ai/boxshare/internal/model"
)

// Snapshotter loads and saves the whole box collection at once.
type Snapshotter interface {
	Load(ctx context.Context) ([]model.Box, error)
	Save(ctx context.Context, boxes []model.Box) error
}

// AssetRemover releases the stored asset behind a box.
type AssetRemover interface {
	Remove(ctx context.Context, ref string) error
}

type Rand interface {
	IntN(n int) int
}

type Option func(*Store)

func WithRand(r Rand) Option {
	return func(s *Store) { s.rnd = r }
}

func WithIDFunc(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

func WithAssets(a AssetRemover) Option {
	return func(s *Store) { s.assets = a }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) { s.log = l }
}

// Store holds the authoritative box collection. Every operation runs under a
// single mutex, and every mutation is followed by a full snapshot save.
type Store struct {
	mu     sync.Mutex
	boxes  []model.Box
	snap   Snapshotter
	assets AssetRemover
	rnd    Rand
	newID  func() string
	now    func() time.Time
	log    logrus.FieldLogger
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Open loads the current snapshot and returns a store serving it.
func Open(ctx context.Context, snap Snapshotter, opts ...Option) (*Store, error) {
	s := &Store{
		snap:  snap,
		rnd:   globalRand{},
		newID: uuid.NewString,
		now:   time.Now,
		log:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	boxes, err := snap.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	s.boxes = boxes
	s.log.WithField("boxes", len(boxes)).Debug("box snapshot loaded")
	return s, nil
}

func (s *Store) Create(ctx context.Context, in model.NewBox) (model.Box, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.Box{}, invalid("title", "is required")
	}
	if in.Type == "" {
		return model.Box{}, invalid("type", "is required")
	}
	if !in.Type.Valid() {
		return model.Box{}, invalid("type", fmt.Sprintf("%q is not supported", in.Type))
	}

	box := model.Box{
		Title:  title,
		Author: strings.TrimSpace(in.Author),
		Type:   in.Type,
	}
	var orphan string
	switch {
	case in.Type == model.TypeCode && strings.TrimSpace(in.Code) != "":
		box.Code = in.Code
		orphan = in.AssetRef
	case in.Type == model.TypeCode && in.AssetRef == "":
		return model.Box{}, invalid("code", "or file is required for code boxes")
	case in.AssetRef == "":
		return model.Box{}, invalid("file", "is required")
	default:
		box.FilePath = in.AssetRef
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	box.ID = s.newID()
	box.CreatedAt = s.now().UTC()

	prev := s.boxes
	next := make([]model.Box, len(prev), len(prev)+1)
	copy(next, prev)
	next = append(next, box)
	if err := s.commit(ctx, next); err != nil {
		return model.Box{}, err
	}

	if orphan != "" {
		s.releaseAsset(ctx, orphan)
	}
	return box, nil
}

func (s *Store) PickRandomAvailable(ctx context.Context) (model.Box, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	available := make([]int, 0, len(s.boxes))
	for i, b := range s.boxes {
		if !b.IsFlagged {
			available = append(available, i)
		}
	}
	if len(available) == 0 {
		return model.Box{}, ErrNoBoxes
	}
	return s.boxes[available[s.rnd.IntN(len(available))]], nil
}

func (s *Store) Get(ctx context.Context, id string) (model.Box, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Box{}, ErrBoxNotFound
	}
	return s.boxes[i], nil
}

func (s *Store) Flag(ctx context.Context, id string) (model.Box, error) {
	return s.setFlagged(ctx, id, true)
}

func (s *Store) Unflag(ctx context.Context, id string) (model.Box, error) {
	return s.setFlagged(ctx, id, false)
}

func (s *Store) setFlagged(ctx context.Context, id string, flagged bool) (model.Box, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Box{}, ErrBoxNotFound
	}
	next := make([]model.Box, len(s.boxes))
	copy(next, s.boxes)
	next[i].IsFlagged = flagged
	if err := s.commit(ctx, next); err != nil {
		return model.Box{}, err
	}
	return next[i], nil
}

// Delete removes the box and then its asset. A failed asset removal is
// logged; the record stays removed.
func (s *Store) Delete(ctx context.Context, id string) (model.Box, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Box{}, ErrBoxNotFound
	}
	removed := s.boxes[i]
	next := make([]model.Box, 0, len(s.boxes)-1)
	next = append(next, s.boxes[:i]...)
	next = append(next, s.boxes[i+1:]...)
	if err := s.commit(ctx, next); err != nil {
		return model.Box{}, err
	}

	if removed.HasAsset() {
		s.releaseAsset(ctx, removed.FilePath)
	}
	return removed, nil
}

func (s *Store) ListFlagged(ctx context.Context) ([]model.Box, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	flagged := make([]model.Box, 0)
	for _, b := range s.boxes {
		if b.IsFlagged {
			flagged = append(flagged, b)
		}
	}
	return flagged, nil
}

func (s *Store) Stats(ctx context.Context) (model.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := model.Stats{Total: len(s.boxes)}
	for _, b := range s.boxes {
		if b.IsFlagged {
			st.Flagged++
		}
	}
	st.Available = st.Total - st.Flagged
	return st, nil
}

// commit saves next and only then makes it the live collection.
// Callers hold s.mu.
func (s *Store) commit(ctx context.Context, next []model.Box) error {
	if err := s.snap.Save(ctx, next); err != nil {
		s.log.WithError(err).Error("save box snapshot")
		return fmt.Errorf("save snapshot: %w", err)
	}
	s.boxes = next
	return nil
}

func (s *Store) releaseAsset(ctx context.Context, ref string) {
	if s.assets == nil {
		return
	}
	if err := s.assets.Remove(ctx, ref); err != nil {
		s.log.WithError(err).WithField("asset", ref).Warn("remove asset")
	}
}

func (s *Store) indexOf(id string) int {
	for i, b := range s.boxes {
		if b.ID == id {
			return i
		}
	}
	return -1
}
