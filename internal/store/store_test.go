package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphabot-ai/boxshare/internal/model"
	"github.com/alphabot-ai/boxshare/internal/store"
	"github.com/alphabot-ai/boxshare/internal/store/memory"
)

type fixedRand struct{ n int }

func (f fixedRand) IntN(n int) int { return f.n % n }

type recordingAssets struct {
	removed []string
	err     error
}

func (r *recordingAssets) Remove(ctx context.Context, ref string) error {
	r.removed = append(r.removed, ref)
	return r.err
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("box-%d", n)
	}
}

func newStore(t *testing.T, opts ...store.Option) (*store.Store, *memory.Snapshot, *recordingAssets) {
	t.Helper()
	snap := memory.New()
	assets := &recordingAssets{}
	base := []store.Option{
		store.WithIDFunc(sequentialIDs()),
		store.WithAssets(assets),
		store.WithClock(func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }),
	}
	st, err := store.Open(context.Background(), snap, append(base, opts...)...)
	require.NoError(t, err)
	return st, snap, assets
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    model.NewBox
		field string
	}{
		{"empty title", model.NewBox{Type: model.TypeImage, AssetRef: "/uploads/a.png"}, "title"},
		{"blank title", model.NewBox{Title: "   ", Type: model.TypeImage, AssetRef: "/uploads/a.png"}, "title"},
		{"empty type", model.NewBox{Title: "Cat", AssetRef: "/uploads/a.png"}, "type"},
		{"unknown type", model.NewBox{Title: "Cat", Type: "video", AssetRef: "/uploads/a.mp4"}, "type"},
		{"image without asset", model.NewBox{Title: "Cat", Type: model.TypeImage}, "file"},
		{"audio without asset", model.NewBox{Title: "Song", Type: model.TypeAudio, Code: "ignored"}, "file"},
		{"code without code or asset", model.NewBox{Title: "Snippet", Type: model.TypeCode}, "code"},
		{"whitespace-only code", model.NewBox{Title: "Snippet", Type: model.TypeCode, Code: "   \n\t"}, "code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, snap, _ := newStore(t)
			_, err := st.Create(context.Background(), tt.in)
			require.Error(t, err)

			var ve *store.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.True(t, store.IsValidation(err))
			assert.Zero(t, snap.Saves())
		})
	}
}

func TestCreateImageBox(t *testing.T) {
	st, snap, _ := newStore(t)

	box, err := st.Create(context.Background(), model.NewBox{
		Title:    "Cat",
		Type:     model.TypeImage,
		AssetRef: "/uploads/1.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "box-1", box.ID)
	assert.Equal(t, "/uploads/1.png", box.FilePath)
	assert.Empty(t, box.Code)
	assert.Empty(t, box.Author)
	assert.False(t, box.IsFlagged)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), box.CreatedAt)

	saved, err := snap.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, box, saved[0])
}

func TestCreateCodeBox(t *testing.T) {
	st, _, assets := newStore(t)

	box, err := st.Create(context.Background(), model.NewBox{
		Title:  "Hello",
		Author: "gopher",
		Type:   model.TypeCode,
		Code:   `fmt.Println("hi")`,
	})
	require.NoError(t, err)
	assert.Equal(t, `fmt.Println("hi")`, box.Code)
	assert.Empty(t, box.FilePath)
	assert.Empty(t, assets.removed)
}

func TestCreateCodeBoxWithBothReleasesAsset(t *testing.T) {
	st, _, assets := newStore(t)

	box, err := st.Create(context.Background(), model.NewBox{
		Title:    "Hello",
		Type:     model.TypeCode,
		Code:     "package main",
		AssetRef: "/uploads/main.go",
	})
	require.NoError(t, err)
	assert.Equal(t, "package main", box.Code)
	assert.Empty(t, box.FilePath)
	assert.Equal(t, []string{"/uploads/main.go"}, assets.removed)
}

func TestCreateCodeBoxFromFile(t *testing.T) {
	st, _, _ := newStore(t)

	box, err := st.Create(context.Background(), model.NewBox{
		Title:    "Upload",
		Type:     model.TypeCode,
		AssetRef: "/uploads/main.go",
	})
	require.NoError(t, err)
	assert.Empty(t, box.Code)
	assert.Equal(t, "/uploads/main.go", box.FilePath)
}

func TestCreateAssignsDistinctIDs(t *testing.T) {
	snap := memory.New()
	st, err := store.Open(context.Background(), snap)
	require.NoError(t, err)

	const n = 25
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		box, err := st.Create(context.Background(), model.NewBox{
			Title: fmt.Sprintf("snippet %d", i),
			Type:  model.TypeCode,
			Code:  "x",
		})
		require.NoError(t, err)
		assert.False(t, seen[box.ID], "duplicate id %s", box.ID)
		seen[box.ID] = true
	}

	stats, err := st.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, n, stats.Total)
	assert.Equal(t, n, snap.Saves())
}

func TestPickRandomAvailable(t *testing.T) {
	st, _, _ := newStore(t, store.WithRand(fixedRand{n: 1}))
	ctx := context.Background()

	_, err := st.PickRandomAvailable(ctx)
	assert.ErrorIs(t, err, store.ErrNoBoxes)
	assert.ErrorIs(t, err, store.ErrNotFound)

	a, err := st.Create(ctx, model.NewBox{Title: "a", Type: model.TypeCode, Code: "a"})
	require.NoError(t, err)
	b, err := st.Create(ctx, model.NewBox{Title: "b", Type: model.TypeCode, Code: "b"})
	require.NoError(t, err)
	c, err := st.Create(ctx, model.NewBox{Title: "c", Type: model.TypeCode, Code: "c"})
	require.NoError(t, err)

	_, err = st.Flag(ctx, a.ID)
	require.NoError(t, err)

	// available is [b, c]; index 1 selects c
	got, err := st.PickRandomAvailable(ctx)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = st.Flag(ctx, c.ID)
	require.NoError(t, err)
	got, err = st.PickRandomAvailable(ctx)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
}

func TestPickRandomNeverReturnsFlagged(t *testing.T) {
	st, _, _ := newStore(t)
	ctx := context.Background()

	available := map[string]bool{}
	for i := 0; i < 10; i++ {
		box, err := st.Create(ctx, model.NewBox{Title: fmt.Sprint(i), Type: model.TypeCode, Code: "x"})
		require.NoError(t, err)
		if i%2 == 0 {
			_, err = st.Flag(ctx, box.ID)
			require.NoError(t, err)
		} else {
			available[box.ID] = true
		}
	}

	for i := 0; i < 200; i++ {
		got, err := st.PickRandomAvailable(ctx)
		require.NoError(t, err)
		require.True(t, available[got.ID], "picked flagged box %s", got.ID)
	}
}

func TestOnlyFlaggedBoxesIsNotFound(t *testing.T) {
	st, _, _ := newStore(t)
	ctx := context.Background()

	box, err := st.Create(ctx, model.NewBox{Title: "Cat", Type: model.TypeImage, AssetRef: "/uploads/1.png"})
	require.NoError(t, err)

	flagged, err := st.Flag(ctx, box.ID)
	require.NoError(t, err)
	assert.True(t, flagged.IsFlagged)

	_, err = st.PickRandomAvailable(ctx)
	assert.ErrorIs(t, err, store.ErrNoBoxes)
}

func TestFlagUnflagLifecycle(t *testing.T) {
	st, snap, _ := newStore(t)
	ctx := context.Background()

	box, err := st.Create(ctx, model.NewBox{Title: "Cat", Type: model.TypeImage, AssetRef: "/uploads/1.png"})
	require.NoError(t, err)

	_, err = st.Flag(ctx, box.ID)
	require.NoError(t, err)
	flagged, err := st.ListFlagged(ctx)
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, box.ID, flagged[0].ID)

	_, err = st.Unflag(ctx, box.ID)
	require.NoError(t, err)
	flagged, err = st.ListFlagged(ctx)
	require.NoError(t, err)
	assert.Empty(t, flagged)

	saved, err := snap.Load(ctx)
	require.NoError(t, err)
	assert.False(t, saved[0].IsFlagged)
	assert.Equal(t, 3, snap.Saves())
}

func TestFlagUnknownID(t *testing.T) {
	st, snap, _ := newStore(t)
	ctx := context.Background()

	_, err := st.Flag(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrBoxNotFound)
	_, err = st.Unflag(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrBoxNotFound)
	assert.Zero(t, snap.Saves())
}

func TestDeleteRemovesBoxAndAsset(t *testing.T) {
	st, _, assets := newStore(t)
	ctx := context.Background()

	img, err := st.Create(ctx, model.NewBox{Title: "Cat", Type: model.TypeImage, AssetRef: "/uploads/1.png"})
	require.NoError(t, err)
	code, err := st.Create(ctx, model.NewBox{Title: "Hi", Type: model.TypeCode, Code: "x"})
	require.NoError(t, err)
	_, err = st.Flag(ctx, img.ID)
	require.NoError(t, err)

	removed, err := st.Delete(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, img.ID, removed.ID)
	assert.Equal(t, []string{"/uploads/1.png"}, assets.removed)

	_, err = st.Get(ctx, img.ID)
	assert.ErrorIs(t, err, store.ErrBoxNotFound)
	flagged, err := st.ListFlagged(ctx)
	require.NoError(t, err)
	assert.Empty(t, flagged)

	_, err = st.Delete(ctx, code.ID)
	require.NoError(t, err)
	assert.Len(t, assets.removed, 1, "code boxes have no asset to remove")
}

func TestDeleteMissingLeavesCollection(t *testing.T) {
	st, snap, assets := newStore(t)
	ctx := context.Background()

	_, err := st.Create(ctx, model.NewBox{Title: "Hi", Type: model.TypeCode, Code: "x"})
	require.NoError(t, err)

	_, err = st.Delete(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrBoxNotFound)

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, snap.Saves())
	assert.Empty(t, assets.removed)
}

func TestDeleteAssetFailureStillRemoves(t *testing.T) {
	st, snap, assets := newStore(t)
	assets.err = errors.New("disk gone")
	ctx := context.Background()

	box, err := st.Create(ctx, model.NewBox{Title: "Cat", Type: model.TypeImage, AssetRef: "/uploads/1.png"})
	require.NoError(t, err)

	_, err = st.Delete(ctx, box.ID)
	require.NoError(t, err)

	saved, err := snap.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestSaveFailureRollsBack(t *testing.T) {
	st, snap, assets := newStore(t)
	ctx := context.Background()

	box, err := st.Create(ctx, model.NewBox{Title: "Cat", Type: model.TypeImage, AssetRef: "/uploads/1.png"})
	require.NoError(t, err)

	snap.SaveErr = errors.New("disk full")

	_, err = st.Create(ctx, model.NewBox{Title: "Dog", Type: model.TypeImage, AssetRef: "/uploads/2.png"})
	assert.ErrorIs(t, err, snap.SaveErr)
	_, err = st.Flag(ctx, box.ID)
	assert.ErrorIs(t, err, snap.SaveErr)
	_, err = st.Delete(ctx, box.ID)
	assert.ErrorIs(t, err, snap.SaveErr)

	got, err := st.Get(ctx, box.ID)
	require.NoError(t, err)
	assert.False(t, got.IsFlagged)
	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Stats{Total: 1, Available: 1}, stats)
	assert.Empty(t, assets.removed)
}

func TestOpenLoadsExistingSnapshot(t *testing.T) {
	snap := memory.New(
		model.Box{ID: "a", Title: "A", Type: model.TypeCode, Code: "x"},
		model.Box{ID: "b", Title: "B", Type: model.TypeCode, Code: "y", IsFlagged: true},
	)
	st, err := store.Open(context.Background(), snap)
	require.NoError(t, err)

	stats, err := st.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Stats{Total: 2, Flagged: 1, Available: 1}, stats)

	got, err := st.PickRandomAvailable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)
}
