package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphabot-ai/boxshare/internal/model"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	snap := New(filepath.Join(t.TempDir(), "boxes.json"))

	boxes, err := snap.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, boxes)
	assert.NotNil(t, boxes)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "boxes.json")
	snap := New(path)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	want := []model.Box{
		{ID: "1", Title: "Cat", Type: model.TypeImage, FilePath: "/uploads/1-cat.png", IsFlagged: true, CreatedAt: created},
		{ID: "2", Title: "Hello", Author: "gopher", Type: model.TypeCode, Code: "package main", CreatedAt: created},
	}

	require.NoError(t, snap.Save(context.Background(), want))

	got, err := snap.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestSaveWritesJSONArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boxes.json")
	snap := New(path)

	require.NoError(t, snap.Save(context.Background(), []model.Box{
		{ID: "2", Title: "Hello", Type: model.TypeCode, Code: "x"},
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"isFlagged": false`)
	assert.Contains(t, string(data), `"code": "x"`)
	assert.NotContains(t, string(data), `"filePath"`)

	require.NoError(t, snap.Save(context.Background(), nil))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestSaveFileIsWorldReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boxes.json")
	snap := New(path)

	require.NoError(t, snap.Save(context.Background(), []model.Box{{ID: "1", Title: "Cat", Type: model.TypeImage, FilePath: "/uploads/1-cat.png"}}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boxes.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := New(path).Load(context.Background())
	assert.Error(t, err)
}
