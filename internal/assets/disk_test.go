package assets

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskPutOpenRemove(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	d, err := NewDisk(dir)
	require.NoError(t, err)
	d.now = func() time.Time { return time.UnixMilli(1700000000000) }
	ctx := context.Background()

	ref, err := d.Put(ctx, "cat photo.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "/uploads/1700000000000-"))
	assert.True(t, strings.HasSuffix(ref, "-cat_photo.png"))

	rc, err := d.Open(ctx, ref)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, d.Remove(ctx, ref))
	_, err = d.Open(ctx, ref)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, d.Remove(ctx, ref), ErrNotFound)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDiskRejectsEscapingRefs(t *testing.T) {
	d, err := NewDisk(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, ref := range []string{"", "/etc/passwd", "/uploads/", "/uploads/../secret", "/uploads/a/b", "uploads/x"} {
		_, err := d.Open(ctx, ref)
		assert.ErrorIs(t, err, ErrNotFound, ref)
		assert.ErrorIs(t, d.Remove(ctx, ref), ErrNotFound, ref)
	}
}

func TestNewNameSanitizes(t *testing.T) {
	now := time.UnixMilli(42)
	tests := map[string]string{
		"song.mp3":             "song.mp3",
		"../../etc/passwd":     "passwd",
		`C:\Users\me\pic.jpg`:  "pic.jpg",
		"héllo wörld.png":      "h_llo_w_rld.png",
		"":                     "file",
		"...":                  "file",
	}
	for in, want := range tests {
		name := NewName(now, in)
		parts := strings.SplitN(name, "-", 3)
		require.Len(t, parts, 3, name)
		assert.Equal(t, "42", parts[0])
		assert.Len(t, parts[1], 8)
		assert.Equal(t, want, parts[2], in)
	}
}
