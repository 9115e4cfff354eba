// Package assets stores the binary files behind image and audio boxes.
//
// Assets are addressed by references of the form "/uploads/<name>", which is
// also the path they are served under.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const Prefix = "/uploads/"

var ErrNotFound = errors.New("asset not found")

type Storage interface {
	Put(ctx context.Context, originalName string, r io.Reader) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Remove(ctx context.Context, ref string) error
}

// NewName builds a unique stored name from the client-supplied file name.
func NewName(now time.Time, originalName string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%s-%s", now.UnixMilli(), suffix, sanitize(originalName))
}

// NameFromRef extracts the stored name from a reference, rejecting anything
// that would escape the asset namespace.
func NameFromRef(ref string) (string, error) {
	if !strings.HasPrefix(ref, Prefix) {
		return "", ErrNotFound
	}
	name := strings.TrimPrefix(ref, Prefix)
	if name == "" || name != path.Base(name) || name == "." || name == ".." {
		return "", ErrNotFound
	}
	return name, nil
}

func Ref(name string) string {
	return Prefix + name
}

func sanitize(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		return "file"
	}
	if len(out) > 100 {
		out = out[len(out)-100:]
	}
	return out
}
