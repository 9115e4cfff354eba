package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Disk keeps assets as plain files in one directory.
type Disk struct {
	dir string
	now func() time.Time
}

func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &Disk{dir: dir, now: time.Now}, nil
}

func (d *Disk) Dir() string {
	return d.dir
}

func (d *Disk) Put(ctx context.Context, originalName string, r io.Reader) (string, error) {
	name := NewName(d.now(), originalName)
	f, err := os.OpenFile(filepath.Join(d.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write asset: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return Ref(name), nil
}

func (d *Disk) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	name, err := NameFromRef(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(d.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (d *Disk) Remove(ctx context.Context, ref string) error {
	name, err := NameFromRef(ref)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(d.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}
