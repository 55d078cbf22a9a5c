package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/KunalSingh5431/smartPDF/internal/shared/storage/object"
)

// Store keeps PDFs under a directory on disk. The same directory is served
// read-only at /uploads.
type Store struct {
	root string
}

func New(root string) *Store {
	return &Store{root: root}
}

// Save writes to a temp file next to the target and renames it into place,
// so readers never see a partial PDF.
func (s *Store) Save(ctx context.Context, storageKey, _ string, r io.Reader) (int64, error) {
	dst, err := s.path(ctx, storageKey)
	if err != nil {
		return 0, err
	}
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("local store: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("local store: temp file: %w", err)
	}
	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmp.Name(), 0o644)
	}
	if err == nil {
		err = os.Rename(tmp.Name(), dst)
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("local store: write %s: %w", storageKey, err)
	}
	return n, nil
}

func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	p, err := s.path(ctx, storageKey)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", object.ErrNotFound, storageKey)
	case err != nil:
		return nil, fmt.Errorf("local store: open %s: %w", storageKey, err)
	}
	return f, nil
}

// Delete ignores files that are already gone.
func (s *Store) Delete(ctx context.Context, storageKey string) error {
	p, err := s.path(ctx, storageKey)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("local store: remove %s: %w", storageKey, err)
}

func (s *Store) path(ctx context.Context, storageKey string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := object.CleanKey(storageKey)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

var _ object.ObjectStore = (*Store)(nil)
