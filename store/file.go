package store

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileBackend stores content under a root directory on the local
// filesystem, one file per location.
type FileBackend struct {
	root string
}

// NewFileBackend creates a backend rooted at dir, creating the directory
// if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty root directory", ErrInvalidLocation)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: creating root directory: %w", err)
	}
	return &FileBackend{root: dir}, nil
}

func (f *FileBackend) path(location string) (string, error) {
	if err := validLocation(location); err != nil {
		return "", fmt.Errorf("%w: %q", err, location)
	}
	return filepath.Join(f.root, filepath.FromSlash(location)), nil
}

// Put stores data at location, creating intermediate directories.
func (f *FileBackend) Put(ctx context.Context, location string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := f.path(location)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("store: creating directories for %q: %w", location, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("store: writing %q: %w", location, err)
	}
	return nil
}

// Get returns the content at location.
func (f *FileBackend) Get(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := f.path(location)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, location)
		}
		return nil, fmt.Errorf("store: reading %q: %w", location, err)
	}
	return data, nil
}

// Delete removes the content at location.
func (f *FileBackend) Delete(ctx context.Context, location string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := f.path(location)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %q", ErrNotFound, location)
		}
		return fmt.Errorf("store: removing %q: %w", location, err)
	}
	return nil
}

// List returns all locations with the given prefix, sorted.
func (f *FileBackend) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []string
	err := filepath.WalkDir(f.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(f.root, path)
		if err != nil {
			return err
		}
		location := filepath.ToSlash(rel)
		if strings.HasPrefix(location, prefix) {
			out = append(out, location)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: listing %q: %w", prefix, err)
	}
	sort.Strings(out)
	return out, nil
}

// Close is a no-op for the file backend.
func (f *FileBackend) Close() error { return nil }
