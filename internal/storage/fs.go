package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FSStorage implements ObjectStorage on the local filesystem. Object keys
// map directly to paths under the root directory. This is the default for
// local development; nothing about the key scheme is filesystem-specific.
type FSStorage struct {
	root string
}

// NewFSStorage creates a filesystem-backed storage rooted at dir.
func NewFSStorage(dir string) *FSStorage {
	return &FSStorage{root: dir}
}

// EnsureBucket creates the root directory if needed.
func (s *FSStorage) EnsureBucket(ctx context.Context) error {
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return fmt.Errorf("failed to create storage root: %w", err)
	}
	return nil
}

func (s *FSStorage) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Upload writes the object to disk, creating parent directories.
func (s *FSStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create object file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, reader); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}

	return nil
}

// Download opens the object for reading.
func (s *FSStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(key))
	if err != nil {
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	return f, nil
}

// List enumerates objects under a key prefix.
func (s *FSStorage) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, ObjectInfo{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	return objects, nil
}

// Delete removes the object and prunes empty parent directories.
func (s *FSStorage) Delete(ctx context.Context, key string) error {
	path := s.path(key)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete object: %w", err)
	}

	// Best-effort cleanup of the instance directory once it drains.
	dir := filepath.Dir(path)
	for dir != s.root {
		if err := os.Remove(dir); err != nil {
			break
		}
		dir = filepath.Dir(dir)
	}

	return nil
}

// Exists checks if an object exists.
func (s *FSStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object: %w", err)
	}
	return true, nil
}
