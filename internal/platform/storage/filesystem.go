// Package storage provides object storage backends for task attachments.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FilesystemStorage stores objects as files under a root directory. The
// object key becomes the relative path. It serves local development and
// single-node deployments; a bucket-backed implementation can replace it
// behind the same interface.
type FilesystemStorage struct {
	root   string
	logger *slog.Logger
}

// NewFilesystemStorage creates a storage backend rooted at the given
// directory, creating it if necessary.
func NewFilesystemStorage(root string, logger *slog.Logger) (*FilesystemStorage, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root cannot be empty")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &FilesystemStorage{
		root:   root,
		logger: logger.With(slog.String("component", "filesystem_storage")),
	}, nil
}

// Put writes the object, creating parent directories as needed. An
// existing object under the same key is overwritten, which also covers
// edits.
func (s *FilesystemStorage) Put(_ context.Context, key, contentType string, data []byte) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return fmt.Errorf("failed to write object %q: %w", key, err)
	}

	s.logger.Debug("object stored",
		slog.String("key", key),
		slog.String("content_type", contentType),
		slog.Int("bytes", len(data)))
	return nil
}

// Remove deletes the object. Removing a missing object is not an error;
// the queued removal may be retried after a partial failure.
func (s *FilesystemStorage) Remove(_ context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to remove object %q: %w", key, err)
	}

	s.logger.Debug("object removed", slog.String("key", key))
	return nil
}

// resolve maps an object key to an absolute path and rejects keys that
// would escape the root.
func (s *FilesystemStorage) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("object key cannot be empty")
	}
	path := filepath.Join(s.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == ".." || filepath.IsAbs(rel) || len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator) {
		return "", fmt.Errorf("object key %q escapes storage root", key)
	}
	return path, nil
}
