// Package storage is the blob collaborator for tender documents and bid
// attachments.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

type Storage interface {
	// Upload stores the blob and returns the key it can be fetched or
	// deleted by later.
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// Filesystem keeps blobs as files under a root directory, keyed by a
// generated id so uploads never collide on name.
type Filesystem struct {
	root string
}

func NewFilesystem(root string) (*Filesystem, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage.NewFilesystem: %w", err)
	}
	return &Filesystem{root: root}, nil
}

func (fs *Filesystem) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	key := uuid.NewString() + "_" + filepath.Base(name)

	f, err := os.Create(filepath.Join(fs.root, key))
	if err != nil {
		return "", fmt.Errorf("storage.Filesystem.Upload: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("storage.Filesystem.Upload: %w", err)
	}
	return key, nil
}

func (fs *Filesystem) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(fs.root, filepath.Base(key)))
	if err != nil {
		return fmt.Errorf("storage.Filesystem.Delete: %w", err)
	}
	return nil
}
