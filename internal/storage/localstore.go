package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore implements BlobStore on the local filesystem. Used in
// development and tests; production runs against S3.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates a filesystem-backed blob store
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Put writes an object to disk and returns its URL
func (s *LocalStore) Put(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, filepath.Clean("/"+key))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create blob subdirectory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create blob file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write blob file: %w", err)
	}

	return s.URL(key), nil
}

// Delete removes an object from disk
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(s.dir, filepath.Clean("/"+key))
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete blob file: %w", err)
	}
	return nil
}

// List enumerates stored objects under a prefix
func (s *LocalStore) List(ctx context.Context, prefix string) ([]BlobInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var blobs []BlobInfo
	err := filepath.Walk(s.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		key, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		key = filepath.ToSlash(key)
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			return nil
		}

		blobs = append(blobs, BlobInfo{
			Key:          key,
			URL:          s.URL(key),
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs: %w", err)
	}

	return blobs, nil
}

// URL returns the public URL for a key
func (s *LocalStore) URL(key string) string {
	return s.baseURL + "/" + key
}
