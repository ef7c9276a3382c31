package storage

import (
	"context"
	"io"
	"net/http"
	"time"

	"recruitment-portal/config"
)

// BlobInfo describes one stored object
type BlobInfo struct {
	Key          string    `json:"key"`
	URL          string    `json:"url"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// BlobStore is the contract for CV blob storage. Keys are flat
// canonical filenames, URLs are what gets persisted on application
// records.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (url string, err error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
	URL(key string) string
}

// NewFromConfig picks the configured blob backend: S3 when enabled,
// otherwise a local directory
func NewFromConfig(ctx context.Context, cfg *config.Config) (BlobStore, error) {
	if cfg.Blob.UseS3 {
		return NewS3Store(ctx, cfg)
	}
	return NewLocalStore(cfg.Blob.LocalPath, cfg.Blob.BaseURL)
}

// URLExists probes a blob URL with HEAD, falling back to GET for
// stores that reject HEAD. The check is best-effort: network errors
// count as "not found" rather than failing the caller.
func URLExists(ctx context.Context, client *http.Client, url string) bool {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err == nil {
		resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return true
		}
		if resp.StatusCode != http.StatusMethodNotAllowed {
			return false
		}
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err = client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
