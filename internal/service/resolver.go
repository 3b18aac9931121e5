package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"docsmith/internal/storage"
)

// maxSourceBytes caps how much source material a single job may pull in.
const maxSourceBytes = 32 << 20

// StorageResolver resolves source references as object-storage keys. This is
// the production path: callers upload sources to the bucket and submit the
// key.
type StorageResolver struct {
	store storage.ObjectStorage
}

// NewStorageResolver builds a resolver over the given store.
func NewStorageResolver(store storage.ObjectStorage) *StorageResolver {
	return &StorageResolver{store: store}
}

// Resolve downloads the object behind the key, sniffing the content type
// when the store does not report one.
func (r *StorageResolver) Resolve(ctx context.Context, ref string) ([]byte, string, error) {
	rc, contentType, err := r.store.Download(ctx, ref)
	if err != nil {
		return nil, "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxSourceBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read source object: %w", err)
	}
	if len(data) > maxSourceBytes {
		return nil, "", fmt.Errorf("source object exceeds %d bytes", maxSourceBytes)
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

// FileResolver resolves source references as local file paths. Used by the
// CLI runner, where the source sits on disk.
type FileResolver struct{}

// Resolve reads the file and derives the content type from the extension,
// falling back to content sniffing.
func (FileResolver) Resolve(_ context.Context, ref string) ([]byte, string, error) {
	fi, err := os.Stat(ref)
	if err != nil {
		return nil, "", err
	}
	if fi.Size() > maxSourceBytes {
		return nil, "", fmt.Errorf("source file exceeds %d bytes", maxSourceBytes)
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, "", err
	}
	contentType := mime.TypeByExtension(filepath.Ext(ref))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}
