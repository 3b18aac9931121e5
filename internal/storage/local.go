package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage keeps objects on the local filesystem under a base directory.
// It backs the CLI runner and tests; production deployments use S3.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage creates a filesystem store rooted at baseDir.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}
	return &LocalStorage{baseDir: abs}, nil
}

// EnsureBucket creates the base directory.
func (s *LocalStorage) EnsureBucket(_ context.Context) error {
	return os.MkdirAll(s.baseDir, 0o755)
}

// path maps an object key to a filesystem path, refusing keys that would
// escape the base directory.
func (s *LocalStorage) path(key string) (string, error) {
	clean := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if !strings.HasPrefix(clean, s.baseDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return clean, nil
}

// Upload writes the object to disk, creating parent directories as needed.
func (s *LocalStorage) Upload(_ context.Context, key string, reader io.Reader, _ int64, _ string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.Create(p)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, reader); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Download opens the object, deriving the content type from the extension.
func (s *LocalStorage) Download(_ context.Context, key string) (io.ReadCloser, string, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, "", err
	}
	contentType := mime.TypeByExtension(filepath.Ext(p))
	return f, contentType, nil
}

// GetURL returns a file:// URL for the object.
func (s *LocalStorage) GetURL(key string) string {
	p, err := s.path(key)
	if err != nil {
		return ""
	}
	return "file://" + filepath.ToSlash(p)
}

// Delete removes the object. Deleting a missing object is not an error.
func (s *LocalStorage) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Exists checks whether the object is on disk.
func (s *LocalStorage) Exists(_ context.Context, key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
