package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrObjectNotFound is returned when a stored object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// LocalClient stores objects as files under a base directory. It is
// the default avatar backend when no object store is configured.
type LocalClient struct {
	dir string
}

// NewLocalClient constructs a local-disk backend rooted at dir.
func NewLocalClient(dir string) (*LocalClient, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("local storage directory is required")
	}
	return &LocalClient{dir: dir}, nil
}

// EnsureBucket creates the base directory.
func (l *LocalClient) EnsureBucket(ctx context.Context) error {
	return os.MkdirAll(l.dir, 0o755)
}

// Put writes an object to disk. Keys may contain slashes; parent
// directories are created as needed. Path traversal outside the base
// directory is rejected.
func (l *LocalClient) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	path, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

// Get opens a stored object.
func (l *LocalClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := l.resolve(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return f, nil
}

// Delete removes a stored object. Deleting a missing object is not an
// error.
func (l *LocalClient) Delete(ctx context.Context, key string) error {
	path, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Bucket returns the base directory.
func (l *LocalClient) Bucket() string {
	return l.dir
}

func (l *LocalClient) resolve(key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", errors.New("invalid object key")
	}
	return filepath.Join(l.dir, cleaned), nil
}
