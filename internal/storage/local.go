package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore saves blobs to disk under a base directory and serves them
// through the /uploads static route.
type LocalStore struct {
	basePath string
	baseURL  string
}

// NewLocalStore creates the base directory if missing.
func NewLocalStore(basePath, publicBaseURL string) (*LocalStore, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("storage base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStore{basePath: basePath, baseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

// Root returns the directory blobs are written to.
func (s *LocalStore) Root() string {
	return s.basePath
}

func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (Object, error) {
	key, err := cleanKey(key)
	if err != nil {
		return Object{}, err
	}
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}

	target := filepath.Join(s.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return Object{}, fmt.Errorf("create blob dir: %w", err)
	}

	out, err := os.Create(target)
	if err != nil {
		return Object{}, fmt.Errorf("create file: %w", err)
	}
	written, err := io.Copy(out, r)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(target)
		return Object{}, fmt.Errorf("write file: %w", err)
	}

	return Object{Key: key, URL: s.URL(key), Size: written, ContentType: contentType}, nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func (s *LocalStore) URL(key string) string {
	return s.baseURL + "/uploads/" + strings.TrimLeft(key, "/")
}
