package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LocalStore is the filesystem fallback used when object storage is not configured.
// Object keys map to paths under the root directory.
type LocalStore struct {
	root    string
	baseURL string
	logger  *zap.Logger
}

// NewLocalStore creates a filesystem store rooted at dir. Files are reachable
// under baseURL (served by the HTTP layer).
func NewLocalStore(dir, baseURL string, logger *zap.Logger) (*LocalStore, error) {
	if dir == "" {
		dir = "uploads"
	}
	if baseURL == "" {
		baseURL = "/files"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalStore{root: dir, baseURL: strings.TrimSuffix(baseURL, "/"), logger: logger}, nil
}

// pathFor resolves a key inside the root, rejecting traversal outside it.
func (s *LocalStore) pathFor(key string) (string, error) {
	p := filepath.Join(s.root, filepath.FromSlash(key))
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	rootAbs, err := filepath.Abs(s.root)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(abs, rootAbs+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid key: %s", key)
	}
	return p, nil
}

// Upload writes body to disk under key.
func (s *LocalStore) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64, metadata map[string]string) error {
	p, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, body); err != nil {
		os.Remove(p)
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// DownloadURL returns the served path for key.
func (s *LocalStore) DownloadURL(ctx context.Context, key string) (string, error) {
	if _, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(key))); err != nil {
		return "", fmt.Errorf("stat file: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

// Delete removes the file for key. Missing files are not an error.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	p, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// IsConfigured reports whether the backend is usable.
func (s *LocalStore) IsConfigured() bool { return true }

// Root returns the directory the store serves from.
func (s *LocalStore) Root() string { return s.root }
