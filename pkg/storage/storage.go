// Package storage provides the attachment storage backends (S3-compatible
// object storage or local filesystem) behind a single three-operation contract.
package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// MaxFileSize is the maximum allowed attachment size (10MB).
	MaxFileSize = 10 * 1024 * 1024
)

// AllowedFileTypes maps permitted attachment MIME types to their canonical extension.
var AllowedFileTypes = map[string]string{
	"application/pdf":    ".pdf",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"application/zip":              ".zip",
	"application/x-zip-compressed": ".zip",
	"text/plain":                   ".txt",
	"image/jpeg":                   ".jpg",
	"image/png":                    ".png",
	"image/gif":                    ".gif",
}

// ValidateFileType returns true if the content type is on the attachment allow-list.
func ValidateFileType(contentType string) bool {
	_, ok := AllowedFileTypes[strings.ToLower(contentType)]
	return ok
}

// MBFromBytes converts a byte length to megabytes.
func MBFromBytes(n int64) float64 {
	return float64(n) / (1024 * 1024)
}

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// GenerateKey returns a unique object key scoped under the organization:
// {org_id}/{unix_ms}-{rand}-{safe_name}{ext}.
func GenerateKey(orgID, originalName string) string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	ext := path.Ext(originalName)
	safe := unsafeKeyChars.ReplaceAllString(strings.TrimSuffix(path.Base(originalName), ext), "_")
	return fmt.Sprintf("%s/%d-%s-%s%s", orgID, time.Now().UnixMilli(), hex.EncodeToString(buf), safe, ext)
}

// Store is the backend contract the attachment manager depends on.
type Store interface {
	// Upload stores body under key. Metadata travels with the object where the backend supports it.
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64, metadata map[string]string) error
	// DownloadURL returns a signed URL (object storage) or served path (local) for key.
	DownloadURL(ctx context.Context, key string) (string, error)
	// Delete removes the object under key.
	Delete(ctx context.Context, key string) error
	// IsConfigured reports whether the backend is usable.
	IsConfigured() bool
}

// Config selects and configures a backend. When the object-storage fields are
// set an S3-compatible store is used, otherwise the local-filesystem fallback.
type Config struct {
	Endpoint             string // custom endpoint for S3-compatible stores (e.g. R2); empty = AWS
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	Bucket               string
	PresignExpireMinutes int

	LocalDir     string // local fallback root
	LocalBaseURL string // URL prefix the server serves LocalDir under
}

// objectStorageConfigured reports whether the object-storage credentials are complete.
func (c Config) objectStorageConfigured() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != "" && c.Bucket != ""
}

// New selects the storage backend from config: object storage when configured,
// local filesystem otherwise.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.objectStorageConfigured() {
		return NewObjectStore(ctx, cfg, logger)
	}
	logger.Info("object storage not configured, using local filesystem", zap.String("dir", cfg.LocalDir))
	return NewLocalStore(cfg.LocalDir, cfg.LocalBaseURL, logger)
}
