package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir(), "/files", zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestLocalStoreUpload(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key := "org-1/169000-abc-report.pdf"
	err := store.Upload(ctx, key, "application/pdf", strings.NewReader("hello"), 5, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(store.Root(), filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Upload(ctx, "../escape.txt", "text/plain", strings.NewReader("x"), 1, nil)
	assert.Error(t, err)

	err = store.Delete(ctx, "../../etc/passwd")
	assert.Error(t, err)
}

func TestLocalStoreDownloadURL(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key := "org-1/file.txt"
	require.NoError(t, store.Upload(ctx, key, "text/plain", strings.NewReader("x"), 1, nil))

	url, err := store.DownloadURL(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "/files/"+key, url)

	_, err = store.DownloadURL(ctx, "org-1/missing.txt")
	assert.Error(t, err)
}

func TestLocalStoreDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key := "org-1/file.txt"
	require.NoError(t, store.Upload(ctx, key, "text/plain", strings.NewReader("x"), 1, nil))
	require.NoError(t, store.Delete(ctx, key))

	_, err := os.Stat(filepath.Join(store.Root(), filepath.FromSlash(key)))
	assert.True(t, os.IsNotExist(err))

	t.Run("missing file is not an error", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, "org-1/never-existed.txt"))
	})
}

func TestValidateFileType(t *testing.T) {
	assert.True(t, ValidateFileType("application/pdf"))
	assert.True(t, ValidateFileType("IMAGE/PNG"))
	assert.True(t, ValidateFileType("application/zip"))
	assert.False(t, ValidateFileType("application/x-msdownload"))
	assert.False(t, ValidateFileType(""))
}

func TestGenerateKey(t *testing.T) {
	key := GenerateKey("org-123", "My Report (final).pdf")
	assert.True(t, strings.HasPrefix(key, "org-123/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))
	assert.NotContains(t, key, "(")
	assert.NotContains(t, key, " ")

	t.Run("keys are unique per call", func(t *testing.T) {
		assert.NotEqual(t, GenerateKey("org", "a.pdf"), GenerateKey("org", "a.pdf"))
	})
}

func TestMBFromBytes(t *testing.T) {
	assert.InDelta(t, 1.0, MBFromBytes(1024*1024), 0.0001)
	assert.InDelta(t, 0.5, MBFromBytes(512*1024), 0.0001)
	assert.Zero(t, MBFromBytes(0))
}

func TestStorageSelection(t *testing.T) {
	ctx := context.Background()

	t.Run("falls back to local when credentials are incomplete", func(t *testing.T) {
		store, err := New(ctx, Config{LocalDir: t.TempDir()}, zap.NewNop())
		require.NoError(t, err)
		_, ok := store.(*LocalStore)
		assert.True(t, ok)
	})
}
