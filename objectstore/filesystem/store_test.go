package filesystem_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"statichost"
	"statichost/objectstore/filesystem"
)

func newTestStore(t *testing.T) (*filesystem.Store, string) {
	t.Helper()

	tempDir := t.TempDir()
	root, err := os.OpenRoot(tempDir)
	assert.NoError(t, err)
	t.Cleanup(func() { _ = root.Close() })

	return filesystem.NewStore(root), tempDir
}

func upload(name, contentType, content string) statichost.UploadFile {
	return statichost.UploadFile{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(content)),
		Content:     strings.NewReader(content),
	}
}

func TestStore_UploadFiles(t *testing.T) {
	ctx := context.Background()

	t.Run("writes files under the key prefix", func(t *testing.T) {
		store, tempDir := newTestStore(t)

		uploaded, err := store.UploadFiles(ctx, []statichost.UploadFile{
			upload("index.html", "text/html", "<html></html>"),
			upload("css/style.css", "text/css", "body{}"),
		}, "sites/abc/")
		assert.NoError(t, err)
		assert.Len(t, uploaded, 2)

		assert.Equal(t, "sites/abc/index.html", uploaded[0].Key)
		assert.Equal(t, "index.html", uploaded[0].Name)
		assert.Equal(t, "text/html", uploaded[0].ContentType)
		assert.Equal(t, int64(13), uploaded[0].Size)

		content, err := os.ReadFile(filepath.Join(tempDir, "sites/abc/css/style.css"))
		assert.NoError(t, err)
		assert.Equal(t, "body{}", string(content))
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		store, tempDir := newTestStore(t)

		_, err := store.UploadFiles(ctx, []statichost.UploadFile{
			upload("index.html", "text/html", "<html></html>"),
		}, "sites/abc/")
		assert.NoError(t, err)

		entries, err := os.ReadDir(tempDir)
		assert.NoError(t, err)
		for _, entry := range entries {
			assert.False(t, strings.HasPrefix(entry.Name(), ".t"), "temp file left: %s", entry.Name())
		}
	})

	t.Run("path traversal is rejected", func(t *testing.T) {
		store, _ := newTestStore(t)

		_, err := store.UploadFiles(ctx, []statichost.UploadFile{
			upload("../escape.html", "text/html", "x"),
		}, "sites/abc/")
		assert.ErrorIs(t, err, statichost.ErrStorage)
	})

	t.Run("context canceled", func(t *testing.T) {
		store, _ := newTestStore(t)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := store.UploadFiles(cancelled, []statichost.UploadFile{
			upload("index.html", "text/html", "x"),
		}, "sites/abc/")
		assert.Error(t, err)
	})
}

func TestStore_Fetch(t *testing.T) {
	ctx := context.Background()

	t.Run("streams a stored object", func(t *testing.T) {
		store, _ := newTestStore(t)

		_, err := store.UploadFiles(ctx, []statichost.UploadFile{
			upload("index.html", "text/html", "<html></html>"),
		}, "sites/abc/")
		assert.NoError(t, err)

		size, body, err := store.Fetch(ctx, "sites/abc/index.html")
		assert.NoError(t, err)
		assert.Equal(t, int64(13), size)

		content, err := io.ReadAll(body)
		assert.NoError(t, err)
		assert.Equal(t, "<html></html>", string(content))
		assert.NoError(t, body.Close())
	})

	t.Run("missing object is a storage error", func(t *testing.T) {
		store, _ := newTestStore(t)

		_, _, err := store.Fetch(ctx, "sites/abc/missing.html")
		assert.ErrorIs(t, err, statichost.ErrStorage)
	})
}

func TestStore_DeleteAll(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the listed objects", func(t *testing.T) {
		store, tempDir := newTestStore(t)

		_, err := store.UploadFiles(ctx, []statichost.UploadFile{
			upload("index.html", "text/html", "<html></html>"),
			upload("style.css", "text/css", "body{}"),
		}, "sites/abc/")
		assert.NoError(t, err)

		err = store.DeleteAll(ctx, []string{"sites/abc/index.html", "sites/abc/style.css"})
		assert.NoError(t, err)

		_, statErr := os.Stat(filepath.Join(tempDir, "sites/abc/index.html"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("missing keys are not an error", func(t *testing.T) {
		store, _ := newTestStore(t)

		err := store.DeleteAll(ctx, []string{"sites/abc/never-existed.html"})
		assert.NoError(t, err)
	})
}

func TestOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	store, err := filesystem.Open(dir)
	assert.NoError(t, err)
	assert.NotNil(t, store)

	info, err := os.Stat(dir)
	assert.NoError(t, err)
	assert.True(t, info.IsDir())
}
