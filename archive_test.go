package statichost_test

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"statichost"
)

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		assert.NoError(t, err)
		_, err = f.Write([]byte(content))
		assert.NoError(t, err)
	}
	assert.NoError(t, w.Close())

	return buf.Bytes()
}

func TestExtractArchive(t *testing.T) {
	t.Run("extracts content entries", func(t *testing.T) {
		blob := buildZip(t, map[string]string{
			"index.html":    "<html></html>",
			"css/style.css": "body{}",
		})

		files, err := statichost.ExtractArchive(bytes.NewReader(blob), int64(len(blob)))
		assert.NoError(t, err)
		assert.Len(t, files, 2)

		byName := make(map[string]statichost.UploadFile, len(files))
		for _, f := range files {
			byName[f.Name] = f
		}

		index := byName["index.html"]
		assert.Equal(t, "text/html; charset=utf-8", index.ContentType)
		assert.Equal(t, int64(len("<html></html>")), index.Size)

		content, err := io.ReadAll(index.Content)
		assert.NoError(t, err)
		assert.Equal(t, "<html></html>", string(content))

		css := byName["css/style.css"]
		assert.Equal(t, "text/css; charset=utf-8", css.ContentType)
	})

	t.Run("skips macOS artifacts and directories", func(t *testing.T) {
		var buf bytes.Buffer
		w := zip.NewWriter(&buf)

		_, err := w.Create("assets/")
		assert.NoError(t, err)

		for name, content := range map[string]string{
			"a.html":                 "<html></html>",
			"__MACOSX/._a.html":      "junk",
			".DS_Store":              "junk",
			"assets/.DS_Store":       "junk",
			"__MACOSX/assets/._b.js": "junk",
		} {
			f, err := w.Create(name)
			assert.NoError(t, err)
			_, err = f.Write([]byte(content))
			assert.NoError(t, err)
		}
		assert.NoError(t, w.Close())

		blob := buf.Bytes()
		files, err := statichost.ExtractArchive(bytes.NewReader(blob), int64(len(blob)))
		assert.NoError(t, err)
		assert.Len(t, files, 1)
		assert.Equal(t, "a.html", files[0].Name)
	})

	t.Run("unknown extension falls back to octet-stream", func(t *testing.T) {
		blob := buildZip(t, map[string]string{"data.bin123": "payload"})

		files, err := statichost.ExtractArchive(bytes.NewReader(blob), int64(len(blob)))
		assert.NoError(t, err)
		assert.Len(t, files, 1)
		assert.Equal(t, "application/octet-stream", files[0].ContentType)
	})

	t.Run("corrupt archive", func(t *testing.T) {
		blob := []byte("definitely not a zip")

		_, err := statichost.ExtractArchive(bytes.NewReader(blob), int64(len(blob)))
		assert.ErrorIs(t, err, statichost.ErrExtraction)
	})

	t.Run("empty archive", func(t *testing.T) {
		blob := buildZip(t, nil)

		files, err := statichost.ExtractArchive(bytes.NewReader(blob), int64(len(blob)))
		assert.NoError(t, err)
		assert.Empty(t, files)
	})
}

func TestInferContentType(t *testing.T) {
	assert.Equal(t, "text/html; charset=utf-8", statichost.InferContentType("index.html"))
	assert.Equal(t, "text/css; charset=utf-8", statichost.InferContentType("style.css"))
	assert.Equal(t, "application/octet-stream", statichost.InferContentType("noext"))
}
