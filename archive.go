package statichost

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
)

// macOS archive artifacts that never belong to site content.
const (
	macosMetadataPrefix = "__MACOSX"
	dsStoreSuffix       = ".DS_Store"
)

// ExtractArchive reads a zip archive and returns its content entries in
// archive order, fully materialized so the validator and uploader can rely on
// sizes. Directory entries, __MACOSX metadata, and .DS_Store files are
// skipped. Content types are inferred from each entry's file extension, with
// application/octet-stream as the fallback for unknown extensions.
//
// Returns ErrExtraction if the archive cannot be opened or any entry cannot
// be fully read; no partial result is returned.
func ExtractArchive(r io.ReaderAt, size int64) ([]UploadFile, error) {
	archive, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	var files []UploadFile
	for _, entry := range archive.File {
		name := entry.Name

		if entry.FileInfo().IsDir() ||
			strings.HasPrefix(name, macosMetadataPrefix) ||
			strings.HasSuffix(name, dsStoreSuffix) {
			continue
		}

		content, err := readEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %s: %v", ErrExtraction, name, err)
		}

		files = append(files, UploadFile{
			Name:        name,
			ContentType: InferContentType(name),
			Size:        int64(len(content)),
			Content:     bytes.NewReader(content),
		})
	}

	return files, nil
}

func readEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	return io.ReadAll(rc)
}

// InferContentType maps a file name to a content type by extension.
// Unknown extensions map to application/octet-stream, never an error.
func InferContentType(name string) string {
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}
