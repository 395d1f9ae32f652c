package statichost

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Per-mode size policy. Error messages are user-facing.
const (
	// MaxHTMLFileSize is the per-file size limit in html mode.
	MaxHTMLFileSize = 2 * 1024 * 1024
	// MaxZipFileSize is the archive blob size limit in zip mode.
	MaxZipFileSize = 5 * 1024 * 1024
)

// ValidateFiles enforces the per-mode content-type and size policy on a
// candidate file set before anything is persisted and returns the set to be
// uploaded. The first violation aborts with ErrInvalidInput; there is no
// partial validation.
//
// In html mode every file must be text/html or text/css and at most 2 MiB;
// the input set passes through unchanged. In zip mode exactly the first file
// is considered: it must be an application/zip blob of at most 5 MiB, and the
// archive's extracted entries become the validated set. Extracted entries are
// trusted once the archive itself passed the gate; html-mode limits are not
// re-applied to them.
func ValidateFiles(siteType SiteType, files []UploadFile) ([]UploadFile, error) {
	switch siteType {
	case SiteTypeHTML:
		return validateHTMLFiles(files)
	case SiteTypeZip:
		return validateZipUpload(files)
	default:
		return nil, fmt.Errorf("%w: invalid site type. Only 'html' and 'zip' are allowed", ErrInvalidInput)
	}
}

func validateHTMLFiles(files []UploadFile) ([]UploadFile, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files found", ErrInvalidInput)
	}

	for _, f := range files {
		mediaType := baseMediaType(f.ContentType)
		if mediaType != "text/html" && mediaType != "text/css" {
			return nil, fmt.Errorf("%w: invalid file type. Only text/html and text/css files are allowed", ErrInvalidInput)
		}

		if f.Size > MaxHTMLFileSize {
			return nil, fmt.Errorf("%w: file size is too large. Maximum size is 2MB", ErrInvalidInput)
		}
	}

	return files, nil
}

func validateZipUpload(files []UploadFile) ([]UploadFile, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files found", ErrInvalidInput)
	}

	blob := files[0]

	if baseMediaType(blob.ContentType) != "application/zip" {
		return nil, fmt.Errorf("%w: invalid file type. Only zip files are allowed", ErrInvalidInput)
	}

	if blob.Size > MaxZipFileSize {
		return nil, fmt.Errorf("%w: zip file size is too large. Maximum size is 5MB", ErrInvalidInput)
	}

	// The extractor needs random access; the blob passed the size gate so
	// buffering it is bounded.
	content, err := io.ReadAll(blob.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	return ExtractArchive(bytes.NewReader(content), int64(len(content)))
}

// baseMediaType strips any media type parameters, e.g.
// "text/html; charset=utf-8" -> "text/html".
func baseMediaType(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(mediaType)
}
