package statichost

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Site is one published static website, identified by a unique host.
type Site struct {
	ID        uuid.UUID `json:"id"`
	Host      string    `json:"host"`
	IndexFile string    `json:"index_file,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultIndexFile is served for root requests when a site declares no index file.
const DefaultIndexFile = "index.html"

// Index returns the filename served for requests to the site root.
func (s Site) Index() string {
	if s.IndexFile == "" {
		return DefaultIndexFile
	}
	return s.IndexFile
}

// File is a single stored object belonging to a site. Path is the
// fully-qualified storage key under which the bytes live in the object store.
type File struct {
	ID        uuid.UUID `json:"id"`
	SiteID    uuid.UUID `json:"site_id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	MimeType  string    `json:"mime_type"`
	Size      int64     `json:"size"`
	IsIndex   bool      `json:"is_index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UploadFile is a candidate file before anything is persisted: either a part
// of a multipart upload or an entry produced by the archive extractor.
// Content is read exactly once during upload.
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// UploadedObject describes one object committed to the object store.
type UploadedObject struct {
	Key         string
	Name        string
	ContentType string
	Size        int64
}

// SiteType selects the upload validation mode.
type SiteType string

const (
	// SiteTypeHTML accepts loose text/html and text/css files.
	SiteTypeHTML SiteType = "html"
	// SiteTypeZip accepts a single zip archive whose entries become the file set.
	SiteTypeZip SiteType = "zip"
)

func (t SiteType) IsValid() bool {
	switch t {
	case SiteTypeHTML, SiteTypeZip:
		return true
	default:
		return false
	}
}

// ParseSiteType parses a caller-supplied site type tag. Unknown tags are a
// validation error with a user-facing reason.
func ParseSiteType(s string) (SiteType, error) {
	t := SiteType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: invalid site type. Only 'html' and 'zip' are allowed", ErrInvalidInput)
	}
	return t, nil
}

// ListQuery selects a page of sites ordered by (created_at, id).
type ListQuery struct {
	Limit  int
	Cursor string
}

// SiteList is one page of sites plus the cursor for the next page.
type SiteList struct {
	Sites      []Site `json:"sites"`
	Total      int    `json:"total"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// SiteDetail is a site together with its committed files.
type SiteDetail struct {
	Site       Site   `json:"site"`
	Files      []File `json:"files"`
	TotalFiles int    `json:"total_files"`
}

// Tables holds configurable table names for metadata storage.
// This allows multi-tenant deployments to use different table names.
type Tables struct {
	Sites string `mapstructure:"sites"`
	Files string `mapstructure:"files"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Sites == "" || t.Files == "" {
		return errors.New("validate tables: table names cannot be empty")
	}

	for _, name := range []string{t.Sites, t.Files} {
		if !IsValidTableName(name) {
			return fmt.Errorf("validate tables: invalid table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", name)
		}
	}

	if t.Sites == t.Files {
		return fmt.Errorf("validate tables: sites and files tables must differ, both are %s", t.Sites)
	}

	return nil
}
