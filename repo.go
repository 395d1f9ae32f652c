package statichost

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// SiteRepo defines the interface for the authoritative site and file metadata
// store. Implementations are relational (PostgreSQL, SQLite) and must handle
// concurrent access safely.
//
// All methods accept a context for cancellation and timeout control.
type SiteRepo interface {
	// InsertSite persists a new site row.
	// Returns ErrConflict if the host is already taken by another site.
	InsertSite(ctx context.Context, site Site) error

	// GetSiteByID retrieves a site by its identifier.
	// Returns ErrNotFound if no such site exists.
	GetSiteByID(ctx context.Context, id uuid.UUID) (Site, error)

	// GetSiteByHost retrieves a site by its unique host (exact match).
	// Returns ErrNotFound if no site is published under the host.
	GetSiteByHost(ctx context.Context, host string) (Site, error)

	// UpdateSiteIndex sets the site's declared index file and bumps updated_at.
	// Returns ErrNotFound if no such site exists.
	UpdateSiteIndex(ctx context.Context, id uuid.UUID, indexFile string) error

	// DeleteSite removes the site row. File rows must be removed first via
	// DeleteFilesBySite; the repo does not cascade on behalf of the caller.
	// Returns ErrNotFound if no such site exists.
	DeleteSite(ctx context.Context, id uuid.UUID) error

	// ListSites returns one page of sites ordered by (created_at, id).
	ListSites(ctx context.Context, q ListQuery) (SiteList, error)

	// InsertFiles persists a batch of file rows for a site.
	InsertFiles(ctx context.Context, files []File) error

	// ListFilesBySite returns all file rows owned by a site, in insertion order.
	ListFilesBySite(ctx context.Context, siteID uuid.UUID) ([]File, error)

	// GetFileByPath retrieves the file row matching (site, storage path,
	// is_index). The is_index equality is part of the lookup key: an index
	// request never matches a non-index row and vice versa.
	// Returns ErrNotFound if no row matches.
	GetFileByPath(ctx context.Context, siteID uuid.UUID, path string, isIndex bool) (File, error)

	// DeleteFilesBySite removes every file row owned by a site. Deleting zero
	// rows is not an error: a freshly created site may have none.
	DeleteFilesBySite(ctx context.Context, siteID uuid.UUID) error
}

// ObjectStore defines the interface for the blob store holding site content.
// Implementations include S3 and a sandboxed local filesystem.
type ObjectStore interface {
	// UploadFiles stores each file under keyPrefix + file.Name and returns one
	// UploadedObject per input. Every file is attempted; if any single upload
	// fails the whole call returns an error and no result slice. Objects
	// uploaded before the failure are NOT rolled back.
	UploadFiles(ctx context.Context, files []UploadFile, keyPrefix string) ([]UploadedObject, error)

	// Fetch returns the object's size and a lazy, single-pass byte stream.
	// The caller owns the stream and must close it. Not-found and transport
	// failures are not distinguished: both come back wrapped in ErrStorage.
	Fetch(ctx context.Context, key string) (int64, io.ReadCloser, error)

	// DeleteAll removes the given keys in bulk. Best effort: a non-nil error
	// means the batch did not fully succeed, with no per-key detail.
	DeleteAll(ctx context.Context, keys []string) error
}

// RoutingCache defines the interface for the external low-latency host to
// routing-token mapping consumed by the edge layer. Mutations follow a
// read-version-tag-then-conditional-write protocol: the implementation reads
// the store's current version tag and uses it as a precondition for the write.
//
// The cache is not authoritative; entries are derivable from Site rows and may
// be briefly stale without corrupting the system.
type RoutingCache interface {
	// Get reads the routing token for a host. Returns ErrNotFound if absent.
	Get(ctx context.Context, key string) (string, error)

	// Set writes the routing token for a host. Returns
	// ErrConcurrentModification if the version tag changed between read and
	// write; the cache does not retry internally.
	Set(ctx context.Context, key, value string) error

	// Delete removes the routing entry for a host, using the same conditional
	// protocol as Set. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
