package statichost

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// SiteService orchestrates site publication and resolution against the three
// backing stores. It holds no mutable state of its own: each request is
// handled independently and concurrency control lives in the stores (the
// metadata store's transaction semantics, the routing cache's version tag).
type SiteService struct {
	repo  SiteRepo
	store ObjectStore
	cache RoutingCache
	now   func() time.Time
}

// NewSiteService constructs a SiteService from its collaborators. All three
// are required; the clock is overridable for tests via WithClock.
func NewSiteService(repo SiteRepo, store ObjectStore, cache RoutingCache) (*SiteService, error) {
	if repo == nil || store == nil || cache == nil {
		return nil, fmt.Errorf("new site service: repo, store, and cache are required")
	}
	return &SiteService{
		repo:  repo,
		store: store,
		cache: cache,
		now:   time.Now,
	}, nil
}

// WithClock replaces the service clock. Intended for tests.
func (s *SiteService) WithClock(now func() time.Time) *SiteService {
	s.now = now
	return s
}

// CreateSiteInput carries a site publication request.
type CreateSiteInput struct {
	Domain    string
	Suffix    string
	SiteType  string
	IndexFile string
	Files     []UploadFile
}

// Create publishes a new site: validates the upload, claims the host, commits
// the site row, uploads the objects, commits the file rows, and refreshes the
// routing cache entry.
//
// Steps after the site row insert are not transactional with it: if the
// upload or the file row insert fails, the site row remains with no files.
// That inconsistency window is accepted and surfaced, not rolled back.
func (s *SiteService) Create(ctx context.Context, in CreateSiteInput) (Site, error) {
	siteType, err := ParseSiteType(in.SiteType)
	if err != nil {
		return Site{}, fmt.Errorf("create site: %w", err)
	}

	uploading, err := ValidateFiles(siteType, in.Files)
	if err != nil {
		return Site{}, fmt.Errorf("create site: %w", err)
	}

	host := JoinHost(in.Domain, in.Suffix)

	if _, err := s.repo.GetSiteByHost(ctx, host); err == nil {
		return Site{}, fmt.Errorf("create site: %w: domain is already taken", ErrConflict)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Site{}, fmt.Errorf("create site: new id: %w", err)
	}

	now := s.now().UTC()
	site := Site{
		ID:        id,
		Host:      host,
		IndexFile: in.IndexFile,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.InsertSite(ctx, site); err != nil {
		return Site{}, fmt.Errorf("create site: %w", err)
	}

	if err := s.publishFiles(ctx, site, in.IndexFile, uploading); err != nil {
		return Site{}, fmt.Errorf("create site: %w", err)
	}

	return site, nil
}

// Update replaces a site's file set: uploads the new files, swaps the file
// rows, refreshes the declared index file, and bumps the routing entry so the
// edge re-fetches. Objects from the previous file set are left behind in the
// object store.
func (s *SiteService) Update(ctx context.Context, id uuid.UUID, in CreateSiteInput) (Site, error) {
	siteType, err := ParseSiteType(in.SiteType)
	if err != nil {
		return Site{}, fmt.Errorf("update site: %w", err)
	}

	uploading, err := ValidateFiles(siteType, in.Files)
	if err != nil {
		return Site{}, fmt.Errorf("update site: %w", err)
	}

	site, err := s.repo.GetSiteByID(ctx, id)
	if err != nil {
		return Site{}, fmt.Errorf("update site: %w", err)
	}

	uploaded, err := s.store.UploadFiles(ctx, uploading, SiteKeyPrefix(site.ID))
	if err != nil {
		return Site{}, fmt.Errorf("update site: %w", err)
	}

	if err := s.repo.DeleteFilesBySite(ctx, site.ID); err != nil {
		return Site{}, fmt.Errorf("update site: delete old files: %w", err)
	}

	if err := s.insertFileRows(ctx, site.ID, in.IndexFile, uploaded); err != nil {
		return Site{}, fmt.Errorf("update site: %w", err)
	}

	if err := s.repo.UpdateSiteIndex(ctx, site.ID, in.IndexFile); err != nil {
		return Site{}, fmt.Errorf("update site: %w", err)
	}
	site.IndexFile = in.IndexFile

	if err := s.cache.Set(ctx, site.Host, RoutingToken(site.ID, s.now())); err != nil {
		return Site{}, fmt.Errorf("update site: routing cache: %w", err)
	}

	return site, nil
}

// Delete unpublishes a site: removes its objects from the store, its routing
// entry, then its file and site rows. A failed bulk delete aborts with the
// metadata intact; the delete is not retried.
func (s *SiteService) Delete(ctx context.Context, id uuid.UUID) error {
	site, err := s.repo.GetSiteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete site: %w", err)
	}

	files, err := s.repo.ListFilesBySite(ctx, site.ID)
	if err != nil {
		return fmt.Errorf("delete site: list files: %w", err)
	}

	keys := make([]string, 0, len(files))
	for _, f := range files {
		keys = append(keys, f.Path)
	}

	if err := s.store.DeleteAll(ctx, keys); err != nil {
		return fmt.Errorf("delete site: %w", err)
	}

	if err := s.cache.Delete(ctx, site.Host); err != nil {
		return fmt.Errorf("delete site: routing cache: %w", err)
	}

	if err := s.repo.DeleteFilesBySite(ctx, site.ID); err != nil {
		return fmt.Errorf("delete site: %w", err)
	}

	if err := s.repo.DeleteSite(ctx, site.ID); err != nil {
		return fmt.Errorf("delete site: %w", err)
	}

	return nil
}

// Get returns a site and its committed files.
func (s *SiteService) Get(ctx context.Context, id uuid.UUID) (SiteDetail, error) {
	site, err := s.repo.GetSiteByID(ctx, id)
	if err != nil {
		return SiteDetail{}, fmt.Errorf("get site: %w", err)
	}

	files, err := s.repo.ListFilesBySite(ctx, site.ID)
	if err != nil {
		return SiteDetail{}, fmt.Errorf("get site: list files: %w", err)
	}

	return SiteDetail{Site: site, Files: files, TotalFiles: len(files)}, nil
}

// List returns one page of sites.
func (s *SiteService) List(ctx context.Context, q ListQuery) (SiteList, error) {
	result, err := s.repo.ListSites(ctx, q)
	if err != nil {
		return SiteList{}, fmt.Errorf("list sites: %w", err)
	}
	return result, nil
}

// Resolve maps an inbound (host, subpath) pair to its file record and a lazy
// byte stream. An empty subpath or bare "/" resolves to the site's declared
// index file (index.html when unset). The stream is single-pass; callers must
// fully consume or close it. HEAD handlers close it unread.
func (s *SiteService) Resolve(ctx context.Context, host, subpath string) (File, io.ReadCloser, error) {
	site, err := s.repo.GetSiteByHost(ctx, host)
	if err != nil {
		return File{}, nil, fmt.Errorf("resolve %s: %w", host, err)
	}

	isIndex := subpath == "" || subpath == "/"

	var target string
	if isIndex {
		target = SiteKeyPrefix(site.ID) + site.Index()
	} else {
		target = SiteKeyPrefix(site.ID) + subpath
	}

	file, err := s.repo.GetFileByPath(ctx, site.ID, target, isIndex)
	if err != nil {
		return File{}, nil, fmt.Errorf("resolve %s/%s: %w", host, subpath, err)
	}

	_, body, err := s.store.Fetch(ctx, file.Path)
	if err != nil {
		return File{}, nil, fmt.Errorf("resolve %s/%s: %w", host, subpath, err)
	}

	return file, body, nil
}

// publishFiles uploads the validated set under the site's key prefix, commits
// the file rows, and sets the routing entry. Used by the create path.
func (s *SiteService) publishFiles(ctx context.Context, site Site, indexFile string, uploading []UploadFile) error {
	uploaded, err := s.store.UploadFiles(ctx, uploading, SiteKeyPrefix(site.ID))
	if err != nil {
		return err
	}

	if err := s.insertFileRows(ctx, site.ID, indexFile, uploaded); err != nil {
		return err
	}

	if err := s.cache.Set(ctx, site.Host, RoutingToken(site.ID, s.now())); err != nil {
		return fmt.Errorf("routing cache: %w", err)
	}

	return nil
}

func (s *SiteService) insertFileRows(ctx context.Context, siteID uuid.UUID, indexFile string, uploaded []UploadedObject) error {
	// Tag against the effective index filename so root requests resolve even
	// when the caller left index_file blank.
	if indexFile == "" {
		indexFile = DefaultIndexFile
	}

	rows := make([]File, 0, len(uploaded))
	for _, obj := range uploaded {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("new file id: %w", err)
		}

		now := s.now().UTC()
		rows = append(rows, File{
			ID:        id,
			SiteID:    siteID,
			Name:      obj.Name,
			Path:      obj.Key,
			MimeType:  obj.ContentType,
			Size:      obj.Size,
			IsIndex:   obj.Name == indexFile,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	if err := s.repo.InsertFiles(ctx, rows); err != nil {
		return fmt.Errorf("insert files: %w", err)
	}

	return nil
}
