// Package postgres implements the site metadata repo on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"statichost"
)

const uniqueViolation = "23505"

type repo struct {
	pool   *pgxpool.Pool
	tables statichost.Tables
}

// NewRepo creates a SiteRepo on an existing pool.
func NewRepo(pool *pgxpool.Pool, tables Tables) (statichost.SiteRepo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}
	return &repo{pool: pool, tables: tables}, nil
}

func (r *repo) InsertSite(ctx context.Context, site statichost.Site) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, host, index_file, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)
	`, r.tables.Sites)

	_, err := r.pool.Exec(ctx, query,
		site.ID, site.Host, site.IndexFile, site.CreatedAt, site.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("insert site: %w: domain is already taken", statichost.ErrConflict)
		}
		return fmt.Errorf("insert site: %w", err)
	}

	return nil
}

func (r *repo) GetSiteByID(ctx context.Context, id uuid.UUID) (statichost.Site, error) {
	query := fmt.Sprintf(`
		SELECT id, host, COALESCE(index_file, ''), created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Sites)

	return r.scanSite(r.pool.QueryRow(ctx, query, id), "get site by id")
}

func (r *repo) GetSiteByHost(ctx context.Context, host string) (statichost.Site, error) {
	query := fmt.Sprintf(`
		SELECT id, host, COALESCE(index_file, ''), created_at, updated_at
		FROM %s
		WHERE host = $1
	`, r.tables.Sites)

	return r.scanSite(r.pool.QueryRow(ctx, query, host), "get site by host")
}

func (r *repo) scanSite(row pgx.Row, opName string) (statichost.Site, error) {
	var s statichost.Site
	err := row.Scan(&s.ID, &s.Host, &s.IndexFile, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return statichost.Site{}, statichost.ErrNotFound
		}
		return statichost.Site{}, fmt.Errorf("%s: %w", opName, err)
	}
	return s, nil
}

func (r *repo) UpdateSiteIndex(ctx context.Context, id uuid.UUID, indexFile string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET index_file = NULLIF($2, ''), updated_at = NOW()
		WHERE id = $1
	`, r.tables.Sites)

	result, err := r.pool.Exec(ctx, query, id, indexFile)
	if err != nil {
		return fmt.Errorf("update site index: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update site index: %w", statichost.ErrNotFound)
	}

	return nil
}

func (r *repo) DeleteSite(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Sites)

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete site: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete site: %w", statichost.ErrNotFound)
	}

	return nil
}

func (r *repo) ListSites(ctx context.Context, q statichost.ListQuery) (statichost.SiteList, error) {
	cursor, err := statichost.DecodeCursor(q.Cursor)
	if err != nil {
		return statichost.SiteList{}, fmt.Errorf("list sites: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	var query string
	var args []any

	if q.Cursor == "" {
		query = fmt.Sprintf(`
			SELECT id, host, COALESCE(index_file, ''), created_at, updated_at
			FROM %s
			ORDER BY created_at, id
			LIMIT $1
		`, r.tables.Sites)
		args = []any{limit + 1}
	} else {
		query = fmt.Sprintf(`
			SELECT id, host, COALESCE(index_file, ''), created_at, updated_at
			FROM %s
			WHERE (created_at, id) > ($1, $2)
			ORDER BY created_at, id
			LIMIT $3
		`, r.tables.Sites)
		args = []any{cursor.CreatedAt, cursor.ID, limit + 1}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return statichost.SiteList{}, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	sites := make([]statichost.Site, 0, limit)
	for rows.Next() {
		var s statichost.Site
		if err := rows.Scan(&s.ID, &s.Host, &s.IndexFile, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return statichost.SiteList{}, fmt.Errorf("list sites: scan: %w", err)
		}
		sites = append(sites, s)
	}

	if err := rows.Err(); err != nil {
		return statichost.SiteList{}, fmt.Errorf("list sites: rows: %w", err)
	}

	var nextCursor string
	if len(sites) > limit {
		last := sites[limit-1]
		nextCursor = statichost.EncodeCursor(last.CreatedAt, last.ID)
		sites = sites[:limit]
	}

	return statichost.SiteList{Sites: sites, Total: len(sites), NextCursor: nextCursor}, nil
}

func (r *repo) InsertFiles(ctx context.Context, files []statichost.File) error {
	if len(files) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, site_id, name, path, mime_type, size, is_index, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.tables.Files)

	batch := &pgx.Batch{}
	for _, f := range files {
		batch.Queue(query, f.ID, f.SiteID, f.Name, f.Path, f.MimeType, f.Size, f.IsIndex, f.CreatedAt, f.UpdatedAt)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	for range files {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert files: %w", err)
		}
	}

	return nil
}

func (r *repo) ListFilesBySite(ctx context.Context, siteID uuid.UUID) ([]statichost.File, error) {
	query := fmt.Sprintf(`
		SELECT id, site_id, name, path, mime_type, size, is_index, created_at, updated_at
		FROM %s
		WHERE site_id = $1
		ORDER BY created_at, id
	`, r.tables.Files)

	rows, err := r.pool.Query(ctx, query, siteID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []statichost.File
	for rows.Next() {
		var f statichost.File
		if err := rows.Scan(&f.ID, &f.SiteID, &f.Name, &f.Path, &f.MimeType, &f.Size, &f.IsIndex, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list files: scan: %w", err)
		}
		files = append(files, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list files: rows: %w", err)
	}

	return files, nil
}

func (r *repo) GetFileByPath(ctx context.Context, siteID uuid.UUID, path string, isIndex bool) (statichost.File, error) {
	query := fmt.Sprintf(`
		SELECT id, site_id, name, path, mime_type, size, is_index, created_at, updated_at
		FROM %s
		WHERE site_id = $1 AND path = $2 AND is_index = $3
	`, r.tables.Files)

	var f statichost.File
	err := r.pool.QueryRow(ctx, query, siteID, path, isIndex).Scan(
		&f.ID, &f.SiteID, &f.Name, &f.Path, &f.MimeType, &f.Size, &f.IsIndex, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return statichost.File{}, statichost.ErrNotFound
		}
		return statichost.File{}, fmt.Errorf("get file by path: %w", err)
	}

	return f, nil
}

func (r *repo) DeleteFilesBySite(ctx context.Context, siteID uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE site_id = $1`, r.tables.Files)

	if _, err := r.pool.Exec(ctx, query, siteID); err != nil {
		return fmt.Errorf("delete files: %w", err)
	}

	return nil
}
