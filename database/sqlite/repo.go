// Package sqlite implements the site metadata repo on SQLite
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	sqlite3 "modernc.org/sqlite"

	"statichost"
)

// SQLITE_CONSTRAINT_UNIQUE
const uniqueViolation = 2067

type repo struct {
	db     *sql.DB
	tables statichost.Tables
}

// NewRepo creates a SiteRepo on an existing connection.
func NewRepo(db *sql.DB, tables statichost.Tables) (statichost.SiteRepo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}
	return &repo{db: db, tables: tables}, nil
}

func isUniqueViolation(err error) bool {
	var liteErr *sqlite3.Error
	return errors.As(err, &liteErr) && liteErr.Code() == uniqueViolation
}

func (r *repo) InsertSite(ctx context.Context, site statichost.Site) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, host, index_file, created_at, updated_at)
		VALUES (?, ?, NULLIF(?, ''), ?, ?)`, r.tables.Sites)

	_, err := r.db.ExecContext(ctx, query,
		site.ID.String(), site.Host, site.IndexFile,
		formatTime(site.CreatedAt), formatTime(site.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert site: %w: domain is already taken", statichost.ErrConflict)
		}
		return fmt.Errorf("insert site: %w", err)
	}

	return nil
}

func (r *repo) GetSiteByID(ctx context.Context, id uuid.UUID) (statichost.Site, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, host, COALESCE(index_file, ''), created_at, updated_at
		FROM %s
		WHERE id = ?`, r.tables.Sites)

	return scanSite(r.db.QueryRowContext(ctx, query, id.String()), "get site by id")
}

func (r *repo) GetSiteByHost(ctx context.Context, host string) (statichost.Site, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, host, COALESCE(index_file, ''), created_at, updated_at
		FROM %s
		WHERE host = ?`, r.tables.Sites)

	return scanSite(r.db.QueryRowContext(ctx, query, host), "get site by host")
}

func scanSite(row *sql.Row, opName string) (statichost.Site, error) {
	var s statichost.Site
	var idStr, createdAt, updatedAt string

	err := row.Scan(&idStr, &s.Host, &s.IndexFile, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return statichost.Site{}, statichost.ErrNotFound
		}
		return statichost.Site{}, fmt.Errorf("%s: %w", opName, err)
	}

	if s.ID, err = uuid.Parse(idStr); err != nil {
		return statichost.Site{}, fmt.Errorf("%s: parse uuid: %w", opName, err)
	}
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return statichost.Site{}, fmt.Errorf("%s: parse created_at: %w", opName, err)
	}
	if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return statichost.Site{}, fmt.Errorf("%s: parse updated_at: %w", opName, err)
	}

	return s, nil
}

func (r *repo) UpdateSiteIndex(ctx context.Context, id uuid.UUID, indexFile string) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`UPDATE %s
		SET index_file = NULLIF(?, ''), updated_at = ?
		WHERE id = ?`, r.tables.Sites)

	result, err := r.db.ExecContext(ctx, query, indexFile, formatTime(time.Now()), id.String())
	if err != nil {
		return fmt.Errorf("update site index: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update site index: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("update site index: %w", statichost.ErrNotFound)
	}

	return nil
}

func (r *repo) DeleteSite(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.tables.Sites) //nolint:gosec // table name is validated

	result, err := r.db.ExecContext(ctx, query, id.String())
	if err != nil {
		return fmt.Errorf("delete site: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete site: rows affected: %w", err)
	}

	if rowsAffected == 0 {
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
			LIMIT ?
		`, r.tables.Sites)
		args = []any{limit + 1}
	} else {
		query = fmt.Sprintf(`
			SELECT id, host, COALESCE(index_file, ''), created_at, updated_at
			FROM %s
			WHERE (created_at, id) > (?, ?)
			ORDER BY created_at, id
			LIMIT ?
		`, r.tables.Sites)
		args = []any{formatTime(cursor.CreatedAt), cursor.ID.String(), limit + 1}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return statichost.SiteList{}, fmt.Errorf("list sites: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sites := make([]statichost.Site, 0, limit)
	for rows.Next() {
		var s statichost.Site
		var idStr, createdAt, updatedAt string

		if scanErr := rows.Scan(&idStr, &s.Host, &s.IndexFile, &createdAt, &updatedAt); scanErr != nil {
			return statichost.SiteList{}, fmt.Errorf("list sites: scan: %w", scanErr)
		}

		var parseErr error
		if s.ID, parseErr = uuid.Parse(idStr); parseErr != nil {
			return statichost.SiteList{}, fmt.Errorf("list sites: parse uuid: %w", parseErr)
		}
		if s.CreatedAt, parseErr = parseTime(createdAt); parseErr != nil {
			return statichost.SiteList{}, fmt.Errorf("list sites: parse created_at: %w", parseErr)
		}
		if s.UpdatedAt, parseErr = parseTime(updatedAt); parseErr != nil {
			return statichost.SiteList{}, fmt.Errorf("list sites: parse updated_at: %w", parseErr)
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

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, site_id, name, path, mime_type, size, is_index, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, r.tables.Files)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert files: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, f := range files {
		_, err := tx.ExecContext(ctx, query,
			f.ID.String(), f.SiteID.String(), f.Name, f.Path, f.MimeType, f.Size,
			boolToInt(f.IsIndex), formatTime(f.CreatedAt), formatTime(f.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert files: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert files: commit: %w", err)
	}

	return nil
}

func (r *repo) ListFilesBySite(ctx context.Context, siteID uuid.UUID) ([]statichost.File, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, site_id, name, path, mime_type, size, is_index, created_at, updated_at
		FROM %s
		WHERE site_id = ?
		ORDER BY created_at, id`, r.tables.Files)

	rows, err := r.db.QueryContext(ctx, query, siteID.String())
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var files []statichost.File
	for rows.Next() {
		f, err := scanFileRow(rows)
		if err != nil {
			return nil, fmt.Errorf("list files: %w", err)
		}
		files = append(files, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list files: rows: %w", err)
	}

	return files, nil
}

func (r *repo) GetFileByPath(ctx context.Context, siteID uuid.UUID, path string, isIndex bool) (statichost.File, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, site_id, name, path, mime_type, size, is_index, created_at, updated_at
		FROM %s
		WHERE site_id = ? AND path = ? AND is_index = ?`, r.tables.Files)

	rows, err := r.db.QueryContext(ctx, query, siteID.String(), path, boolToInt(isIndex))
	if err != nil {
		return statichost.File{}, fmt.Errorf("get file by path: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return statichost.File{}, fmt.Errorf("get file by path: %w", err)
		}
		return statichost.File{}, statichost.ErrNotFound
	}

	f, err := scanFileRow(rows)
	if err != nil {
		return statichost.File{}, fmt.Errorf("get file by path: %w", err)
	}

	return f, nil
}

func (r *repo) DeleteFilesBySite(ctx context.Context, siteID uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE site_id = ?`, r.tables.Files) //nolint:gosec // table name is validated

	if _, err := r.db.ExecContext(ctx, query, siteID.String()); err != nil {
		return fmt.Errorf("delete files: %w", err)
	}

	return nil
}

func scanFileRow(rows *sql.Rows) (statichost.File, error) {
	var f statichost.File
	var idStr, siteIDStr, createdAt, updatedAt string
	var isIndex int

	err := rows.Scan(&idStr, &siteIDStr, &f.Name, &f.Path, &f.MimeType, &f.Size, &isIndex, &createdAt, &updatedAt)
	if err != nil {
		return statichost.File{}, fmt.Errorf("scan: %w", err)
	}

	if f.ID, err = uuid.Parse(idStr); err != nil {
		return statichost.File{}, fmt.Errorf("parse uuid: %w", err)
	}
	if f.SiteID, err = uuid.Parse(siteIDStr); err != nil {
		return statichost.File{}, fmt.Errorf("parse site uuid: %w", err)
	}
	if f.CreatedAt, err = parseTime(createdAt); err != nil {
		return statichost.File{}, fmt.Errorf("parse created_at: %w", err)
	}
	if f.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return statichost.File{}, fmt.Errorf("parse updated_at: %w", err)
	}
	f.IsIndex = isIndex != 0

	return f, nil
}

// Fixed-width fraction so stored timestamps sort lexicographically;
// RFC3339Nano trims trailing zeros and would break keyset pagination.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
