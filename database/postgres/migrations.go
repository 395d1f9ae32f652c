package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the sites and files tables with their lookup indexes.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables Tables) error {
	if err := createSitesTable(ctx, pool, tables.Sites); err != nil {
		return err
	}
	return createFilesTable(ctx, pool, tables.Files, tables.Sites)
}

func createSitesTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexHost := pgx.Identifier{fmt.Sprintf("idx_%s_host", tableName)}.Sanitize()
	indexList := pgx.Identifier{fmt.Sprintf("idx_%s_list", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			host TEXT NOT NULL UNIQUE,
			index_file TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (host);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (created_at, id);
	`,
		quotedTable,
		indexHost, quotedTable,
		indexList, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create sites table: %w", err)
	}
	return nil
}

func createFilesTable(ctx context.Context, pool *pgxpool.Pool, tableName, sitesTable string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	quotedSites := pgx.Identifier{sitesTable}.Sanitize()
	indexSite := pgx.Identifier{fmt.Sprintf("idx_%s_site", tableName)}.Sanitize()
	indexResolve := pgx.Identifier{fmt.Sprintf("idx_%s_resolve", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			site_id UUID NOT NULL REFERENCES %s (id),
			name TEXT NOT NULL,
			path TEXT NOT NULL,
			mime_type TEXT NOT NULL,
			size BIGINT NOT NULL CHECK (size >= 0),
			is_index BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (site_id);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (site_id, path, is_index);
	`,
		quotedTable, quotedSites,
		indexSite, quotedTable,
		indexResolve, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create files table: %w", err)
	}
	return nil
}

// DropTables removes the files and sites tables. Intended for tests.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables Tables) error {
	// files first: it references sites
	for _, name := range []string{tables.Files, tables.Sites} {
		quoted := pgx.Identifier{name}.Sanitize()
		if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quoted)); err != nil {
			return fmt.Errorf("drop table %s: %w", name, err)
		}
	}
	return nil
}
