package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"statichost"
)

// quoteIdentifier safely quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, db *sql.DB) error
	Down      func(ctx context.Context, db *sql.DB) error
}

// getTableMigrations returns all table migrations for the app
func getTableMigrations(tables statichost.Tables) []TableMigration {
	return []TableMigration{
		{
			TableName: tables.Sites,
			Up:        createSitesTable(tables.Sites),
			Down:      dropTable(tables.Sites),
		},
		{
			TableName: tables.Files,
			Up:        createFilesTable(tables.Files, tables.Sites),
			Down:      dropTable(tables.Files),
		},
	}
}

func Migrate(ctx context.Context, db *sql.DB, tables statichost.Tables) error {
	migrations := getTableMigrations(tables)

	for _, migration := range migrations {
		if err := migration.Up(ctx, db); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func DropTables(ctx context.Context, db *sql.DB, tables statichost.Tables) error {
	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, db); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func createSitesTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)
		indexList := quoteIdentifier(fmt.Sprintf("idx_%s_list", tableName))

		createTableSQL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT NOT NULL PRIMARY KEY,
				host TEXT NOT NULL UNIQUE,
				index_file TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)
		`, quotedTable)

		if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		indexSQL := fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s ON %s (created_at, id)
		`, indexList, quotedTable)

		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index list: %w", err)
		}

		return nil
	}
}

func createFilesTable(tableName, sitesTable string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)
		quotedSites := quoteIdentifier(sitesTable)
		indexSite := quoteIdentifier(fmt.Sprintf("idx_%s_site", tableName))
		indexResolve := quoteIdentifier(fmt.Sprintf("idx_%s_resolve", tableName))

		createTableSQL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT NOT NULL PRIMARY KEY,
				site_id TEXT NOT NULL REFERENCES %s (id),
				name TEXT NOT NULL,
				path TEXT NOT NULL,
				mime_type TEXT NOT NULL,
				size INTEGER NOT NULL CHECK (size >= 0),
				is_index INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)
		`, quotedTable, quotedSites)

		if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		for index, columns := range map[string]string{
			indexSite:    "(site_id)",
			indexResolve: "(site_id, path, is_index)",
		} {
			indexSQL := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s %s`, index, quotedTable, columns)
			if _, err := db.ExecContext(ctx, indexSQL); err != nil {
				return fmt.Errorf("create index: %w", err)
			}
		}

		return nil
	}
}

func dropTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)
		dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quotedTable)

		_, err := db.ExecContext(ctx, dropSQL)
		return err
	}
}

// ValidateSchema checks that both tables exist with the expected columns.
func ValidateSchema(ctx context.Context, db *sql.DB, tables statichost.Tables) error {
	expected := map[string][]string{
		tables.Sites: {"id", "host", "index_file", "created_at", "updated_at"},
		tables.Files: {"id", "site_id", "name", "path", "mime_type", "size", "is_index", "created_at", "updated_at"},
	}

	for _, tableName := range []string{tables.Sites, tables.Files} {
		if !statichost.IsValidTableName(tableName) {
			return fmt.Errorf("validate schema: invalid table name: %s", tableName)
		}

		actual, err := tableColumns(ctx, db, tableName)
		if err != nil {
			return fmt.Errorf("validate schema: %w", err)
		}

		if len(actual) == 0 {
			return fmt.Errorf("validate schema: table %s does not exist", tableName)
		}

		var missing []string
		for _, col := range expected[tableName] {
			if !actual[col] {
				missing = append(missing, col)
			}
		}

		if len(missing) > 0 {
			return fmt.Errorf("validate schema: table %s missing columns: %s", tableName, strings.Join(missing, ", "))
		}
	}

	return nil
}

func tableColumns(ctx context.Context, db *sql.DB, tableName string) (map[string]bool, error) {
	query := fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdentifier(tableName))

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns := make(map[string]bool)
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull int
		var dfltValue sql.NullString
		var pk int

		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns[name] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return columns, nil
}
