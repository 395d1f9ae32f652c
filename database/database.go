package database

import (
	"context"
	"fmt"

	"statichost"
	"statichost/database/postgres"
	"statichost/database/sqlite"
)

// Config holds the configuration for connecting to a metadata backend.
type Config struct {
	// Type specifies the database type: "sqlite" or "postgres"
	Type string `mapstructure:"type" validate:"required,oneof=sqlite postgres"`
	// DSN is the data source name (connection string)
	DSN string `mapstructure:"dsn" validate:"required"`
	// AutoMigrate creates missing tables on startup
	AutoMigrate bool `mapstructure:"auto_migrate"`
	// Tables holds the sites and files table names
	Tables statichost.Tables `mapstructure:"tables"`
}

// DB is an open connection to a metadata backend.
type DB interface {
	// Ping verifies the database connection is alive.
	Ping(ctx context.Context) error
	// Migrate creates the sites and files tables if they do not exist.
	Migrate(ctx context.Context) error
	// Validate checks that the schema matches the expected structure.
	Validate(ctx context.Context) error
	// Repo returns the SiteRepo backed by this connection.
	Repo() statichost.SiteRepo
	// Close releases the connection.
	Close() error
}

// Connect opens a connection to the configured backend. Table names are
// validated up front; migration and schema validation are left to the caller
// so commands can decide whether to auto-migrate.
func Connect(ctx context.Context, cfg Config) (DB, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	switch cfg.Type {
	case "sqlite":
		return sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
	case "postgres":
		return postgres.Connect(ctx, cfg.DSN, cfg.Tables)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}
