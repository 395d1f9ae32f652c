// Package config loads and validates statichost configuration.
//
// Configuration is merged from four sources, highest precedence first:
// CLI flags, STATICHOST_* environment variables, YAML config files, and
// built-in defaults. The merged result is unmarshaled into Config and
// checked with go-playground/validator before anything connects to a
// backend.
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    return err
//	}
//
// Environment variables follow the key path with dots replaced by
// underscores, e.g. STATICHOST_DATABASE_DSN for database.dsn.
package config
