package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"statichost/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "statichost",
	Short:   "Static site hosting server",
	Long: `Statichost publishes uploaded static sites into object storage
and serves them back by hostname.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		setupLogging(cfg.Log)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")

	var configFiles []string
	if configFile != "" {
		configFiles = []string{configFile}
	}

	cfg, err := config.Load(configFiles, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "database type: sqlite, postgres (default: sqlite, env: STATICHOST_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (default: statichost.db, env: STATICHOST_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("storage-type", "", "object store backend: filesystem, s3 (default: filesystem, env: STATICHOST_STORAGE_TYPE)")
	rootCmd.PersistentFlags().String("storage-path", "", "filesystem storage directory (default: ./data, env: STATICHOST_STORAGE_PATH)")
	rootCmd.PersistentFlags().String("routing-type", "", "routing cache backend: memory, cloudfront (default: memory, env: STATICHOST_ROUTING_TYPE)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
