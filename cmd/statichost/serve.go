package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"statichost"
	"statichost/config"
	"statichost/database"
	statichosthttp "statichost/http"
	"statichost/objectstore/filesystem"
	"statichost/objectstore/s3"
	"statichost/routing/cloudfront"
	"statichost/routing/memory"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the statichost HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8000, "HTTP server port")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	store, err := openObjectStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	cache, err := openRoutingCache(ctx, cfg.Routing)
	if err != nil {
		return err
	}

	service, err := statichost.NewSiteService(db.Repo(), store, cache)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	handlerConfig := statichosthttp.HandlerConfig{
		CORS: cfg.CORS,
	}
	handler := statichosthttp.NewHandler(&handlerConfig, service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "storage", cfg.Storage.Type, "routing", cfg.Routing.Type)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

func openDatabase(ctx context.Context, cfg database.Config) (database.DB, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		slog.Info("database migration complete")
	}

	if err := db.Validate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("validate database schema: %w", err)
	}

	slog.Info("connected to database", "type", cfg.Type)
	return db, nil
}

func openObjectStore(ctx context.Context, cfg config.StorageConfig) (statichost.ObjectStore, error) {
	switch cfg.Type {
	case "s3":
		store, err := s3.Connect(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("open object store: %w", err)
		}
		return store, nil
	case "filesystem":
		store, err := filesystem.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

func openRoutingCache(ctx context.Context, cfg config.RoutingConfig) (statichost.RoutingCache, error) {
	switch cfg.Type {
	case "cloudfront":
		cache, err := cloudfront.Connect(ctx, cfg.CloudFront)
		if err != nil {
			return nil, err
		}
		return cache, nil
	case "memory":
		return memory.NewCache(), nil
	default:
		return nil, fmt.Errorf("unsupported routing type: %s", cfg.Type)
	}
}
