package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/reeler/reeler/internal/config"
	"github.com/reeler/reeler/internal/download"
	"github.com/reeler/reeler/internal/importer"
	"github.com/reeler/reeler/internal/library"
	"github.com/reeler/reeler/internal/metadata"
	"github.com/reeler/reeler/internal/migrations"
	"github.com/reeler/reeler/internal/server"
	"github.com/reeler/reeler/internal/torrent"
	"github.com/reeler/reeler/internal/validate"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runServer(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// === Clients ===
	torrentClient := torrent.NewTransmissionClient(
		cfg.Torrent.URL,
		cfg.Torrent.Username,
		cfg.Torrent.Password,
		logger.With("component", "torrent"),
		torrent.WithMetadataWait(time.Duration(cfg.Torrent.MetadataWaitSeconds)*time.Second),
	)

	metaClient := metadata.NewClient(cfg.Metadata.URL, cfg.Metadata.APIKey,
		metadata.WithLogger(logger.With("component", "metadata")),
	)
	metaCache := metadata.NewCache(db)
	metaProvider := metadata.NewCachedProvider(metaClient, metaCache, logger.With("component", "metadata-cache"))

	// === Stores and services ===
	downloadStore := download.NewStore(db)
	historyStore := importer.NewHistoryStore(db)
	libraryManager := library.NewManager(cfg.Library.Root, logger)

	downloadManager := download.NewManager(torrentClient, downloadStore, logger)
	validator := validate.New(torrentClient, metaProvider, logger.With("component", "validate"))
	imp := importer.New(libraryManager, metaProvider, historyStore, logger)

	pipeline := server.NewPipeline(downloadManager, validator, imp, logger)
	api := server.NewAPI(downloadManager, pipeline, libraryManager, historyStore, logger)

	downloadStore.OnTransition(func(e download.TransitionEvent) {
		logger.Debug("download transition",
			"download_id", e.DownloadID, "from", e.From, "to", e.To)
	})

	runner := server.NewRunner(server.Config{
		ListenAddr:   fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		PollInterval: time.Duration(cfg.Server.PollIntervalSeconds) * time.Second,
	}, api, pipeline, downloadManager, logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("reelerd starting",
		"version", version,
		"addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		"database", cfg.Database.Path,
		"library", cfg.Library.Root,
		"log_level", cfg.Server.LogLevel,
	)

	if err := runner.Run(ctx); err != nil {
		return err
	}
	logger.Info("reelerd stopped")
	return nil
}
