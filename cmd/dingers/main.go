// Command dingers posts new MLB home run highlights to a Discord webhook.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"doo-bots/config"
	"doo-bots/poll"
	"doo-bots/server"
	"doo-bots/statsapi"
	"doo-bots/storage"
	"doo-bots/webhook"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadDingers()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: config.ParseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	if cfg.WebhookURL == "" {
		logger.Warn("DISCORD_DINGERS_WEBHOOK_URL not set, highlights will not be posted")
	}

	store, err := storage.Open(ctx, storage.Options{
		Backend:    cfg.DedupBackend,
		ProjectID:  cfg.ProjectID,
		Database:   cfg.FirestoreDatabase,
		Collection: cfg.FirestoreCollection,
		Bucket:     cfg.StorageBucket,
		Prefix:     cfg.StoragePrefix,
		BoltPath:   cfg.BoltPath,
	}, logger)
	if err != nil {
		logger.Error("Failed to open dedup store", "backend", cfg.DedupBackend, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close dedup store", "error", err)
		}
	}()

	poller := poll.New(
		statsapi.New(cfg.StatsAPIBaseURL, cfg.HTTPTimeout, logger),
		store,
		webhook.New(cfg.HTTPTimeout, logger),
		cfg.WebhookURL,
		logger,
	)

	if err := server.Serve(ctx, cfg.Port, server.Dingers(poller, logger), logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
