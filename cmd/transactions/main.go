// Command transactions relays Fantrax transaction emails from Gmail to Discord.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/gmail/v1"

	"doo-bots/config"
	"doo-bots/inbox"
	"doo-bots/mailbox"
	"doo-bots/server"
	"doo-bots/subscriber"
	"doo-bots/watch"
	"doo-bots/webhook"
)

// unavailable stands in for Gmail when the credentials are unusable,
// so every request reports the problem instead of the process dying.
type unavailable struct {
	err error
}

func (u unavailable) LabelID(context.Context, string) (string, error) { return "", u.err }

func (u unavailable) List(context.Context, []string, int64) ([]string, error) { return nil, u.err }

func (u unavailable) Get(context.Context, string) (*gmail.Message, error) { return nil, u.err }

func (u unavailable) Archive(context.Context, string) error { return u.err }

func (u unavailable) Watch(context.Context, string, []string) (*gmail.WatchResponse, error) {
	return nil, u.err
}

type gmailClient interface {
	inbox.Mailbox
	watch.Mailbox
}

func openMailbox(ctx context.Context, cfg *config.Transactions, logger *slog.Logger) gmailClient {
	if cfg.CredentialsJSON == "" {
		return unavailable{err: errors.New("GMAIL_CREDENTIALS_JSON not set")}
	}
	creds, err := mailbox.ParseCredentials([]byte(cfg.CredentialsJSON))
	if err != nil {
		return unavailable{err: err}
	}
	mb, err := mailbox.New(ctx, creds, logger)
	if err != nil {
		return unavailable{err: fmt.Errorf("create gmail service: %w", err)}
	}
	return mb
}

func main() {
	pull := flag.Bool("pull", false, "receive notifications from the Pub/Sub pull subscription instead of serving HTTP")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadTransactions()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: config.ParseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	if cfg.ProjectID == "" {
		cfg.ProjectID = config.DetectProjectID(ctx)
		if cfg.ProjectID != "" {
			logger.Info("Detected project from metadata server", "project", cfg.ProjectID)
		}
	}

	mb := openMailbox(ctx, cfg, logger)
	if u, ok := mb.(unavailable); ok {
		logger.Error("Gmail unavailable, requests will fail until credentials are fixed", "error", u.err)
	}

	processor := inbox.New(mb, webhook.New(cfg.HTTPTimeout, logger), inbox.Config{
		Label:           cfg.Label,
		TransactionsURL: cfg.TransactionsURL,
		TradeBlockURL:   cfg.TradeBlockURL,
		League:          cfg.League,
	}, logger)
	renewer := watch.New(mb, cfg.ProjectID, cfg.Topic, cfg.Label, logger)
	handler := server.NewTransactions(processor, renewer, logger)

	if *pull {
		if err := runPull(ctx, cfg, handler, logger); err != nil {
			logger.Error("Pull subscriber failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := server.Serve(ctx, cfg.Port, handler.Handler(), logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func runPull(ctx context.Context, cfg *config.Transactions, handler *server.Transactions, logger *slog.Logger) error {
	if cfg.ProjectID == "" {
		return errors.New("GCP_PROJECT_ID is required in pull mode")
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return fmt.Errorf("create pubsub client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close pubsub client", "error", err)
		}
	}()

	sub := subscriber.New(client, cfg.Subscription, logger)
	return sub.Run(ctx, func(ctx context.Context, data []byte) error {
		res, err := handler.HandleNotification(ctx, data)
		if err != nil {
			return err
		}
		logger.Info("Inbox pass result", "status", res.Status, "reason", res.Reason, "processed", len(res.Processed))
		return nil
	})
}
