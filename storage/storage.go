// Package storage persists dedup records for posted highlights.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"doo-bots/pkg/highlight"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
)

// ErrAlreadyPosted is returned by MarkPosted when a record for the video already exists.
var ErrAlreadyPosted = errors.New("highlight already posted")

// Supported backends.
const (
	BackendFirestore = "firestore"
	BackendGCS       = "gcs"
	BackendBolt      = "bbolt"
)

// Store tracks which highlights have been posted, keyed by date and video URL.
type Store interface {
	HasPosted(ctx context.Context, date, videoURL string) (bool, error)
	MarkPosted(ctx context.Context, date string, h highlight.Highlight) error
	Unmark(ctx context.Context, date, videoURL string) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend    string
	ProjectID  string
	Database   string
	Collection string
	Bucket     string
	Prefix     string
	BoltPath   string
}

// Open creates the configured storage backend.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case BackendFirestore:
		if opts.ProjectID == "" {
			return nil, errors.New("firestore backend requires a project id")
		}
		client, err := firestore.NewClientWithDatabase(ctx, opts.ProjectID, opts.Database)
		if err != nil {
			return nil, fmt.Errorf("create firestore client: %w", err)
		}
		logger.Info("Using Firestore dedup store", "project", opts.ProjectID, "database", opts.Database, "collection", opts.Collection)
		return NewFirestore(client, opts.Collection, logger), nil

	case BackendGCS:
		if opts.Bucket == "" {
			return nil, errors.New("gcs backend requires a bucket")
		}
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		logger.Info("Using Cloud Storage dedup store", "bucket", opts.Bucket, "prefix", opts.Prefix)
		return NewGCS(client, opts.Bucket, opts.Prefix, logger), nil

	case BackendBolt:
		if strings.TrimSpace(opts.BoltPath) == "" {
			return nil, errors.New("bbolt backend requires a path")
		}
		logger.Info("Using local bbolt dedup store", "path", opts.BoltPath)
		return OpenBolt(opts.BoltPath, logger)

	default:
		return nil, fmt.Errorf("unsupported dedup backend %q", opts.Backend)
	}
}
