package storage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"doo-bots/pkg/highlight"

	bolt "go.etcd.io/bbolt"
)

func openTestBolt(t *testing.T) *Bolt {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store, err := OpenBolt(filepath.Join(t.TempDir(), "data", "dingers.db"), logger)
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBoltMarkAndCheck(t *testing.T) {
	ctx := context.Background()
	store := openTestBolt(t)
	h := highlight.Highlight{
		Title:    "Judge homers (00:00:41)",
		VideoURL: "https://example.com/judge.mp4",
	}

	posted, err := store.HasPosted(ctx, "2025-07-04", h.VideoURL)
	if err != nil || posted {
		t.Fatalf("expected unposted highlight, posted=%v err=%v", posted, err)
	}

	if err := store.MarkPosted(ctx, "2025-07-04", h); err != nil {
		t.Fatalf("MarkPosted: %v", err)
	}

	posted, err = store.HasPosted(ctx, "2025-07-04", h.VideoURL)
	if err != nil || !posted {
		t.Fatalf("expected posted highlight, posted=%v err=%v", posted, err)
	}

	// Records are scoped to the date.
	posted, err = store.HasPosted(ctx, "2025-07-05", h.VideoURL)
	if err != nil || posted {
		t.Fatalf("expected no record on another date, posted=%v err=%v", posted, err)
	}
}

func TestBoltMarkPostedIsInsertIfAbsent(t *testing.T) {
	ctx := context.Background()
	store := openTestBolt(t)
	h := highlight.Highlight{VideoURL: "https://example.com/soto.mp4"}

	if err := store.MarkPosted(ctx, "2025-07-04", h); err != nil {
		t.Fatalf("first MarkPosted: %v", err)
	}
	if err := store.MarkPosted(ctx, "2025-07-04", h); !errors.Is(err, ErrAlreadyPosted) {
		t.Fatalf("second MarkPosted error = %v, want ErrAlreadyPosted", err)
	}
}

func TestBoltUnmark(t *testing.T) {
	ctx := context.Background()
	store := openTestBolt(t)
	h := highlight.Highlight{VideoURL: "https://example.com/ohtani.mp4"}

	if err := store.Unmark(ctx, "2025-07-04", h.VideoURL); err != nil {
		t.Fatalf("Unmark on empty store: %v", err)
	}
	if err := store.MarkPosted(ctx, "2025-07-04", h); err != nil {
		t.Fatalf("MarkPosted: %v", err)
	}
	if err := store.Unmark(ctx, "2025-07-04", h.VideoURL); err != nil {
		t.Fatalf("Unmark: %v", err)
	}

	posted, err := store.HasPosted(ctx, "2025-07-04", h.VideoURL)
	if err != nil || posted {
		t.Fatalf("expected record removed, posted=%v err=%v", posted, err)
	}
	if err := store.MarkPosted(ctx, "2025-07-04", h); err != nil {
		t.Fatalf("MarkPosted after Unmark: %v", err)
	}
}

func TestBoltExpiresRecords(t *testing.T) {
	ctx := context.Background()
	store := openTestBolt(t)
	start := time.Date(2025, 7, 4, 20, 0, 0, 0, time.UTC)
	current := start
	store.now = func() time.Time { return current }
	store.lastCleanup.Store(start.Unix())

	h := highlight.Highlight{VideoURL: "https://example.com/raleigh.mp4"}
	if err := store.MarkPosted(ctx, "2025-07-04", h); err != nil {
		t.Fatalf("MarkPosted: %v", err)
	}

	current = start.Add(highlight.Retention + time.Minute)
	posted, err := store.HasPosted(ctx, "2025-07-04", h.VideoURL)
	if err != nil {
		t.Fatalf("HasPosted after expiry: %v", err)
	}
	if posted {
		t.Fatal("expected expired record to be ignored")
	}

	// The cleanup pass ran because the cadence elapsed, so the date bucket is gone.
	err = store.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte("2025-07-04")) != nil {
			t.Error("expected empty date bucket to be removed")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}

	if err := store.MarkPosted(ctx, "2025-07-04", h); err != nil {
		t.Fatalf("MarkPosted after expiry: %v", err)
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	tests := []struct {
		name string
		opts Options
	}{
		{name: "unknown", opts: Options{Backend: "redis"}},
		{name: "bbolt without path", opts: Options{Backend: BackendBolt}},
		{name: "gcs without bucket", opts: Options{Backend: BackendGCS}},
		{name: "firestore without project", opts: Options{Backend: BackendFirestore}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Open(context.Background(), tt.opts, logger); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestOpenBolt(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store, err := Open(context.Background(), Options{
		Backend:  "BBOLT",
		BoltPath: filepath.Join(t.TempDir(), "dingers.db"),
	}, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	if _, ok := store.(*Bolt); !ok {
		t.Fatalf("Open returned %T, want *Bolt", store)
	}
}
