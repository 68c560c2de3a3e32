package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDingersDefaults(t *testing.T) {
	t.Setenv("GCP_PROJECT_ID", "")
	t.Setenv("STORAGE_BUCKET", "")
	t.Setenv("DEDUP_BACKEND", "")

	cfg, err := LoadDingers()
	if err != nil {
		t.Fatalf("LoadDingers() error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.DedupBackend != "bbolt" {
		t.Errorf("DedupBackend = %q, want bbolt", cfg.DedupBackend)
	}
	if cfg.FirestoreDatabase != "dingers" || cfg.FirestoreCollection != "videos" {
		t.Errorf("firestore = %q/%q", cfg.FirestoreDatabase, cfg.FirestoreCollection)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
}

func TestLoadDingersBackendSelection(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		backend string
	}{
		{
			name:    "project implies firestore",
			env:     map[string]string{"GCP_PROJECT_ID": "doo-bots"},
			backend: "firestore",
		},
		{
			name:    "bucket implies gcs",
			env:     map[string]string{"STORAGE_BUCKET": "doo-dedup"},
			backend: "gcs",
		},
		{
			name:    "explicit wins",
			env:     map[string]string{"GCP_PROJECT_ID": "doo-bots", "DEDUP_BACKEND": " BBOLT "},
			backend: "bbolt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GCP_PROJECT_ID", "")
			t.Setenv("STORAGE_BUCKET", "")
			t.Setenv("DEDUP_BACKEND", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadDingers()
			if err != nil {
				t.Fatalf("LoadDingers() error = %v", err)
			}
			if cfg.DedupBackend != tt.backend {
				t.Errorf("DedupBackend = %q, want %q", cfg.DedupBackend, tt.backend)
			}
		})
	}
}

func TestLoadDingersRejectsBadTimeout(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT_SECONDS", "0")
	if _, err := LoadDingers(); err == nil {
		t.Fatal("expected error for zero timeout")
	}
}

func TestLoadTransactions(t *testing.T) {
	t.Setenv("DISCORD_TRANSACTIONS_WEBHOOK_URL", "https://discord.test/tx")
	t.Setenv("LEAGUE_NAME", "")
	t.Setenv("GMAIL_LABEL", "")

	_, err := LoadTransactions()
	if err == nil {
		t.Fatal("expected error for empty label")
	}

	t.Setenv("GMAIL_LABEL", "Fantrax")
	t.Setenv("LEAGUE_NAME", "Dynasty League")
	cfg, err := LoadTransactions()
	if err != nil {
		t.Fatalf("LoadTransactions() error = %v", err)
	}
	if cfg.Label != "Fantrax" || cfg.League != "Dynasty League" {
		t.Errorf("label/league = %q/%q", cfg.Label, cfg.League)
	}
	if cfg.TransactionsURL != "https://discord.test/tx" {
		t.Errorf("TransactionsURL = %q", cfg.TransactionsURL)
	}
	if cfg.Topic != "transactions-pushes" || cfg.Subscription != "transactions-pull" {
		t.Errorf("topic/subscription = %q/%q", cfg.Topic, cfg.Subscription)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
