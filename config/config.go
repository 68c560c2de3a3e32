// Package config loads bot settings from the environment and an optional .env file.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/compute/metadata"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Dingers holds the home run bot settings.
type Dingers struct {
	Port                string        `mapstructure:"port"`
	LogLevel            string        `mapstructure:"log_level"`
	WebhookURL          string        `mapstructure:"discord_dingers_webhook_url"`
	DedupBackend        string        `mapstructure:"dedup_backend"`
	ProjectID           string        `mapstructure:"gcp_project_id"`
	FirestoreDatabase   string        `mapstructure:"firestore_database"`
	FirestoreCollection string        `mapstructure:"firestore_collection"`
	StorageBucket       string        `mapstructure:"storage_bucket"`
	StoragePrefix       string        `mapstructure:"storage_prefix"`
	BoltPath            string        `mapstructure:"bbolt_path"`
	StatsAPIBaseURL     string        `mapstructure:"statsapi_base_url"`
	HTTPTimeoutSeconds  int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout         time.Duration `mapstructure:"-"`
}

// Transactions holds the Fantrax email bot settings.
type Transactions struct {
	Port               string        `mapstructure:"port"`
	LogLevel           string        `mapstructure:"log_level"`
	ProjectID          string        `mapstructure:"gcp_project_id"`
	CredentialsJSON    string        `mapstructure:"gmail_credentials_json"`
	Label              string        `mapstructure:"gmail_label"`
	Topic              string        `mapstructure:"pubsub_topic"`
	Subscription       string        `mapstructure:"pubsub_subscription"`
	TransactionsURL    string        `mapstructure:"discord_transactions_webhook_url"`
	TradeBlockURL      string        `mapstructure:"discord_trade_block_webhook_url"`
	League             string        `mapstructure:"league_name"`
	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`
}

func newViper() *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("gcp_project_id", "")
	v.SetDefault("http_timeout_seconds", 30)
	v.AutomaticEnv()
	return v
}

// LoadDingers reads the home run bot configuration.
func LoadDingers() (*Dingers, error) {
	v := newViper()
	v.SetDefault("discord_dingers_webhook_url", "")
	v.SetDefault("dedup_backend", "")
	v.SetDefault("firestore_database", "dingers")
	v.SetDefault("firestore_collection", "videos")
	v.SetDefault("storage_bucket", "")
	v.SetDefault("storage_prefix", "videos/")
	v.SetDefault("bbolt_path", "./data/dingers.db")
	v.SetDefault("statsapi_base_url", "https://statsapi.mlb.com")

	var cfg Dingers
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.HTTPTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	cfg.DedupBackend = strings.ToLower(strings.TrimSpace(cfg.DedupBackend))
	if cfg.DedupBackend == "" {
		switch {
		case cfg.ProjectID != "":
			cfg.DedupBackend = "firestore"
		case cfg.StorageBucket != "":
			cfg.DedupBackend = "gcs"
		default:
			cfg.DedupBackend = "bbolt"
		}
	}

	return &cfg, nil
}

// LoadTransactions reads the transactions bot configuration.
func LoadTransactions() (*Transactions, error) {
	v := newViper()
	v.SetDefault("gmail_credentials_json", "")
	v.SetDefault("gmail_label", "DOO Transaction")
	v.SetDefault("pubsub_topic", "transactions-pushes")
	v.SetDefault("pubsub_subscription", "transactions-pull")
	v.SetDefault("discord_transactions_webhook_url", "")
	v.SetDefault("discord_trade_block_webhook_url", "")
	v.SetDefault("league_name", "The Don Orsillo Open")

	var cfg Transactions
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.HTTPTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	if strings.TrimSpace(cfg.Label) == "" {
		return nil, fmt.Errorf("gmail_label must not be empty")
	}

	return &cfg, nil
}

// ParseLevel maps a level name to a slog level. Unknown names mean info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// DetectProjectID asks the metadata server for the project when running on Google Cloud.
// It returns "" elsewhere.
func DetectProjectID(ctx context.Context) string {
	if !metadata.OnGCE() {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	id, err := metadata.ProjectIDWithContext(ctx)
	if err != nil {
		return ""
	}
	return id
}
