package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"doo-bots/pkg/highlight"

	bolt "go.etcd.io/bbolt"
)

const defaultCleanupInterval = 12 * time.Hour

// Bolt is a single-file local store: one bucket per date, keyed by DocID.
type Bolt struct {
	db              *bolt.DB
	logger          *slog.Logger
	now             func() time.Time
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	cleanupInterval time.Duration
}

// OpenBolt opens (or creates) the bbolt file at path.
func OpenBolt(path string, logger *slog.Logger) (*Bolt, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}

	b := &Bolt{
		db:              db,
		logger:          logger,
		now:             time.Now,
		cleanupInterval: defaultCleanupInterval,
	}
	b.lastCleanup.Store(b.now().Unix())
	return b, nil
}

// HasPosted reports whether an unexpired record exists for the video on date.
func (b *Bolt) HasPosted(_ context.Context, date, videoURL string) (bool, error) {
	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return false, err
	}

	var found bool
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(date))
		if bucket == nil {
			return nil
		}
		rec, ok := decodeRecord(bucket.Get([]byte(highlight.DocID(videoURL))))
		found = ok && !rec.Expired(now)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("read record: %w", err)
	}
	return found, nil
}

// MarkPosted stores the record unless an unexpired one is already present.
func (b *Bolt) MarkPosted(_ context.Context, date string, h highlight.Highlight) error {
	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	data, err := json.Marshal(highlight.NewRecord(h, now))
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	err = b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(date))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		key := []byte(highlight.DocID(h.VideoURL))
		if rec, ok := decodeRecord(bucket.Get(key)); ok && !rec.Expired(now) {
			return ErrAlreadyPosted
		}
		return bucket.Put(key, data)
	})
	if errors.Is(err, ErrAlreadyPosted) {
		return err
	}
	if err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// Unmark removes the record for the video.
func (b *Bolt) Unmark(_ context.Context, date, videoURL string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(date))
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(highlight.DocID(videoURL)))
	})
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// Close closes the database file.
func (b *Bolt) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// maybeCleanupExpired drops expired records on a fixed cadence so the file does not grow forever.
func (b *Bolt) maybeCleanupExpired(now time.Time) error {
	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	removed := 0
	err := b.db.Update(func(tx *bolt.Tx) error {
		var dates [][]byte
		if err := tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			dates = append(dates, append([]byte(nil), name...))
			return nil
		}); err != nil {
			return err
		}

		for _, date := range dates {
			bucket := tx.Bucket(date)
			var expired [][]byte
			if err := bucket.ForEach(func(k, v []byte) error {
				if rec, ok := decodeRecord(v); !ok || rec.Expired(now) {
					expired = append(expired, append([]byte(nil), k...))
				}
				return nil
			}); err != nil {
				return err
			}
			for _, k := range expired {
				if err := bucket.Delete(k); err != nil {
					return err
				}
			}
			removed += len(expired)

			if k, _ := bucket.Cursor().First(); k == nil {
				if err := tx.DeleteBucket(date); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cleanup expired records: %w", err)
	}

	b.lastCleanup.Store(now.Unix())
	if removed > 0 {
		b.logger.Info("Removed expired dedup records", "count", removed)
	}
	return nil
}

func decodeRecord(value []byte) (highlight.Record, bool) {
	if value == nil {
		return highlight.Record{}, false
	}
	var rec highlight.Record
	if err := json.Unmarshal(value, &rec); err != nil {
		return highlight.Record{}, false
	}
	return rec, true
}
