package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"doo-bots/pkg/highlight"

	"cloud.google.com/go/storage"
	"github.com/codeGROOVE-dev/retry"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GCS stores one JSON object per posted highlight in a Cloud Storage bucket.
// Expiry is left to a bucket lifecycle rule on the object's custom time.
type GCS struct {
	client *storage.Client
	logger *slog.Logger
	now    func() time.Time
	bucket string
	prefix string
}

// NewGCS creates a Cloud Storage backed store.
func NewGCS(client *storage.Client, bucket, prefix string, logger *slog.Logger) *GCS {
	return &GCS{
		client: client,
		logger: logger,
		now:    time.Now,
		bucket: bucket,
		prefix: prefix,
	}
}

func (s *GCS) key(date, videoURL string) string {
	return fmt.Sprintf("%s%s/%s.json", s.prefix, date, highlight.DocID(videoURL))
}

func retryOpts(ctx context.Context, logger *slog.Logger, op, key string) []retry.Option {
	return []retry.Option{
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(2 * time.Minute),
		retry.MaxJitter(10 * time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.Info("Retrying storage operation after error", "op", op, "attempt", n, "key", key, "error", err)
		}),
	}
}

// HasPosted reports whether a record exists for the video on date.
func (s *GCS) HasPosted(ctx context.Context, date, videoURL string) (bool, error) {
	key := s.key(date, videoURL)

	var found bool
	err := retry.Do(
		func() error {
			_, err := s.client.Bucket(s.bucket).Object(key).Attrs(ctx)
			if errors.Is(err, storage.ErrObjectNotExist) {
				found = false
				return nil
			}
			if err != nil {
				return fmt.Errorf("read object attrs: %w", err)
			}
			found = true
			return nil
		},
		retryOpts(ctx, s.logger, "has_posted", key)...,
	)
	if err != nil {
		return false, fmt.Errorf("check posted after retries: %w", err)
	}
	return found, nil
}

// MarkPosted writes the record only if no object exists yet.
func (s *GCS) MarkPosted(ctx context.Context, date string, h highlight.Highlight) error {
	key := s.key(date, h.VideoURL)
	rec := highlight.NewRecord(h, s.now())

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	err = retry.Do(
		func() error {
			obj := s.client.Bucket(s.bucket).Object(key).If(storage.Conditions{DoesNotExist: true})
			w := obj.NewWriter(ctx)
			w.ContentType = "application/json"
			w.CustomTime = rec.ExpiresAt
			if _, writeErr := w.Write(data); writeErr != nil {
				if closeErr := w.Close(); closeErr != nil {
					s.logger.Warn("Failed to close writer after error", "error", closeErr)
				}
				return fmt.Errorf("write to storage: %w", writeErr)
			}
			if closeErr := w.Close(); closeErr != nil {
				if preconditionFailed(closeErr) {
					return retry.Unrecoverable(ErrAlreadyPosted)
				}
				return fmt.Errorf("close storage writer: %w", closeErr)
			}
			return nil
		},
		retryOpts(ctx, s.logger, "mark_posted", key)...,
	)
	if errors.Is(err, ErrAlreadyPosted) {
		return ErrAlreadyPosted
	}
	if err != nil {
		return fmt.Errorf("mark posted after retries: %w", err)
	}

	s.logger.Debug("Dedup record saved", "key", key, "video_url", h.VideoURL)
	return nil
}

// Unmark deletes the record for the video. A missing object is not an error.
func (s *GCS) Unmark(ctx context.Context, date, videoURL string) error {
	key := s.key(date, videoURL)
	err := retry.Do(
		func() error {
			if err := s.client.Bucket(s.bucket).Object(key).Delete(ctx); err != nil {
				if errors.Is(err, storage.ErrObjectNotExist) {
					return nil
				}
				return fmt.Errorf("delete from storage: %w", err)
			}
			return nil
		},
		retryOpts(ctx, s.logger, "unmark", key)...,
	)
	if err != nil {
		return fmt.Errorf("unmark after retries: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *GCS) Close() error {
	return s.client.Close()
}

// preconditionFailed reports whether err is the DoesNotExist precondition rejecting the write.
func preconditionFailed(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed {
		return true
	}
	return status.Code(err) == codes.FailedPrecondition
}
