package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"doo-bots/pkg/highlight"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const videosCollection = "videos"

// Firestore stores records at {collection}/{date}/videos/{docID}.
// A TTL policy on expires_at removes old records.
type Firestore struct {
	client     *firestore.Client
	logger     *slog.Logger
	now        func() time.Time
	collection string
}

// NewFirestore creates a Firestore backed store.
func NewFirestore(client *firestore.Client, collection string, logger *slog.Logger) *Firestore {
	return &Firestore{
		client:     client,
		logger:     logger,
		now:        time.Now,
		collection: collection,
	}
}

func (s *Firestore) doc(date, videoURL string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(date).Collection(videosCollection).Doc(highlight.DocID(videoURL))
}

// HasPosted reports whether a record exists for the video on date.
func (s *Firestore) HasPosted(ctx context.Context, date, videoURL string) (bool, error) {
	snap, err := s.doc(date, videoURL).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get record: %w", err)
	}
	return snap.Exists(), nil
}

// MarkPosted creates the record, failing with ErrAlreadyPosted if it exists.
func (s *Firestore) MarkPosted(ctx context.Context, date string, h highlight.Highlight) error {
	rec := highlight.NewRecord(h, s.now())

	_, err := s.doc(date, h.VideoURL).Create(ctx, map[string]any{
		"video_url":   rec.VideoURL,
		"title":       rec.Title,
		"description": rec.Description,
		"posted_at":   firestore.ServerTimestamp,
		"expires_at":  rec.ExpiresAt,
	})
	if status.Code(err) == codes.AlreadyExists {
		return ErrAlreadyPosted
	}
	if err != nil {
		return fmt.Errorf("create record: %w", err)
	}

	s.logger.Debug("Dedup record saved", "date", date, "video_url", h.VideoURL)
	return nil
}

// Unmark deletes the record for the video.
func (s *Firestore) Unmark(ctx context.Context, date, videoURL string) error {
	_, err := s.doc(date, videoURL).Delete(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Firestore) Close() error {
	return s.client.Close()
}
