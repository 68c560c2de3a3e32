// Package poll runs the home run highlight polling cycle.
package poll

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"doo-bots/pkg/highlight"
	"doo-bots/storage"
)

// Source fetches schedules and highlight feeds.
type Source interface {
	Games(ctx context.Context, date string) ([]highlight.Game, error)
	Highlights(ctx context.Context, gameID int) ([]highlight.Entry, error)
}

// Store is the dedup gate for posted highlights.
type Store interface {
	HasPosted(ctx context.Context, date, videoURL string) (bool, error)
	MarkPosted(ctx context.Context, date string, h highlight.Highlight) error
	Unmark(ctx context.Context, date, videoURL string) error
}

// Poster delivers a message to a webhook.
type Poster interface {
	Post(ctx context.Context, webhookURL, content string) error
}

// Result summarizes one polling cycle.
type Result struct {
	Timestamp time.Time
	Games     int
	Posted    int
	Skipped   int
	Failed    int
}

// Poller discovers new home run highlights and posts them once.
type Poller struct {
	source     Source
	store      Store
	poster     Poster
	logger     *slog.Logger
	now        func() time.Time
	webhookURL string
}

// New creates a new poller.
func New(source Source, store Store, poster Poster, webhookURL string, logger *slog.Logger) *Poller {
	return &Poller{
		source:     source,
		store:      store,
		poster:     poster,
		logger:     logger,
		now:        time.Now,
		webhookURL: webhookURL,
	}
}

// HomeRuns returns the home run highlights of every live or final game on date.
// It also returns how many games were scheduled. Fetch failures are logged and
// treated as empty results.
func (p *Poller) HomeRuns(ctx context.Context, date string) ([]highlight.Highlight, int) {
	games, err := p.source.Games(ctx, date)
	if err != nil {
		p.logger.Error("Failed to fetch games", "date", date, "error", err)
		return nil, 0
	}

	var found []highlight.Highlight
	for _, game := range games {
		if !game.Active() || game.ID == 0 {
			continue
		}

		entries, err := p.source.Highlights(ctx, game.ID)
		if err != nil {
			p.logger.Warn("Failed to fetch highlights", "game_id", game.ID, "error", err)
			continue
		}

		for _, e := range entries {
			if !e.Valid() {
				p.logger.Warn("Skipping malformed highlight", "game_id", game.ID, "title", e.Title, "video_url", e.VideoURL)
				continue
			}
			if highlight.IsHomeRun(e.Title, e.Description) {
				found = append(found, highlight.FromEntry(e, game.ID))
			}
		}
	}
	return found, len(games)
}

// Run performs one cycle for date (YYYY-MM-DD); an empty date means today in UTC.
func (p *Poller) Run(ctx context.Context, date string) Result {
	startTime := p.now()
	if date == "" {
		date = highlight.Date(startTime)
	}
	p.logger.Info("Checking for dingers", "date", date, "timestamp", startTime.UTC().Format(time.RFC3339))

	homers, games := p.HomeRuns(ctx, date)
	res := Result{Games: games}

	if p.webhookURL == "" && len(homers) > 0 {
		p.logger.Warn("Dingers webhook URL not set, skipping posts", "highlights", len(homers))
	}

	for _, h := range homers {
		if ctx.Err() != nil {
			p.logger.Info("Context cancelled, stopping poll", "error", ctx.Err())
			break
		}

		switch p.process(ctx, date, h) {
		case outcomePosted:
			res.Posted++
		case outcomeSkipped:
			res.Skipped++
		case outcomeFailed:
			res.Failed++
		}
	}

	res.Timestamp = p.now().UTC()
	p.logger.Info("Dinger check completed",
		"date", date,
		"games", res.Games,
		"posted", res.Posted,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"duration_ms", res.Timestamp.Sub(startTime).Milliseconds())
	return res
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomePosted
	outcomeFailed
)

// process claims the highlight in the store before posting so concurrent
// cycles cannot both post it. A failed post releases the claim.
func (p *Poller) process(ctx context.Context, date string, h highlight.Highlight) outcome {
	posted, err := p.store.HasPosted(ctx, date, h.VideoURL)
	if err != nil {
		p.logger.Warn("Failed to check dedup record", "video_url", h.VideoURL, "error", err)
		return outcomeFailed
	}
	if posted {
		return outcomeSkipped
	}

	if p.webhookURL == "" {
		return outcomeSkipped
	}

	if err := p.store.MarkPosted(ctx, date, h); err != nil {
		if errors.Is(err, storage.ErrAlreadyPosted) {
			p.logger.Debug("Highlight claimed by another run", "video_url", h.VideoURL)
			return outcomeSkipped
		}
		p.logger.Warn("Failed to save dedup record", "video_url", h.VideoURL, "error", err)
		return outcomeFailed
	}

	if err := p.poster.Post(ctx, p.webhookURL, h.Message()); err != nil {
		p.logger.Error("Failed to post highlight", "game_id", h.GameID, "video_url", h.VideoURL, "error", err)
		if unmarkErr := p.store.Unmark(ctx, date, h.VideoURL); unmarkErr != nil {
			p.logger.Error("Failed to release dedup record", "video_url", h.VideoURL, "error", unmarkErr)
		}
		return outcomeFailed
	}

	p.logger.Info("Posted highlight", "game_id", h.GameID, "title", highlight.CleanTitle(h.Title), "video_url", h.VideoURL)
	return outcomePosted
}
