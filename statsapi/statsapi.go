// Package statsapi fetches schedules and highlight feeds from the MLB Stats API.
package statsapi

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"doo-bots/pkg/highlight"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the public Stats API host.
const DefaultBaseURL = "https://statsapi.mlb.com"

const (
	sportMLB          = "1"
	preferredPlayback = "mp4Avc"
	fallbackPlayback  = "FLASH_1800K_960X540"
	highlightsHydrate = "game(content(highlights(highlights)))"
)

// Client talks to the Stats API.
type Client struct {
	http    *resty.Client
	logger  *slog.Logger
	baseURL string
}

// New creates a new Stats API client.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := resty.New()
	c.SetTimeout(timeout)
	c.SetHeader("Accept", "application/json")
	return &Client{
		http:    c,
		logger:  logger,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

type scheduleResponse struct {
	Dates []struct {
		Games []scheduleGame `json:"games"`
	} `json:"dates"`
}

type scheduleGame struct {
	Status struct {
		AbstractGameState string `json:"abstractGameState"`
	} `json:"status"`
	Content struct {
		Highlights struct {
			Highlights struct {
				Items []feedItem `json:"items"`
			} `json:"highlights"`
		} `json:"highlights"`
	} `json:"content"`
	GamePk int `json:"gamePk"`
}

type feedItem struct {
	Title       string     `json:"title"`
	Headline    string     `json:"headline"`
	Description string     `json:"description"`
	Duration    string     `json:"duration"`
	Date        string     `json:"date"`
	Playbacks   []playback `json:"playbacks"`
}

type playback struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Games returns all games scheduled on date (YYYY-MM-DD).
func (c *Client) Games(ctx context.Context, date string) ([]highlight.Game, error) {
	resp, err := c.schedule(ctx, map[string]string{
		"sportId": sportMLB,
		"date":    date,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch schedule for %s: %w", date, err)
	}

	if len(resp.Dates) == 0 {
		return nil, nil
	}

	games := make([]highlight.Game, 0, len(resp.Dates[0].Games))
	for _, g := range resp.Dates[0].Games {
		games = append(games, highlight.Game{ID: g.GamePk, Status: g.Status.AbstractGameState})
	}
	return games, nil
}

// Highlights returns the highlight feed for a game, oldest first.
// Entries are returned as-is; callers decide what to do with malformed ones.
func (c *Client) Highlights(ctx context.Context, gameID int) ([]highlight.Entry, error) {
	resp, err := c.schedule(ctx, map[string]string{
		"sportId": sportMLB,
		"gamePk":  strconv.Itoa(gameID),
		"hydrate": highlightsHydrate,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch highlights for game %d: %w", gameID, err)
	}

	if len(resp.Dates) == 0 || len(resp.Dates[0].Games) == 0 {
		return nil, nil
	}

	items := resp.Dates[0].Games[0].Content.Highlights.Highlights.Items
	sort.SliceStable(items, func(i, j int) bool { return items[i].Date < items[j].Date })

	entries := make([]highlight.Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, item.entry())
	}
	return entries, nil
}

func (c *Client) schedule(ctx context.Context, params map[string]string) (*scheduleResponse, error) {
	url := c.baseURL + "/api/v1/schedule"
	c.logger.Debug("HTTP request starting", "method", "GET", "url", url, "params", params)

	var out scheduleResponse
	startTime := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&out).
		Get(url)
	duration := time.Since(startTime)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}

	c.logger.Debug("HTTP request completed",
		"url", url,
		"status_code", resp.StatusCode(),
		"duration_ms", duration.Milliseconds())

	if resp.IsError() {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode())
	}
	return &out, nil
}

// entry flattens a feed item into the title/description/link triple.
// The title keeps the clip duration suffix, e.g. "Judge homers (00:00:41)".
func (f feedItem) entry() highlight.Entry {
	title := f.Title
	if title == "" {
		title = f.Headline
	}
	if title != "" && f.Duration != "" {
		title = fmt.Sprintf("%s (%s)", title, f.Duration)
	}

	return highlight.Entry{
		Title:       title,
		Description: f.Description,
		VideoURL:    f.videoURL(),
	}
}

func (f feedItem) videoURL() string {
	for _, name := range []string{preferredPlayback, fallbackPlayback} {
		for _, p := range f.Playbacks {
			if p.Name == name && p.URL != "" {
				return p.URL
			}
		}
	}
	for _, p := range f.Playbacks {
		if p.URL != "" {
			return p.URL
		}
	}
	return ""
}
