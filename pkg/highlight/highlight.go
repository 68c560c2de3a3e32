// Package highlight contains the core domain types for the home run highlight bot.
package highlight

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Retention is how long a dedup record is kept after a highlight is posted.
const Retention = 48 * time.Hour

// Abstract game states reported by the stats API.
const (
	StatusPreview = "Preview"
	StatusLive    = "Live"
	StatusFinal   = "Final"
)

var durationSuffix = regexp.MustCompile(`\s*\(\d{2}:\d{2}:\d{2}\)\s*$`)

// Game is a scheduled game and its abstract state.
type Game struct {
	Status string
	ID     int
}

// Active reports whether the game can have highlights worth checking.
func (g Game) Active() bool {
	return g.Status == StatusLive || g.Status == StatusFinal
}

// Entry is one item from a game's highlight feed.
type Entry struct {
	Title       string
	Description string
	VideoURL    string
}

// Valid reports whether the entry carries a title and a video link.
func (e Entry) Valid() bool {
	return strings.TrimSpace(e.Title) != "" && strings.TrimSpace(e.VideoURL) != ""
}

// Highlight is a home run clip ready to be posted.
type Highlight struct {
	Title       string
	Description string
	VideoURL    string // Identity of the highlight
	GameID      int
}

// Record is the stored marker for a posted highlight.
type Record struct {
	PostedAt    time.Time `json:"posted_at" firestore:"posted_at"`
	ExpiresAt   time.Time `json:"expires_at" firestore:"expires_at"`
	VideoURL    string    `json:"video_url" firestore:"video_url"`
	Title       string    `json:"title" firestore:"title"`
	Description string    `json:"description" firestore:"description"`
}

// NewRecord builds the dedup record for h posted at now.
func NewRecord(h Highlight, now time.Time) Record {
	return Record{
		VideoURL:    h.VideoURL,
		Title:       h.Title,
		Description: h.Description,
		PostedAt:    now.UTC(),
		ExpiresAt:   now.UTC().Add(Retention),
	}
}

// Expired reports whether the record is past its retention window.
func (r Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// IsHomeRun reports whether a highlight's title or description mentions a home run.
func IsHomeRun(title, description string) bool {
	for _, s := range []string{strings.ToLower(title), strings.ToLower(description)} {
		if strings.Contains(s, "homer") || strings.Contains(s, "home run") {
			return true
		}
	}
	return false
}

// FromEntry converts a feed entry into a Highlight for the given game.
func FromEntry(e Entry, gameID int) Highlight {
	return Highlight{
		Title:       e.Title,
		Description: e.Description,
		VideoURL:    strings.TrimSpace(e.VideoURL),
		GameID:      gameID,
	}
}

// DocID derives the stable storage key for a video URL.
// The key is the hex SHA-256 of the trimmed URL so restarts converge on the same record.
func DocID(videoURL string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(videoURL)))
	return hex.EncodeToString(h[:])
}

// CleanTitle strips the trailing clip duration, e.g. "Smith homers (02:34:56)" -> "Smith homers".
func CleanTitle(title string) string {
	return strings.TrimSpace(durationSuffix.ReplaceAllString(title, ""))
}

// Message renders the chat message for a highlight.
func (h Highlight) Message() string {
	return fmt.Sprintf("☄️ **%s**\n%s\n[Video](%s)", CleanTitle(h.Title), h.Description, h.VideoURL)
}

// Date formats t as the YYYY-MM-DD key used for dedup records.
func Date(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
