package highlight

import (
	"strings"
	"testing"
	"time"
)

func TestIsHomeRun(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		want        bool
	}{
		{
			name:  "homer in title",
			title: "Judge's 40th homer",
			want:  true,
		},
		{
			name:        "home run in description",
			title:       "Ohtani connects",
			description: "Shohei Ohtani crushes a two-run Home Run to right",
			want:        true,
		},
		{
			name:  "upper case title",
			title: "SOTO HOMERS AGAIN",
			want:  true,
		},
		{
			name:        "neither field",
			title:       "Skenes strikes out 10",
			description: "Paul Skenes fans the side in the 6th",
			want:        false,
		},
		{
			name: "empty",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsHomeRun(tt.title, tt.description); got != tt.want {
				t.Errorf("IsHomeRun(%q, %q) = %v, want %v", tt.title, tt.description, got, tt.want)
			}
		})
	}
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{
			name:  "trailing duration",
			title: "Smith homers (02:34:56)",
			want:  "Smith homers",
		},
		{
			name:  "no duration",
			title: "Smith homers",
			want:  "Smith homers",
		},
		{
			name:  "duration not at end",
			title: "Smith (00:00:45) homers",
			want:  "Smith (00:00:45) homers",
		},
		{
			name:  "trailing whitespace after duration",
			title: "Smith homers (00:00:45)  ",
			want:  "Smith homers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanTitle(tt.title); got != tt.want {
				t.Errorf("CleanTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestDocIDIsStable(t *testing.T) {
	url := "https://mlb-cuts-diamond.mlb.com/FORGE/2025/2025-07/04/abc.mp4"

	first := DocID(url)
	if first != DocID(url) {
		t.Fatal("DocID should be deterministic")
	}
	if first != DocID("  "+url+"\n") {
		t.Error("DocID should ignore surrounding whitespace")
	}
	if len(first) != 64 {
		t.Errorf("DocID length = %d, want 64", len(first))
	}
	if first == DocID(url+"?x=1") {
		t.Error("different URLs should not share a DocID")
	}
}

func TestMessage(t *testing.T) {
	h := Highlight{
		Title:       "Raleigh's 50th homer (00:00:41)",
		Description: "Cal Raleigh crushes his 50th home run",
		VideoURL:    "https://example.com/clip.mp4",
	}

	got := h.Message()
	want := "☄️ **Raleigh's 50th homer**\nCal Raleigh crushes his 50th home run\n[Video](https://example.com/clip.mp4)"
	if got != want {
		t.Errorf("Message() = %q, want %q", got, want)
	}
}

func TestRecordExpiry(t *testing.T) {
	now := time.Date(2025, 7, 4, 20, 0, 0, 0, time.UTC)
	rec := NewRecord(Highlight{VideoURL: "u"}, now)

	if rec.Expired(now) {
		t.Error("fresh record should not be expired")
	}
	if !rec.Expired(now.Add(Retention)) {
		t.Error("record should expire after the retention window")
	}
	if !strings.HasPrefix(Date(now), "2025-07-04") {
		t.Errorf("Date() = %q", Date(now))
	}
}

func TestGameActive(t *testing.T) {
	for status, want := range map[string]bool{
		StatusPreview: false,
		StatusLive:    true,
		StatusFinal:   true,
		"":            false,
	} {
		if got := (Game{Status: status}).Active(); got != want {
			t.Errorf("Game{Status: %q}.Active() = %v, want %v", status, got, want)
		}
	}
}
