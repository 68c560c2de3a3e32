package transaction

import (
	"encoding/base64"
	"testing"

	"google.golang.org/api/gmail/v1"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		subject string
		want    Kind
	}{
		{"Player(s) Claimed - Team X", Claim},
		{"The Don Orsillo Open: Free Agents Added to Pool", Drop},
		{"Trade Executed in The Don Orsillo Open", Trade},
		{"TRADE BLOCK CHANGED for Team Y", Block},
		{"Draft Pick Made: Round 3", Draft},
		{"Your weekly matchup recap", Unknown},
		{"", Unknown},
		// Earlier phrases win when a subject mentions several.
		{"Trade executed; trade block changed", Trade},
	}

	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			if got := Classify(tt.subject); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.subject, got, tt.want)
			}
		})
	}
}

func encode(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestHTMLBody(t *testing.T) {
	tests := []struct {
		name   string
		msg    *gmail.Message
		want   string
		wantOK bool
	}{
		{
			name: "top level html",
			msg: &gmail.Message{Payload: &gmail.MessagePart{
				MimeType: "text/html",
				Body:     &gmail.MessagePartBody{Data: encode("<p>top</p>")},
			}},
			want:   "<p>top</p>",
			wantOK: true,
		},
		{
			name: "first html part",
			msg: &gmail.Message{Payload: &gmail.MessagePart{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: encode("plain")}},
					{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: encode("<p>first</p>")}},
					{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: encode("<p>second</p>")}},
				},
			}},
			want:   "<p>first</p>",
			wantOK: true,
		},
		{
			name: "unpadded data",
			msg: &gmail.Message{Payload: &gmail.MessagePart{
				MimeType: "text/html",
				Body:     &gmail.MessagePartBody{Data: base64.RawURLEncoding.EncodeToString([]byte("<b>ok?</b>"))},
			}},
			want:   "<b>ok?</b>",
			wantOK: true,
		},
		{
			name: "plain text only",
			msg: &gmail.Message{Payload: &gmail.MessagePart{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: encode("plain")}},
				},
			}},
			wantOK: false,
		},
		{
			name:   "no payload",
			msg:    &gmail.Message{},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := HTMLBody(tt.msg)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("HTMLBody() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSubject(t *testing.T) {
	msg := &gmail.Message{Payload: &gmail.MessagePart{Headers: []*gmail.MessagePartHeader{
		{Name: "From", Value: "noreply@fantrax.com"},
		{Name: "SUBJECT", Value: "Player(s) Claimed"},
	}}}
	if got := Subject(msg); got != "Player(s) Claimed" {
		t.Errorf("Subject() = %q", got)
	}
	if got := Subject(&gmail.Message{}); got != "" {
		t.Errorf("Subject() without payload = %q", got)
	}
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "content element with breaks",
			html: `<html><body><p>header</p><div class="wrapper darkmode-text">Line one<br>Line <b>two</b></div></body></html>`,
			want: "Line one \n Line  two",
		},
		{
			name: "falls back to whole document",
			html: `<html><body><p>Hello</p><p>world</p></body></html>`,
			want: "Hello world",
		},
		{
			name: "breaks outside a content element add nothing",
			html: `<html><body><p>Round 1<br>Pick 2</p></body></html>`,
			want: "Round 1 Pick 2",
		},
		{
			name: "skips scripts",
			html: `<div class="darkmode-text">a<script>var x = 1;</script>b</div>`,
			want: "a b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlainText(tt.html); got != tt.want {
				t.Errorf("PlainText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeLines(t *testing.T) {
	got := normalizeLines("  a   b  \n\n\n\nc\n   \nd")
	want := "a b\n\nc\n\nd"
	if got != want {
		t.Errorf("normalizeLines() = %q, want %q", got, want)
	}
}
