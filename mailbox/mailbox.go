// Package mailbox wraps the Gmail API calls used by the transactions bot.
package mailbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const (
	me         = "me"
	inboxLabel = "INBOX"
)

// Credentials is an authorized-user bundle as printed by the authgmail helper.
type Credentials struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refresh_token"`
	TokenURI     string   `json:"token_uri"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scopes       []string `json:"scopes"`
}

// ParseCredentials decodes and validates a credentials bundle.
func ParseCredentials(data []byte) (*Credentials, error) {
	if len(data) == 0 {
		return nil, errors.New("gmail credentials not set")
	}
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse gmail credentials: %w", err)
	}
	if c.RefreshToken == "" && c.Token == "" {
		return nil, errors.New("gmail credentials contain neither token nor refresh_token")
	}
	if c.RefreshToken != "" && (c.ClientID == "" || c.ClientSecret == "") {
		return nil, errors.New("gmail credentials with refresh_token need client_id and client_secret")
	}
	return &c, nil
}

// TokenSource returns a refreshing token source for the bundle.
// With a refresh token the stored access token is ignored, since its expiry is unknown.
func (c *Credentials) TokenSource(ctx context.Context) oauth2.TokenSource {
	endpoint := google.Endpoint
	if c.TokenURI != "" {
		endpoint.TokenURL = c.TokenURI
	}
	cfg := &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       c.Scopes,
	}

	tok := &oauth2.Token{RefreshToken: c.RefreshToken}
	if c.RefreshToken == "" {
		tok.AccessToken = c.Token
	}
	return cfg.TokenSource(ctx, tok)
}

// Mailbox performs Gmail calls for the authenticated user. Every call is a single attempt.
type Mailbox struct {
	service *gmail.Service
	logger  *slog.Logger
}

// New creates a Mailbox authenticated with creds.
func New(ctx context.Context, creds *Credentials, logger *slog.Logger, opts ...option.ClientOption) (*Mailbox, error) {
	opts = append([]option.ClientOption{option.WithTokenSource(creds.TokenSource(ctx))}, opts...)
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return NewWithService(svc, logger), nil
}

// NewWithService wraps an existing Gmail service.
func NewWithService(service *gmail.Service, logger *slog.Logger) *Mailbox {
	return &Mailbox{service: service, logger: logger}
}

func (m *Mailbox) logCall(endpoint string, start time.Time, err error, attrs ...any) {
	attrs = append(attrs, "endpoint", endpoint, "duration_ms", time.Since(start).Milliseconds())
	if err != nil {
		m.logger.Warn("Gmail API request failed", append(attrs, "error", err)...)
		return
	}
	m.logger.Debug("Gmail API request completed", attrs...)
}

// LabelID returns the id of the label with the given display name, or "" if there is none.
func (m *Mailbox) LabelID(ctx context.Context, name string) (string, error) {
	start := time.Now()
	resp, err := m.service.Users.Labels.List(me).Context(ctx).Do()
	m.logCall("users.labels.list", start, err)
	if err != nil {
		return "", fmt.Errorf("list labels: %w", err)
	}

	for _, l := range resp.Labels {
		if l.Name == name {
			return l.Id, nil
		}
	}
	return "", nil
}

// List returns the ids of messages carrying all labelIDs, at most limit of them.
func (m *Mailbox) List(ctx context.Context, labelIDs []string, limit int64) ([]string, error) {
	start := time.Now()
	resp, err := m.service.Users.Messages.List(me).LabelIds(labelIDs...).MaxResults(limit).Context(ctx).Do()
	m.logCall("users.messages.list", start, err, "labels", labelIDs)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		ids = append(ids, msg.Id)
	}
	return ids, nil
}

// Get fetches a full message.
func (m *Mailbox) Get(ctx context.Context, id string) (*gmail.Message, error) {
	start := time.Now()
	msg, err := m.service.Users.Messages.Get(me, id).Format("full").Context(ctx).Do()
	m.logCall("users.messages.get", start, err, "message_id", id)
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}
	return msg, nil
}

// Archive removes the message from the inbox.
func (m *Mailbox) Archive(ctx context.Context, id string) error {
	start := time.Now()
	_, err := m.service.Users.Messages.Modify(me, id, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{inboxLabel},
	}).Context(ctx).Do()
	m.logCall("users.messages.modify", start, err, "message_id", id)
	if err != nil {
		return fmt.Errorf("archive message %s: %w", id, err)
	}
	return nil
}

// Watch (re)starts push notifications for labelIDs to the Pub/Sub topic.
func (m *Mailbox) Watch(ctx context.Context, topic string, labelIDs []string) (*gmail.WatchResponse, error) {
	start := time.Now()
	resp, err := m.service.Users.Watch(me, &gmail.WatchRequest{
		TopicName: topic,
		LabelIds:  labelIDs,
	}).Context(ctx).Do()
	m.logCall("users.watch", start, err, "topic", topic)
	if err != nil {
		return nil, fmt.Errorf("watch mailbox: %w", err)
	}
	return resp, nil
}
