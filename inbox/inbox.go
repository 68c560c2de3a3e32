// Package inbox processes labelled Fantrax emails and posts them to Discord.
package inbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"doo-bots/transaction"

	"google.golang.org/api/gmail/v1"
)

// Result statuses.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

const (
	inboxLabel  = "INBOX"
	maxMessages = 50
)

// Mailbox is the subset of Gmail operations the processor needs.
type Mailbox interface {
	LabelID(ctx context.Context, name string) (string, error)
	List(ctx context.Context, labelIDs []string, limit int64) ([]string, error)
	Get(ctx context.Context, id string) (*gmail.Message, error)
	Archive(ctx context.Context, id string) error
}

// Poster delivers a message to a webhook.
type Poster interface {
	Post(ctx context.Context, webhookURL, content string) error
}

// Config holds the processor settings.
type Config struct {
	Label           string
	TransactionsURL string
	TradeBlockURL   string
	League          string
}

// Outcome records a message that was posted.
type Outcome struct {
	MessageID string           `json:"message_id"`
	Type      transaction.Kind `json:"type"`
}

// Result summarizes one inbox pass.
type Result struct {
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	Processed []Outcome `json:"processed,omitempty"`
}

// Notification is the payload of a Gmail push message.
// Only logged: the inbox listing drives processing.
// Gmail sends historyId as a quoted string; a bare number is accepted too.
type Notification struct {
	EmailAddress string      `json:"emailAddress"`
	HistoryID    json.Number `json:"historyId"`
}

// DecodeNotification parses a decoded push payload. Empty input yields a zero Notification.
func DecodeNotification(data []byte) (Notification, error) {
	var n Notification
	if len(data) == 0 {
		return n, nil
	}
	if err := json.Unmarshal(data, &n); err != nil {
		return n, fmt.Errorf("decode notification: %w", err)
	}
	return n, nil
}

// Processor runs inbox passes.
type Processor struct {
	mailbox   Mailbox
	poster    Poster
	logger    *slog.Logger
	formatter transaction.Formatter
	cfg       Config
}

// New creates a new processor.
func New(mailbox Mailbox, poster Poster, cfg Config, logger *slog.Logger) *Processor {
	return &Processor{
		mailbox:   mailbox,
		poster:    poster,
		logger:    logger,
		formatter: transaction.Formatter{League: cfg.League},
		cfg:       cfg,
	}
}

// Process handles every unarchived message with the configured label.
// Each listed message is archived whatever happens to it, so a bad email is never reprocessed.
// A missing label or a failed listing is reported in the Result; other Gmail errors are returned.
func (p *Processor) Process(ctx context.Context) (*Result, error) {
	startTime := time.Now()

	labelID, err := p.mailbox.LabelID(ctx, p.cfg.Label)
	if err != nil {
		return nil, fmt.Errorf("look up label %q: %w", p.cfg.Label, err)
	}
	if labelID == "" {
		p.logger.Error("Label not found", "label", p.cfg.Label)
		return &Result{Status: StatusError, Reason: fmt.Sprintf("%s label not found", p.cfg.Label)}, nil
	}

	ids, err := p.mailbox.List(ctx, []string{labelID, inboxLabel}, maxMessages)
	if err != nil {
		p.logger.Error("Failed to list messages", "label", p.cfg.Label, "error", err)
		return &Result{Status: StatusError, Reason: err.Error()}, nil
	}
	if len(ids) == 0 {
		p.logger.Info("No unarchived messages", "label", p.cfg.Label)
		return &Result{Status: StatusSkipped, Reason: "no unarchived messages"}, nil
	}

	p.logger.Info("Found unarchived messages", "label", p.cfg.Label, "count", len(ids))

	res := &Result{Status: StatusOK, Processed: []Outcome{}}
	for _, id := range ids {
		out, err := p.processMessage(ctx, id)
		if err != nil {
			p.logger.Warn("Failed to process message", "message_id", id, "error", err)
		} else if out != nil {
			res.Processed = append(res.Processed, *out)
		}

		if err := p.mailbox.Archive(ctx, id); err != nil {
			p.logger.Warn("Failed to archive message", "message_id", id, "error", err)
		}
	}

	p.logger.Info("Inbox pass completed",
		"listed", len(ids),
		"posted", len(res.Processed),
		"duration_ms", time.Since(startTime).Milliseconds())
	return res, nil
}

// processMessage returns nil, nil for messages that are skipped.
func (p *Processor) processMessage(ctx context.Context, id string) (*Outcome, error) {
	msg, err := p.mailbox.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	subject := transaction.Subject(msg)
	kind := transaction.Classify(subject)
	p.logger.Info("Processing email", "message_id", id, "subject", subject, "type", kind)
	if kind == transaction.Unknown {
		p.logger.Info("Skipping unknown transaction type", "message_id", id, "subject", subject)
		return nil, nil
	}

	body, ok := transaction.HTMLBody(msg)
	if !ok {
		p.logger.Warn("No HTML body found", "message_id", id)
		return nil, nil
	}

	content := p.formatter.Format(transaction.Extract(kind, body))

	webhookURL := p.route(kind)
	if webhookURL == "" {
		p.logger.Warn("No webhook URL configured", "type", kind)
		return nil, nil
	}

	if err := p.poster.Post(ctx, webhookURL, content); err != nil {
		return nil, fmt.Errorf("post %s: %w", kind, err)
	}

	p.logger.Info("Posted transaction", "message_id", id, "type", kind)
	return &Outcome{MessageID: id, Type: kind}, nil
}

func (p *Processor) route(kind transaction.Kind) string {
	if kind == transaction.Block {
		return p.cfg.TradeBlockURL
	}
	return p.cfg.TransactionsURL
}
