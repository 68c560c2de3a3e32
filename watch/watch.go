// Package watch renews the Gmail push subscription.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/api/gmail/v1"
)

// Mailbox is the subset of Gmail operations needed to renew a watch.
type Mailbox interface {
	LabelID(ctx context.Context, name string) (string, error)
	Watch(ctx context.Context, topic string, labelIDs []string) (*gmail.WatchResponse, error)
}

// Renewer re-registers the label watch. Gmail expires watches after seven days.
type Renewer struct {
	mailbox Mailbox
	logger  *slog.Logger
	project string
	topic   string
	label   string
}

// New creates a new renewer.
func New(mailbox Mailbox, project, topic, label string, logger *slog.Logger) *Renewer {
	return &Renewer{
		mailbox: mailbox,
		logger:  logger,
		project: project,
		topic:   topic,
		label:   label,
	}
}

// TopicName returns the fully qualified Pub/Sub topic.
func (r *Renewer) TopicName() string {
	return fmt.Sprintf("projects/%s/topics/%s", r.project, r.topic)
}

// Renew watches the label and returns the expiration in epoch milliseconds.
func (r *Renewer) Renew(ctx context.Context) (int64, error) {
	if r.project == "" {
		return 0, errors.New("gcp project id not set")
	}

	labelID, err := r.mailbox.LabelID(ctx, r.label)
	if err != nil {
		return 0, fmt.Errorf("look up label: %w", err)
	}
	if labelID == "" {
		return 0, fmt.Errorf("%q label not found in Gmail, create it first", r.label)
	}

	resp, err := r.mailbox.Watch(ctx, r.TopicName(), []string{labelID})
	if err != nil {
		return 0, err
	}

	r.logger.Info("Gmail watch renewed", "topic", r.TopicName(), "label", r.label, "expiration", resp.Expiration)
	return resp.Expiration, nil
}
