// Package subscriber receives Gmail notifications from a Pub/Sub pull subscription.
package subscriber

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/pubsub"
)

// Handler processes one notification payload.
type Handler func(ctx context.Context, data []byte) error

// Subscriber pulls messages one at a time and hands them to a Handler.
type Subscriber struct {
	sub    *pubsub.Subscription
	logger *slog.Logger
}

// New creates a subscriber for subscriptionID.
func New(client *pubsub.Client, subscriptionID string, logger *slog.Logger) *Subscriber {
	sub := client.Subscription(subscriptionID)
	// One message at a time keeps inbox passes sequential.
	sub.ReceiveSettings.MaxOutstandingMessages = 1
	sub.ReceiveSettings.NumGoroutines = 1
	return &Subscriber{sub: sub, logger: logger}
}

// Run blocks until ctx is done. Every message is acked, even when the handler
// fails, so a broken notification is not redelivered forever.
func (s *Subscriber) Run(ctx context.Context, handle Handler) error {
	s.logger.Info("Listening for notifications", "subscription", s.sub.ID())

	err := s.sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		startTime := time.Now()
		if err := handle(ctx, msg.Data); err != nil {
			s.logger.Error("Notification handling failed", "message_id", msg.ID, "error", err)
		} else {
			s.logger.Info("Notification handled", "message_id", msg.ID, "duration_ms", time.Since(startTime).Milliseconds())
		}
		msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("receive from %s: %w", s.sub.ID(), err)
	}
	return nil
}
