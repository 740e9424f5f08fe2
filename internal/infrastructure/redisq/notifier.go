// Package redisq delivers notifications over a Redis pub/sub channel.
package redisq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/closet-hub/closet-hub/internal/domain/notification"
)

// Notifier implements notification.Notifier by publishing messages to a
// Redis channel. Subscribers are expected to be fan-out consumers such
// as a push gateway or an on-call bridge; delivery is best effort.
type Notifier struct {
	client  *redis.Client
	channel string
	logger  zerolog.Logger
}

// NewNotifier parses a redis URL (redis://...) and returns a connected
// notifier.
func NewNotifier(redisURL, channel string, logger zerolog.Logger) (*Notifier, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return &Notifier{
		client:  redis.NewClient(opts),
		channel: channel,
		logger:  logger.With().Str("service", "redisq").Logger(),
	}, nil
}

// Notify publishes one message.
func (n *Notifier) Notify(ctx context.Context, msg *notification.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	n.logger.Debug().
		Str("messageId", msg.ID).
		Str("subject", msg.Subject).
		Msg("notification published")
	return nil
}

// Close releases the redis connection.
func (n *Notifier) Close() error {
	return n.client.Close()
}
