package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const userChannel = "events:users"

// Broker publishes and subscribes user events over Redis pub/sub.
type Broker struct {
	client *redis.Client
	logger *slog.Logger
}

// NewBroker constructs a Broker.
func NewBroker(client *redis.Client, logger *slog.Logger) *Broker {
	return &Broker{client: client, logger: logger}
}

// PublishUserEvent pushes one event to all subscribers.
func (b *Broker) PublishUserEvent(ctx context.Context, evt UserEvent) error {
	if b == nil || b.client == nil {
		return nil
	}
	if evt.At.IsZero() {
		evt.At = time.Now()
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, userChannel, payload).Err()
}

// SubscribeUserEvents delivers events on the returned channel until ctx is
// cancelled. Malformed payloads are logged and skipped.
func (b *Broker) SubscribeUserEvents(ctx context.Context) (<-chan UserEvent, error) {
	pubsub := b.client.Subscribe(ctx, userChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}
	out := make(chan UserEvent)
	go func() {
		defer close(out)
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var evt UserEvent
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					b.logger.Warn("decode user event", slog.Any("error", err))
					continue
				}
				select {
				case out <- evt:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
