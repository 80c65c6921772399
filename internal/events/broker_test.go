package events

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T) *Broker {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewBroker(client, slog.Default())
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	broker := newTestBroker(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := broker.SubscribeUserEvents(ctx)
	require.NoError(t, err)

	evt := UserEvent{Type: UserCreated, UserID: "u-1", Username: "jdcruz"}
	require.NoError(t, broker.PublishUserEvent(ctx, evt))

	select {
	case got := <-ch:
		assert.Equal(t, UserCreated, got.Type)
		assert.Equal(t, "u-1", got.UserID)
		assert.Equal(t, "jdcruz", got.Username)
		assert.False(t, got.At.IsZero())
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestSubscribeStopsOnCancel(t *testing.T) {
	broker := newTestBroker(t)
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := broker.SubscribeUserEvents(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, open := <-ch:
		assert.False(t, open)
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestPublishWithNilClientIsNoop(t *testing.T) {
	broker := NewBroker(nil, slog.Default())
	assert.NoError(t, broker.PublishUserEvent(context.Background(), UserEvent{Type: UserUpdated}))
}
