package redis

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/audira-hub/audira-progress-hub/internal/infrastructure/messaging"
)

// ══════════════════════════════════════════════════════════════════════════════
// PUB/SUB ADAPTER
// ══════════════════════════════════════════════════════════════════════════════

// PubSubAdapter adapts a go-redis client to the messaging.RedisClient
// interface used by the distributed event bus.
type PubSubAdapter struct {
	client *redis.Client

	mu   sync.Mutex
	subs []*redis.PubSub
}

// NewPubSubAdapter creates a pub/sub adapter over an existing cache
// connection.
func NewPubSubAdapter(cache *Cache) *PubSubAdapter {
	return &PubSubAdapter{client: cache.Client()}
}

// Publish sends a message to a channel.
func (a *PubSubAdapter) Publish(ctx context.Context, channel string, message interface{}) error {
	return a.client.Publish(ctx, channel, message).Err()
}

// Subscribe listens on the given channels and streams messages until
// the context is cancelled.
func (a *PubSubAdapter) Subscribe(ctx context.Context, channels ...string) (<-chan messaging.RedisMessage, error) {
	sub := a.client.Subscribe(ctx, channels...)

	// Wait for the subscription to be confirmed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	a.mu.Lock()
	a.subs = append(a.subs, sub)
	a.mu.Unlock()

	out := make(chan messaging.RedisMessage)
	go func() {
		defer close(out)
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- messaging.RedisMessage{Channel: msg.Channel, Payload: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close terminates all active subscriptions. The underlying client is
// owned by the Cache and is closed there.
func (a *PubSubAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var firstErr error
	for _, sub := range a.subs {
		if err := sub.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.subs = nil
	return firstErr
}
