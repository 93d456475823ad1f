package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Publisher emits signals onto the message transport. Publishing is
// best-effort relative to committed state: a failed publish is logged by the
// caller and never rolls back the state transition it describes.
type Publisher interface {
	Publish(ctx context.Context, signal Signal, payload interface{}) error
}

// Bus is a redis-backed pub/sub transport with an owned connection
// lifecycle. It is constructed once at startup and passed to the event
// bridge and services; nothing holds a process-global client.
type Bus struct {
	client *redis.Client
}

// NewBus creates and verifies a redis-backed Bus.
func NewBus(ctx context.Context, redisURL string) (*Bus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Bus{client: client}, nil
}

// Publish marshals the payload and emits it on the signal's channel.
func (b *Bus) Publish(ctx context.Context, signal Signal, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", signal, err)
	}
	if err := b.client.Publish(ctx, string(signal), data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", signal, err)
	}
	return nil
}

// Subscribe opens a subscription on the given signals.
func (b *Bus) Subscribe(ctx context.Context, signals ...Signal) *redis.PubSub {
	channels := make([]string, len(signals))
	for i, signal := range signals {
		channels[i] = string(signal)
	}
	return b.client.Subscribe(ctx, channels...)
}

// Close releases the underlying connection.
func (b *Bus) Close() error {
	return b.client.Close()
}
