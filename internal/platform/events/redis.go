package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mediconnect/api/internal/platform/websocket"
)

// eventChannel is the Redis pub/sub channel shared by all API instances.
const eventChannel = "mediconnect.events"

// RedisBridge fans events out across server instances: published events go
// to a Redis channel, and every instance re-broadcasts received events into
// its local hub. When Redis is unreachable the event is still delivered to
// local subscribers, so a single-instance deployment works without Redis at
// full fidelity.
type RedisBridge struct {
	client *redis.Client
	hub    *websocket.Hub
	logger zerolog.Logger
}

func NewRedisBridge(redisURL string, hub *websocket.Hub, logger zerolog.Logger) (*RedisBridge, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisBridge{
		client: redis.NewClient(opts),
		hub:    hub,
		logger: logger,
	}, nil
}

// Publish sends the event to the shared channel. Local delivery happens when
// the subscription loop receives it back; on Redis failure the event is
// broadcast locally instead so local clients never go dark.
func (b *RedisBridge) Publish(ctx context.Context, event websocket.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, eventChannel, data).Err(); err != nil {
		b.logger.Warn().Err(err).Msg("redis publish failed, broadcasting locally")
		b.hub.Broadcast(event)
	}
	return nil
}

// Run subscribes to the shared channel and re-broadcasts events into the
// local hub until the context is cancelled.
func (b *RedisBridge) Run(ctx context.Context) {
	pubsub := b.client.Subscribe(ctx, eventChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event websocket.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warn().Err(err).Msg("discarding malformed event payload")
				continue
			}
			b.hub.Broadcast(event)
		}
	}
}

func (b *RedisBridge) Close() error {
	return b.client.Close()
}
