package redis

import (
	"context"
	"encoding/json"

	"go-fanout/internal/domain"

	"github.com/redis/go-redis/v9"
)

const DefaultEventsChannel = "docworker:events:invocations"

type RedisEventBus struct {
	client  *redis.Client
	channel string
}

func NewRedisEventBus(client *redis.Client, channel string) *RedisEventBus {
	if channel == "" {
		channel = DefaultEventsChannel
	}
	return &RedisEventBus{
		client:  client,
		channel: channel,
	}
}

// Publish broadcasts the event to the network
func (b *RedisEventBus) Publish(ctx context.Context, event domain.InvocationEvent) error {
	// Serialize the struct to JSON
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Subscribe opens a continuous stream of invocation events.
// The channel is closed when ctx is done.
func (b *RedisEventBus) Subscribe(ctx context.Context) (<-chan domain.InvocationEvent, error) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	// Wait for the subscription to be confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	msgChan := make(chan domain.InvocationEvent)

	// Forward Redis messages to our Go channel
	go func() {
		defer close(msgChan)
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
				var event domain.InvocationEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					continue
				}
				select {
				case msgChan <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return msgChan, nil
}
