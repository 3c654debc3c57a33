package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "chatroom:"

// RedisBroker is a Broker backed by redis pub/sub so that live agent messages
// reach widget sessions on any instance of the service.
type RedisBroker struct {
	client *redis.Client
}

// NewRedisBroker returns a broker using the provided redis client.
func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

func channelName(room string) string {
	return channelPrefix + room
}

// Publish marshals the event and publishes it on the room channel.
func (b *RedisBroker) Publish(ctx context.Context, room string, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channelName(room), payload).Err()
}

// Subscribe opens a redis subscription on the room channel and decodes
// incoming payloads. cancel closes the subscription and the returned channel.
func (b *RedisBroker) Subscribe(ctx context.Context, room string) (<-chan Event, func(), error) {
	sub := b.client.Subscribe(ctx, channelName(room))

	// force the subscription onto the wire before returning
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				zap.S().Warnw("failed to decode realtime event", "room", room, "error", err)
				continue
			}
			select {
			case out <- ev:
			default:
				zap.S().Warnw("dropping realtime event, subscriber buffer full", "room", room)
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			if err := sub.Close(); err != nil {
				zap.S().Warnw("failed to close realtime subscription", "room", room, "error", err)
			}
		})
	}
	return out, cancel, nil
}
