package realtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryBrokerFansOutToAllSubscribers(t *testing.T) {
	b := NewMemoryBroker()

	first, cancelFirst, err := b.Subscribe(context.Background(), "room-1")
	assert.NoError(t, err)
	defer cancelFirst()
	second, cancelSecond, err := b.Subscribe(context.Background(), "room-1")
	assert.NoError(t, err)
	defer cancelSecond()

	ev := Event{Chat: ChatPayload{Role: "assistant", Message: "hello"}}
	assert.NoError(t, b.Publish(context.Background(), "room-1", ev))

	assert.Equal(t, ev, <-first)
	assert.Equal(t, ev, <-second)
}

func TestMemoryBrokerScopesRooms(t *testing.T) {
	b := NewMemoryBroker()

	other, cancel, err := b.Subscribe(context.Background(), "room-2")
	assert.NoError(t, err)

	ev := Event{Chat: ChatPayload{Role: "assistant", Message: "wrong room"}}
	assert.NoError(t, b.Publish(context.Background(), "room-1", ev))

	cancel()
	_, open := <-other
	assert.False(t, open)
}

func TestMemoryBrokerPublishWithoutSubscribers(t *testing.T) {
	b := NewMemoryBroker()

	ev := Event{Chat: ChatPayload{Role: "user", Message: "anyone?"}}
	assert.NoError(t, b.Publish(context.Background(), "room-1", ev))
}

func TestMemoryBrokerDropsWhenSubscriberFallsBehind(t *testing.T) {
	b := NewMemoryBroker()

	events, cancel, err := b.Subscribe(context.Background(), "room-1")
	assert.NoError(t, err)
	defer cancel()

	for i := 0; i < subscriberBuffer+5; i++ {
		assert.NoError(t, b.Publish(context.Background(), "room-1", Event{}))
	}

	// the overflow is dropped rather than blocking the publisher
	assert.Len(t, events, subscriberBuffer)
}
