package realtime

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const subscriberBuffer = 16

// MemoryBroker is an in-process Broker for tests and single-node deployments.
type MemoryBroker struct {
	mu    sync.Mutex
	rooms map[string]map[int]chan Event
	next  int
}

// NewMemoryBroker returns an empty in-process broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{rooms: make(map[string]map[int]chan Event)}
}

// Publish delivers the event to every current subscriber of the room. A
// subscriber that has fallen behind its buffer drops the event rather than
// blocking the publisher.
func (b *MemoryBroker) Publish(_ context.Context, room string, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.rooms[room] {
		select {
		case ch <- ev:
		default:
			zap.S().Warnw("dropping realtime event, subscriber buffer full", "room", room)
		}
	}
	return nil
}

// Subscribe registers a new subscriber for the room. The returned cancel func
// is idempotent and closes the event channel.
func (b *MemoryBroker) Subscribe(_ context.Context, room string) (<-chan Event, func(), error) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	id := b.next
	b.next++
	if b.rooms[room] == nil {
		b.rooms[room] = make(map[int]chan Event)
	}
	b.rooms[room][id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.rooms[room], id)
			if len(b.rooms[room]) == 0 {
				delete(b.rooms, room)
			}
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel, nil
}
