package chat

import (
	"context"

	"go.uber.org/zap"

	"github.com/luminachat/chat-widget-api/realtime"
)

// Bridge consumes the broadcast channel of a live chat room and injects
// agent messages into the session's stream. It is created on handoff and torn
// down with the session; unsubscription is guaranteed regardless of how the
// consume loop exits.
type Bridge struct {
	room   string
	cancel func()
	done   chan struct{}
}

// Stop releases the subscription and waits for the consume loop to drain.
// Safe to call more than once.
func (b *Bridge) Stop() {
	b.cancel()
	<-b.done
}

func (c *Controller) subscribe(room string) error {
	events, cancel, err := c.broker.Subscribe(context.Background(), room)
	if err != nil {
		return err
	}
	b := &Bridge{room: room, cancel: cancel, done: make(chan struct{})}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel()
		close(b.done)
		return nil
	}
	c.bridge = b
	c.mu.Unlock()

	go c.consume(b, events)
	return nil
}

func (c *Controller) consume(b *Bridge, events <-chan realtime.Event) {
	defer close(b.done)
	defer b.cancel()

	for ev := range events {
		c.mu.Lock()
		c.realtimeEventsSeen++
		first := c.realtimeEventsSeen == 1
		live := c.mode == ModeLive
		c.mu.Unlock()

		// the very first event after subscribing was already rendered
		// locally as part of the handoff acknowledgment
		if first {
			continue
		}
		if !live {
			// the bridge only exists in live mode, but never inject into an
			// ai-mode stream
			zap.S().Warnw("dropping realtime event outside live mode", "session", c.ID, "room", b.room)
			continue
		}

		c.append(context.Background(), Message{
			Role:    Role(ev.Chat.Role),
			Content: ev.Chat.Message,
		})
	}
}
