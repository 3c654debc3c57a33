package realtime

import "context"

// EventName is the single event type bound on a chat room channel. The name
// is part of the wire contract with the widget and the agent dashboard.
const EventName = "realtime-mode"

// Event is the payload broadcast on a chat room channel.
type Event struct {
	Chat ChatPayload `json:"chat"`
}

// ChatPayload carries one live message.
type ChatPayload struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// Broker is a room-scoped broadcast channel. Publish fans an event out to
// every subscriber of the room; Subscribe returns a receive channel together
// with a cancel func that releases the subscription and closes the channel.
type Broker interface {
	Publish(ctx context.Context, room string, ev Event) error
	Subscribe(ctx context.Context, room string) (<-chan Event, func(), error)
}
