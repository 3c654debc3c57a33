package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/luminachat/chat-widget-api/realtime"
)

func handoffAssistant(room string) *stubAssistant {
	return &stubAssistant{fn: func(AssistantRequest) (*Reply, error) {
		return &Reply{Handoff: &Handoff{ChatRoom: room}}, nil
	}}
}

func agentEvent(msg string) realtime.Event {
	return realtime.Event{Chat: realtime.ChatPayload{Role: "assistant", Message: msg}}
}

func TestBridgeSuppressesFirstEvent(t *testing.T) {
	broker := realtime.NewMemoryBroker()
	c := NewController("bot-1", Deps{Assistant: handoffAssistant("room-42"), Broker: broker})

	assert.NoError(t, c.Submit(context.Background(), SubmitInput{Content: "agent please"}))
	assert.Equal(t, ModeLive, c.Mode())

	// the first broadcast duplicates the handoff acknowledgment already
	// rendered locally
	assert.NoError(t, broker.Publish(context.Background(), "room-42", agentEvent("echo of handoff")))
	assert.NoError(t, broker.Publish(context.Background(), "room-42", agentEvent("hi, agent here")))

	assert.Eventually(t, func() bool { return c.Stream().Len() == 2 }, time.Second, 5*time.Millisecond)

	got := c.Stream().Snapshot()
	assert.Equal(t, Message{Role: RoleUser, Content: "agent please"}, got[0])
	assert.Equal(t, Message{Role: RoleAssistant, Content: "hi, agent here"}, got[1])
}

func TestBridgeAppendsSubsequentEvents(t *testing.T) {
	broker := realtime.NewMemoryBroker()
	c := NewController("bot-1", Deps{Assistant: handoffAssistant("room-7"), Broker: broker})

	assert.NoError(t, c.Submit(context.Background(), SubmitInput{Content: "handoff"}))

	for _, msg := range []string{"first", "second", "third"} {
		assert.NoError(t, broker.Publish(context.Background(), "room-7", agentEvent(msg)))
	}

	// user echo plus two surviving broadcasts
	assert.Eventually(t, func() bool { return c.Stream().Len() == 3 }, time.Second, 5*time.Millisecond)

	got := c.Stream().Snapshot()
	assert.Equal(t, "second", got[1].Content)
	assert.Equal(t, "third", got[2].Content)
}

func TestBridgeCarriesUserRoleEvents(t *testing.T) {
	broker := realtime.NewMemoryBroker()
	c := NewController("bot-1", Deps{Assistant: handoffAssistant("room-9"), Broker: broker})

	assert.NoError(t, c.Submit(context.Background(), SubmitInput{Content: "handoff"}))

	assert.NoError(t, broker.Publish(context.Background(), "room-9", agentEvent("suppressed")))
	ev := realtime.Event{Chat: realtime.ChatPayload{Role: "user", Message: "typed on another tab"}}
	assert.NoError(t, broker.Publish(context.Background(), "room-9", ev))

	assert.Eventually(t, func() bool { return c.Stream().Len() == 2 }, time.Second, 5*time.Millisecond)
	got := c.Stream().Snapshot()
	assert.Equal(t, RoleUser, got[1].Role)
	assert.Equal(t, "typed on another tab", got[1].Content)
}

func TestCloseStopsBridge(t *testing.T) {
	broker := realtime.NewMemoryBroker()
	c := NewController("bot-1", Deps{Assistant: handoffAssistant("room-42"), Broker: broker})

	assert.NoError(t, c.Submit(context.Background(), SubmitInput{Content: "handoff"}))
	c.Close()

	// publishes after teardown go nowhere
	assert.NoError(t, broker.Publish(context.Background(), "room-42", agentEvent("late")))
	assert.NoError(t, broker.Publish(context.Background(), "room-42", agentEvent("later")))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, c.Stream().Len())
}

func TestMemoryBrokerSubscribeCancel(t *testing.T) {
	broker := realtime.NewMemoryBroker()

	events, cancel, err := broker.Subscribe(context.Background(), "room-1")
	assert.NoError(t, err)

	assert.NoError(t, broker.Publish(context.Background(), "room-1", agentEvent("hello")))
	ev := <-events
	assert.Equal(t, "hello", ev.Chat.Message)

	cancel()
	cancel() // idempotent

	_, open := <-events
	assert.False(t, open)
}
