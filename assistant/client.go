package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/luminachat/chat-widget-api/chat"
)

const requestTimeout = 30 * time.Second

// Client talks to the AI inference backend over HTTP. The backend answers a
// submission with either an assistant message or a live handoff signal; the
// duck-typed wire shape is decoded into the chat package's tagged Reply.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for the backend reachable at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

type replyEnvelope struct {
	Response *struct {
		Role    string `json:"role"`
		Content string `json:"content"`
		Link    string `json:"link"`
	} `json:"response"`
	Live     bool   `json:"live"`
	ChatRoom string `json:"chatRoom"`
}

// Respond posts the submission to the backend. A 204 or empty body yields a
// nil reply, which the session controller treats as a no-op.
func (c *Client) Respond(ctx context.Context, req chat.AssistantRequest) (*chat.Reply, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/respond", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("assistant backend returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var env replyEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode assistant reply: %w", err)
	}

	switch {
	case env.Live:
		if env.ChatRoom == "" {
			zap.S().Warnw("handoff reply without chat room, ignoring", "session", req.SessionID)
			return nil, nil
		}
		return &chat.Reply{Handoff: &chat.Handoff{ChatRoom: env.ChatRoom}}, nil
	case env.Response != nil:
		return &chat.Reply{Message: &chat.Message{
			Role:    chat.Role(env.Response.Role),
			Content: env.Response.Content,
			Link:    env.Response.Link,
		}}, nil
	default:
		return nil, nil
	}
}
