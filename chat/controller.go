package chat

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luminachat/chat-widget-api/models"
	"github.com/luminachat/chat-widget-api/realtime"
)

// Controller owns the message stream for one widget session and arbitrates
// between the assistant backend and a live agent. One controller exists per
// widget instance.
type Controller struct {
	ID    string
	botID string

	mu                 sync.Mutex
	profile            *models.ChatBot
	mode               Mode
	liveRoom           string
	typing             bool
	typingSince        time.Time
	lastActivity       time.Time
	hasLoadedProfile   bool
	realtimeEventsSeen int
	submitting         bool
	closed             bool
	bridge             *Bridge

	// set by the registry so teardown can release the instance latch
	instanceKey string

	stream      *Stream
	profiles    ProfileFetcher
	assistant   Assistant
	uploader    Uploader
	broker      realtime.Broker
	transcripts TranscriptWriter
	notifier    HandoffNotifier
	push        Pusher
}

// NewController creates a fresh session in ModeAI with an empty stream.
func NewController(botID string, deps Deps) *Controller {
	return &Controller{
		ID:           uuid.NewString(),
		botID:        botID,
		mode:         ModeAI,
		lastActivity: time.Now(),
		stream:       NewStream(),
		profiles:     deps.Profiles,
		assistant:    deps.Assistant,
		uploader:     deps.Uploader,
		broker:       deps.Broker,
		transcripts:  deps.Transcripts,
		notifier:     deps.Notifier,
		push:         deps.Push,
	}
}

// LoadProfile fetches the chatbot profile at most once per session and seeds
// the stream with the assistant welcome message. An absent profile is
// silently ignored: the widget stays in its loading view until teardown.
func (c *Controller) LoadProfile(ctx context.Context) error {
	c.mu.Lock()
	if c.hasLoadedProfile || c.closed {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	profile, err := c.profiles.FetchProfile(ctx, c.botID)
	if err != nil {
		zap.S().Errorw("failed to fetch chatbot profile", "chatbot", c.botID, "error", err)
		return err
	}
	if profile == nil {
		return nil
	}

	c.mu.Lock()
	if c.hasLoadedProfile {
		// lost the race to a concurrent load; exactly one welcome seed
		c.mu.Unlock()
		return nil
	}
	c.profile = profile
	c.hasLoadedProfile = true
	c.mu.Unlock()

	c.append(ctx, Message{Role: RoleAssistant, Content: profile.Details.WelcomeMessage})
	return nil
}

// SubmitInput is a user submission: text or a single file. When both are
// present the file takes precedence.
type SubmitInput struct {
	Content string
	File    *FileUpload
}

// FileUpload is a raw user-selected file awaiting upload resolution.
type FileUpload struct {
	Name   string
	Reader io.Reader
}

// Submit runs one submission through the session: upload resolution, local
// echo (ai mode only), the assistant round trip and reply handling. An empty
// submission is a no-op. Only one submission may be in flight at a time.
func (c *Controller) Submit(ctx context.Context, in SubmitInput) error {
	if in.Content == "" && in.File == nil {
		return nil
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	if c.submitting {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}
	c.submitting = true
	c.lastActivity = time.Now()
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	content := in.Content
	if in.File != nil {
		if c.uploader == nil {
			return fmt.Errorf("%w: no uploader configured", ErrUploadFailed)
		}
		url, err := c.uploader.Upload(ctx, in.File.Name, in.File.Reader)
		if err != nil {
			zap.S().Errorw("file upload failed", "session", c.ID, "error", err)
			return fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		content = url
	}

	// in live mode the realtime channel echoes both sides of the
	// conversation, so skip the local echo to avoid doubling it
	if c.Mode() == ModeAI {
		c.append(ctx, Message{Role: RoleUser, Content: content})
	}

	c.setTyping(true)
	defer c.setTyping(false)

	reply, err := c.assistant.Respond(ctx, AssistantRequest{
		SessionID: c.ID,
		Messages:  c.stream.Snapshot(),
		Role:      RoleUser,
		Content:   content,
	})
	if err != nil {
		zap.S().Errorw("assistant request failed", "session", c.ID, "error", err)
		return ErrAssistantUnavailable
	}
	if reply == nil {
		return nil
	}

	switch {
	case reply.Handoff != nil:
		c.beginHandoff(reply.Handoff.ChatRoom)
	case reply.Message != nil:
		c.append(ctx, *reply.Message)
	}
	return nil
}

// beginHandoff flips the session to live mode. The transition fires exactly
// once; a handoff reply arriving while already live changes nothing.
func (c *Controller) beginHandoff(room string) {
	c.mu.Lock()
	if c.mode == ModeLive {
		c.mu.Unlock()
		return
	}
	c.mode = ModeLive
	c.liveRoom = room
	c.realtimeEventsSeen = 0
	profile := c.profile
	c.mu.Unlock()

	zap.S().Infow("session handed off to live agent", "session", c.ID, "room", room)

	if c.broker != nil {
		if err := c.subscribe(room); err != nil {
			// live messages are silently dropped until the widget reconnects
			zap.S().Errorw("realtime subscription failed", "session", c.ID, "room", room, "error", err)
		}
	}
	if c.notifier != nil {
		sessionID := c.ID
		go func() {
			if err := c.notifier.NotifyHandoff(context.Background(), profile, sessionID, room); err != nil {
				zap.S().Warnw("handoff notification failed", "session", sessionID, "error", err)
			}
		}()
	}
}

// append adds to the stream, fans out to the widget socket and persists the
// transcript entry best effort.
func (c *Controller) append(ctx context.Context, m Message) {
	c.stream.Append(m)
	c.mu.Lock()
	c.lastActivity = time.Now()
	c.mu.Unlock()
	if c.push != nil {
		c.push.PushMessage(c.ID, m)
	}
	if c.transcripts != nil {
		if err := c.transcripts.SaveMessage(ctx, c.ID, m); err != nil {
			zap.S().Warnw("failed to persist chat message", "session", c.ID, "error", err)
		}
	}
}

func (c *Controller) setTyping(v bool) {
	c.mu.Lock()
	c.typing = v
	if v {
		c.typingSince = time.Now()
	} else {
		c.typingSince = time.Time{}
	}
	c.mu.Unlock()
	if c.push != nil {
		c.push.PushTyping(c.ID, v)
	}
}

// Mode returns the current session mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// LiveRoom returns the chat room recorded at handoff, empty while in ai mode.
func (c *Controller) LiveRoom() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.liveRoom
}

// Typing reports whether the typing indicator is currently shown.
func (c *Controller) Typing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.typing
}

// Stream exposes the session's message stream.
func (c *Controller) Stream() *Stream {
	return c.stream
}

// Profile returns the loaded chatbot profile, nil while loading.
func (c *Controller) Profile() *models.ChatBot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

// State snapshots the session for rendering.
func (c *Controller) State() State {
	c.mu.Lock()
	st := State{
		SessionID: c.ID,
		BotID:     c.botID,
		Mode:      c.mode,
		LiveRoom:  c.liveRoom,
		Typing:    c.typing,
		Loading:   !c.hasLoadedProfile,
		Profile:   c.profile,
	}
	c.mu.Unlock()
	st.Messages = c.stream.Snapshot()
	return st
}

// LastActivity returns the time of the last submit or append.
func (c *Controller) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

// ClearStuckTyping drops a typing indicator that has been set for longer than
// the deadline, which happens when an assistant request hangs. Reports
// whether anything was cleared.
func (c *Controller) ClearStuckTyping(now time.Time, deadline time.Duration) bool {
	c.mu.Lock()
	stuck := c.typing && !c.typingSince.IsZero() && now.Sub(c.typingSince) > deadline
	if stuck {
		c.typing = false
		c.typingSince = time.Time{}
	}
	c.mu.Unlock()
	if stuck && c.push != nil {
		c.push.PushTyping(c.ID, false)
	}
	return stuck
}

// Close tears the session down: the bridge subscription is released and
// further submissions are rejected. Safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	b := c.bridge
	c.bridge = nil
	c.mu.Unlock()

	if b != nil {
		b.Stop()
	}
}
