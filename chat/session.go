package chat

import (
	"context"
	"errors"
	"io"

	"github.com/luminachat/chat-widget-api/models"
	"github.com/luminachat/chat-widget-api/realtime"
)

// Mode says where replies currently come from: the assistant backend or a
// live human agent over the realtime channel.
type Mode string

// A session starts in ModeAI. The only defined transition is ai -> live,
// triggered by a handoff reply from the assistant backend; a session never
// leaves ModeLive.
const (
	ModeAI   Mode = "ai"
	ModeLive Mode = "live"
)

// Sentinel errors returned by Submit. All of them are recoverable: the stream
// is left unchanged beyond what had already been appended, and the user may
// simply try again.
var (
	ErrUploadFailed         = errors.New("upload failed")
	ErrSubmissionInFlight   = errors.New("a submission is already in flight")
	ErrAssistantUnavailable = errors.New("assistant backend unavailable")
	ErrSessionClosed        = errors.New("session closed")
)

// ProfileFetcher resolves a chatbot id to its profile. A (nil, nil) return
// means the profile does not exist, which is an empty state rather than an
// error.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, botID string) (*models.ChatBot, error)
}

// Uploader resolves a user-selected file into a durable URL usable as message
// content.
type Uploader interface {
	Upload(ctx context.Context, filename string, file io.Reader) (string, error)
}

// AssistantRequest is the payload handed to the assistant backend: the full
// history plus the newly submitted content.
type AssistantRequest struct {
	SessionID string    `json:"sessionId"`
	Messages  []Message `json:"messages"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
}

// Reply is the tagged result of an assistant request: exactly one of Message
// or Handoff is set. A nil *Reply means the backend had nothing to say, which
// the controller treats as a no-op.
type Reply struct {
	Message *Message
	Handoff *Handoff
}

// Handoff signals that a human agent takes over the conversation in the given
// chat room. The handoff itself is not a visible chat entry.
type Handoff struct {
	ChatRoom string
}

// Assistant produces a reply for a submitted message.
type Assistant interface {
	Respond(ctx context.Context, req AssistantRequest) (*Reply, error)
}

// TranscriptWriter persists appended messages. Persistence is best effort;
// failures are logged and never fail the append.
type TranscriptWriter interface {
	SaveMessage(ctx context.Context, sessionID string, m Message) error
}

// HandoffNotifier is told when a session flips to live mode, so the bot owner
// can be pulled into the room.
type HandoffNotifier interface {
	NotifyHandoff(ctx context.Context, bot *models.ChatBot, sessionID, room string) error
}

// Pusher fans session updates out to the widget's live socket.
type Pusher interface {
	PushMessage(sessionID string, m Message)
	PushTyping(sessionID string, typing bool)
}

// Deps collects the collaborators a session controller talks to. Broker,
// Uploader, Transcripts, Notifier and Push are optional; the controller
// degrades gracefully without them.
type Deps struct {
	Profiles    ProfileFetcher
	Assistant   Assistant
	Uploader    Uploader
	Broker      realtime.Broker
	Transcripts TranscriptWriter
	Notifier    HandoffNotifier
	Push        Pusher
}

// State is a point-in-time snapshot of a session for rendering.
type State struct {
	SessionID string          `json:"sessionId"`
	BotID     string          `json:"botId"`
	Mode      Mode            `json:"mode"`
	LiveRoom  string          `json:"liveRoom,omitempty"`
	Typing    bool            `json:"typing"`
	Loading   bool            `json:"loading"`
	Profile   *models.ChatBot `json:"chatBot,omitempty"`
	Messages  []Message       `json:"messages"`
}
