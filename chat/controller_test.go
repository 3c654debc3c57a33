package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/luminachat/chat-widget-api/models"
)

type stubProfiles struct {
	mu    sync.Mutex
	bot   *models.ChatBot
	err   error
	calls int
}

func (s *stubProfiles) FetchProfile(_ context.Context, _ string) (*models.ChatBot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.bot, s.err
}

func (s *stubProfiles) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubAssistant struct {
	fn func(req AssistantRequest) (*Reply, error)
}

func (s *stubAssistant) Respond(_ context.Context, req AssistantRequest) (*Reply, error) {
	return s.fn(req)
}

type stubUploader struct {
	url string
	err error
}

func (s *stubUploader) Upload(_ context.Context, _ string, _ io.Reader) (string, error) {
	return s.url, s.err
}

type recordingPusher struct {
	mu       sync.Mutex
	messages []Message
	typing   []bool
}

func (p *recordingPusher) PushMessage(_ string, m Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, m)
}

func (p *recordingPusher) PushTyping(_ string, v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.typing = append(p.typing, v)
}

func (p *recordingPusher) typingStates() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]bool, len(p.typing))
	copy(out, p.typing)
	return out
}

func testBot() *models.ChatBot {
	return &models.ChatBot{
		ID:   "bot-1",
		Name: "Support Bot",
		Details: models.ChatBotDetails{
			WelcomeMessage: "Hi, how can I help?",
			OwnerEmail:     "owner@example.com",
		},
	}
}

func echoAssistant(content string) *stubAssistant {
	return &stubAssistant{fn: func(AssistantRequest) (*Reply, error) {
		return &Reply{Message: &Message{Role: RoleAssistant, Content: content}}, nil
	}}
}

func TestLoadProfileSeedsWelcomeOnce(t *testing.T) {
	profiles := &stubProfiles{bot: testBot()}
	c := NewController("bot-1", Deps{Profiles: profiles})

	assert.NoError(t, c.LoadProfile(context.Background()))
	assert.NoError(t, c.LoadProfile(context.Background()))

	assert.Equal(t, 1, profiles.callCount())
	got := c.Stream().Snapshot()
	assert.Len(t, got, 1)
	assert.Equal(t, RoleAssistant, got[0].Role)
	assert.Equal(t, "Hi, how can I help?", got[0].Content)
	assert.False(t, c.State().Loading)
}

func TestLoadProfileAbsentBotStaysLoading(t *testing.T) {
	profiles := &stubProfiles{}
	c := NewController("missing", Deps{Profiles: profiles})

	assert.NoError(t, c.LoadProfile(context.Background()))

	assert.Equal(t, 0, c.Stream().Len())
	assert.True(t, c.State().Loading)
	assert.Nil(t, c.Profile())
}

func TestLoadProfileFetchError(t *testing.T) {
	profiles := &stubProfiles{err: errors.New("mongo down")}
	c := NewController("bot-1", Deps{Profiles: profiles})

	err := c.LoadProfile(context.Background())

	assert.Error(t, err)
	assert.Equal(t, 0, c.Stream().Len())
}

func TestSubmitEmptyIsNoOp(t *testing.T) {
	called := false
	a := &stubAssistant{fn: func(AssistantRequest) (*Reply, error) {
		called = true
		return nil, nil
	}}
	c := NewController("bot-1", Deps{Assistant: a})

	assert.NoError(t, c.Submit(context.Background(), SubmitInput{}))

	assert.False(t, called)
	assert.Equal(t, 0, c.Stream().Len())
}

func TestSubmitEchoesAndAppendsReply(t *testing.T) {
	push := &recordingPusher{}
	c := NewController("bot-1", Deps{Assistant: echoAssistant("sure thing"), Push: push})

	assert.NoError(t, c.Submit(context.Background(), SubmitInput{Content: "help me"}))

	got := c.Stream().Snapshot()
	assert.Len(t, got, 2)
	assert.Equal(t, Message{Role: RoleUser, Content: "help me"}, got[0])
	assert.Equal(t, Message{Role: RoleAssistant, Content: "sure thing"}, got[1])
	assert.False(t, c.Typing())
	assert.Equal(t, []bool{true, false}, push.typingStates())
}

func TestSubmitTypingShownDuringAssistantCall(t *testing.T) {
	var c *Controller
	var sawTyping bool
	a := &stubAssistant{fn: func(AssistantRequest) (*Reply, error) {
		sawTyping = c.Typing()
		return nil, nil
	}}
	c = NewController("bot-1", Deps{Assistant: a})

	assert.NoError(t, c.Submit(context.Background(), SubmitInput{Content: "hi"}))

	assert.True(t, sawTyping)
	assert.False(t, c.Typing())
}

func TestSubmitSendsFullHistoryToAssistant(t *testing.T) {
	var gotReq AssistantRequest
	a := &stubAssistant{fn: func(req AssistantRequest) (*Reply, error) {
		gotReq = req
		return nil, nil
	}}
	profiles := &stubProfiles{bot: testBot()}
	c := NewController("bot-1", Deps{Profiles: profiles, Assistant: a})
	assert.NoError(t, c.LoadProfile(context.Background()))

	assert.NoError(t, c.Submit(context.Background(), SubmitInput{Content: "question"}))

	assert.Equal(t, c.ID, gotReq.SessionID)
	assert.Equal(t, RoleUser, gotReq.Role)
	assert.Equal(t, "question", gotReq.Content)
	// welcome seed plus the echoed submission
	assert.Len(t, gotReq.Messages, 2)
}

func TestSubmitAssistantErrorClearsTyping(t *testing.T) {
	a := &stubAssistant{fn: func(AssistantRequest) (*Reply, error) {
		return nil, errors.New("connection refused")
	}}
	c := NewController("bot-1", Deps{Assistant: a})

	err := c.Submit(context.Background(), SubmitInput{Content: "hi"})

	assert.ErrorIs(t, err, ErrAssistantUnavailable)
	assert.False(t, c.Typing())
	// the user echo stays, only the reply is missing
	assert.Equal(t, 1, c.Stream().Len())
}

func TestSubmitNilReplyIsNoOp(t *testing.T) {
	a := &stubAssistant{fn: func(AssistantRequest) (*Reply, error) {
		return nil, nil
	}}
	c := NewController("bot-1", Deps{Assistant: a})

	assert.NoError(t, c.Submit(context.Background(), SubmitInput{Content: "hi"}))

	assert.Equal(t, 1, c.Stream().Len())
	assert.False(t, c.Typing())
}

func TestSubmitUploadResolvesToURL(t *testing.T) {
	var gotReq AssistantRequest
	a := &stubAssistant{fn: func(req AssistantRequest) (*Reply, error) {
		gotReq = req
		return nil, nil
	}}
	up := &stubUploader{url: "https://cdn.example.com/chat-widget/receipt.png"}
	c := NewController("bot-1", Deps{Assistant: a, Uploader: up})

	in := SubmitInput{File: &FileUpload{Name: "receipt.png", Reader: strings.NewReader("bytes")}}
	assert.NoError(t, c.Submit(context.Background(), in))

	got := c.Stream().Snapshot()
	assert.Len(t, got, 1)
	assert.Equal(t, "https://cdn.example.com/chat-widget/receipt.png", got[0].Content)
	assert.Equal(t, "https://cdn.example.com/chat-widget/receipt.png", gotReq.Content)
}

func TestSubmitUploadFailureLeavesStreamUntouched(t *testing.T) {
	a := &stubAssistant{fn: func(AssistantRequest) (*Reply, error) {
		t.Fatal("assistant must not be called when the upload fails")
		return nil, nil
	}}
	up := &stubUploader{err: errors.New("cloudinary 500")}
	push := &recordingPusher{}
	c := NewController("bot-1", Deps{Assistant: a, Uploader: up, Push: push})

	in := SubmitInput{File: &FileUpload{Name: "receipt.png", Reader: strings.NewReader("bytes")}}
	err := c.Submit(context.Background(), in)

	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Equal(t, 0, c.Stream().Len())
	assert.False(t, c.Typing())
	assert.Empty(t, push.typingStates())
}

func TestSubmitFileWithoutUploaderFails(t *testing.T) {
	c := NewController("bot-1", Deps{Assistant: echoAssistant("ok")})

	in := SubmitInput{File: &FileUpload{Name: "a.png", Reader: strings.NewReader("x")}}
	err := c.Submit(context.Background(), in)

	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Equal(t, 0, c.Stream().Len())
}

func TestSubmitRejectsConcurrentSubmission(t *testing.T) {
	release := make(chan struct{})
	a := &stubAssistant{fn: func(AssistantRequest) (*Reply, error) {
		<-release
		return nil, nil
	}}
	c := NewController("bot-1", Deps{Assistant: a})

	done := make(chan error, 1)
	go func() {
		done <- c.Submit(context.Background(), SubmitInput{Content: "first"})
	}()

	// typing flips on right before the assistant call, so it marks the
	// submission as in flight
	assert.Eventually(t, c.Typing, time.Second, 5*time.Millisecond)

	err := c.Submit(context.Background(), SubmitInput{Content: "second"})
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(release)
	assert.NoError(t, <-done)

	// the latch releases once the first submission finishes
	assert.NoError(t, c.Submit(context.Background(), SubmitInput{Content: "third"}))
}

func TestHandoffFlipsModeWithoutVisibleEntry(t *testing.T) {
	a := &stubAssistant{fn: func(AssistantRequest) (*Reply, error) {
		return &Reply{Handoff: &Handoff{ChatRoom: "room-42"}}, nil
	}}
	c := NewController("bot-1", Deps{Assistant: a})

	assert.NoError(t, c.Submit(context.Background(), SubmitInput{Content: "agent please"}))

	assert.Equal(t, ModeLive, c.Mode())
	assert.Equal(t, "room-42", c.LiveRoom())
	// only the user echo is visible, the handoff itself is not a chat entry
	got := c.Stream().Snapshot()
	assert.Len(t, got, 1)
	assert.Equal(t, RoleUser, got[0].Role)
	assert.False(t, c.Typing())
}

func TestLiveModeSuppressesLocalEcho(t *testing.T) {
	handedOff := false
	a := &stubAssistant{fn: func(AssistantRequest) (*Reply, error) {
		if !handedOff {
			handedOff = true
			return &Reply{Handoff: &Handoff{ChatRoom: "room-42"}}, nil
		}
		return nil, nil
	}}
	c := NewController("bot-1", Deps{Assistant: a})

	assert.NoError(t, c.Submit(context.Background(), SubmitInput{Content: "agent please"}))
	assert.Equal(t, ModeLive, c.Mode())

	assert.NoError(t, c.Submit(context.Background(), SubmitInput{Content: "are you there?"}))

	// the realtime channel echoes live-mode submissions, not the controller
	assert.Equal(t, 1, c.Stream().Len())
}

func TestRepeatedHandoffKeepsFirstRoom(t *testing.T) {
	rooms := []string{"room-1", "room-2"}
	a := &stubAssistant{fn: func(AssistantRequest) (*Reply, error) {
		room := rooms[0]
		if len(rooms) > 1 {
			rooms = rooms[1:]
		}
		return &Reply{Handoff: &Handoff{ChatRoom: room}}, nil
	}}
	c := NewController("bot-1", Deps{Assistant: a})

	assert.NoError(t, c.Submit(context.Background(), SubmitInput{Content: "one"}))
	assert.NoError(t, c.Submit(context.Background(), SubmitInput{Content: "two"}))

	assert.Equal(t, ModeLive, c.Mode())
	assert.Equal(t, "room-1", c.LiveRoom())
}

func TestSubmitAfterCloseFails(t *testing.T) {
	c := NewController("bot-1", Deps{Assistant: echoAssistant("ok")})
	c.Close()

	err := c.Submit(context.Background(), SubmitInput{Content: "hi"})

	assert.ErrorIs(t, err, ErrSessionClosed)
	c.Close() // idempotent
}

func TestClearStuckTyping(t *testing.T) {
	push := &recordingPusher{}
	c := NewController("bot-1", Deps{Push: push})

	c.setTyping(true)
	now := time.Now()

	assert.False(t, c.ClearStuckTyping(now.Add(time.Minute), 2*time.Minute))
	assert.True(t, c.Typing())

	assert.True(t, c.ClearStuckTyping(now.Add(3*time.Minute), 2*time.Minute))
	assert.False(t, c.Typing())
	assert.Equal(t, []bool{true, false}, push.typingStates())
}

func TestStateSnapshot(t *testing.T) {
	profiles := &stubProfiles{bot: testBot()}
	c := NewController("bot-1", Deps{Profiles: profiles, Assistant: echoAssistant("hello")})
	assert.NoError(t, c.LoadProfile(context.Background()))

	st := c.State()

	assert.Equal(t, c.ID, st.SessionID)
	assert.Equal(t, "bot-1", st.BotID)
	assert.Equal(t, ModeAI, st.Mode)
	assert.Empty(t, st.LiveRoom)
	assert.False(t, st.Loading)
	assert.Equal(t, "Support Bot", st.Profile.Name)
	assert.Len(t, st.Messages, 1)
}
