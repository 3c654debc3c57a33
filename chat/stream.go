package chat

import "sync"

// Stream is the append-only message log for one session. Appends arrive from
// two origins, the submit path and the realtime bridge goroutine, so every
// operation takes the mutex; an append is never partially visible.
type Stream struct {
	mu       sync.Mutex
	messages []Message
}

// NewStream returns an empty stream.
func NewStream() *Stream {
	return &Stream{messages: make([]Message, 0, 16)}
}

// Append adds a message to the end of the stream. Entries are never reordered
// or removed.
func (s *Stream) Append(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
}

// Snapshot returns a copy of the full ordered sequence for rendering or for
// handing to the assistant backend.
func (s *Stream) Snapshot() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of appended messages.
func (s *Stream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}
