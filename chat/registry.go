package chat

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Registry tracks the live session controllers of this instance. It also
// carries the host-bridge latch: the first registration for a widget instance
// creates a session, repeated registrations return the existing one, so a
// host page re-posting the chatbot identifier never triggers a second profile
// fetch.
type Registry struct {
	mu         sync.Mutex
	byInstance map[string]*Controller
	sessions   map[string]*Controller
	deps       Deps
}

// NewRegistry returns an empty registry creating controllers with the given
// collaborators.
func NewRegistry(deps Deps) *Registry {
	return &Registry{
		byInstance: make(map[string]*Controller),
		sessions:   make(map[string]*Controller),
		deps:       deps,
	}
}

// Register returns the session for a widget instance, creating it on first
// sight. The second return reports whether a new session was created.
func (r *Registry) Register(instanceID, botID string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byInstance[instanceID]; ok {
		return existing, false
	}
	c := NewController(botID, r.deps)
	c.instanceKey = instanceID
	r.byInstance[instanceID] = c
	r.sessions[c.ID] = c
	return c, true
}

// Get looks a session up by its id.
func (r *Registry) Get(sessionID string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.sessions[sessionID]
	return c, ok
}

// Remove tears a session down and releases its instance latch.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	c, ok := r.sessions[sessionID]
	if ok {
		delete(r.sessions, sessionID)
		delete(r.byInstance, c.instanceKey)
	}
	r.mu.Unlock()
	if ok {
		c.Close()
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep clears typing indicators stuck past typingDeadline and tears down
// sessions idle longer than maxIdle. Returns the number of sessions removed.
func (r *Registry) Sweep(now time.Time, maxIdle, typingDeadline time.Duration) int {
	r.mu.Lock()
	var idle []*Controller
	for id, c := range r.sessions {
		if c.ClearStuckTyping(now, typingDeadline) {
			zap.S().Warnw("cleared stuck typing indicator", "session", id)
		}
		if now.Sub(c.LastActivity()) > maxIdle {
			idle = append(idle, c)
			delete(r.sessions, id)
			delete(r.byInstance, c.instanceKey)
		}
	}
	r.mu.Unlock()

	for _, c := range idle {
		zap.S().Infow("tearing down idle session", "session", c.ID)
		c.Close()
	}
	return len(idle)
}
