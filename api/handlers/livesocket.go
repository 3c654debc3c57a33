package handlers

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/luminachat/chat-widget-api/chat"
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the widget runs inside customer pages on arbitrary origins
	},
}

// WidgetHub stores connected widgets (sessionId -> *websocket.Conn) and
// implements the session core's push collaborator: appended messages and
// typing flips reach the open widget without polling.
type WidgetHub struct {
	clients map[string]*websocket.Conn
	mutex   sync.Mutex
}

// NewWidgetHub returns an empty hub.
func NewWidgetHub() *WidgetHub {
	return &WidgetHub{clients: make(map[string]*websocket.Conn)}
}

var _ chat.Pusher = (*WidgetHub)(nil)

// HandleWidgetSocket is the WebSocket handler widgets connect to for live updates
func (h *WidgetHub) HandleWidgetSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		conn.Close()
		return
	}

	h.mutex.Lock()
	h.clients[sessionID] = conn
	h.mutex.Unlock()
	log.Printf("Session %s connected to /ws/widget", sessionID)

	conn.SetCloseHandler(func(code int, text string) error {
		h.mutex.Lock()
		delete(h.clients, sessionID)
		h.mutex.Unlock()
		log.Printf("Session %s disconnected from /ws/widget", sessionID)
		return nil
	})

	// Keep connection alive; widgets never send payloads on this socket
	for {
		if _, _, err := conn.NextReader(); err != nil {
			conn.Close()
			break
		}
	}
}

// PushMessage sends an appended message to the widget of a session
func (h *WidgetHub) PushMessage(sessionID string, m chat.Message) {
	h.send(sessionID, map[string]interface{}{
		"event": "message_appended",
		"data":  m,
	})
}

// PushTyping sends a typing indicator flip to the widget of a session
func (h *WidgetHub) PushTyping(sessionID string, typing bool) {
	h.send(sessionID, map[string]interface{}{
		"event": "typing",
		"data":  typing,
	})
}

func (h *WidgetHub) send(sessionID string, payload map[string]interface{}) {
	// the lock also serializes writers on the connection
	h.mutex.Lock()
	defer h.mutex.Unlock()

	conn, exists := h.clients[sessionID]
	if !exists {
		return
	}
	if err := conn.WriteJSON(payload); err != nil {
		log.Printf("Error pushing to session %s: %v", sessionID, err)
		delete(h.clients, sessionID)
		conn.Close()
	}
}
