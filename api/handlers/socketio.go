package handlers

import (
	"context"
	"log"

	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"

	"github.com/luminachat/chat-widget-api/realtime"
)

var server *socketio.Server

// InitializeSocketIO initializes the Socket.IO server the agent dashboards
// connect to. Dashboards join the chat room of a handed-off session and
// exchange live messages on the realtime-mode event; messages received here
// are also published to the broker so bridged widget sessions append them.
func InitializeSocketIO(broker realtime.Broker) *socketio.Server {
	server = socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			polling.Default,
			websocket.Default,
		},
	})

	server.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext("")
		log.Println("Socket.IO client connected:", s.ID())
		return nil
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		log.Println("Socket.IO error:", e)
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		log.Println("Socket.IO client disconnected:", s.ID(), "reason:", reason)
	})

	server.OnEvent("/", "join_room", func(s socketio.Conn, msg map[string]interface{}) {
		roomID, ok := msg["roomId"].(string)
		if ok {
			s.Join(roomID)
			log.Println("Client joined chat room:", roomID)
		}
	})

	server.OnEvent("/", "leave_room", func(s socketio.Conn, msg map[string]interface{}) {
		roomID, ok := msg["roomId"].(string)
		if ok {
			s.Leave(roomID)
			log.Println("Client left chat room:", roomID)
		}
	})

	server.OnEvent("/", realtime.EventName, func(s socketio.Conn, msg map[string]interface{}) {
		roomID, ok := msg["roomId"].(string)
		if !ok {
			return
		}
		chatPayload, _ := msg["chat"].(map[string]interface{})
		role, _ := chatPayload["role"].(string)
		text, _ := chatPayload["message"].(string)
		if text == "" {
			return
		}

		ev := realtime.Event{Chat: realtime.ChatPayload{Role: role, Message: text}}
		if err := broker.Publish(context.Background(), roomID, ev); err != nil {
			log.Println("failed to publish dashboard message:", err)
			return
		}
		server.BroadcastToRoom("/", roomID, realtime.EventName, msg)
	})

	go func() {
		if err := server.Serve(); err != nil {
			log.Fatalf("Socket.IO server error: %v", err)
		}
	}()

	return server
}

// GetSocketIOServer returns the Socket.IO server instance
func GetSocketIOServer() *socketio.Server {
	return server
}

// EmitRoomMessage broadcasts a live message to the dashboards in a chat room
func EmitRoomMessage(roomID string, ev realtime.Event) {
	if server != nil {
		data := map[string]interface{}{
			"roomId": roomID,
			"chat": map[string]interface{}{
				"role":    ev.Chat.Role,
				"message": ev.Chat.Message,
			},
		}
		server.BroadcastToRoom("/", roomID, realtime.EventName, data)
	}
}
