package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/luminachat/chat-widget-api/chat"
	"github.com/luminachat/chat-widget-api/config"
	"github.com/luminachat/chat-widget-api/databases"
	"github.com/luminachat/chat-widget-api/models"
	"github.com/luminachat/chat-widget-api/realtime"
)

// Agent exported for testing purposes
type Agent struct {
	Broker realtime.Broker
	MDB    databases.ChatMessageDatabase
}

type roomMessageRequest struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// PostRoomMessageHandler publishes a live agent message into a chat room.
// Every session bridged to the room appends it; connected dashboards see it
// over socket.io.
func (a Agent) PostRoomMessageHandler(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["room_id"]

	var req roomMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Message == "" {
		config.ErrorStatus("message is required", http.StatusBadRequest, w, errors.New("empty message"))
		return
	}
	if req.Role == "" {
		req.Role = string(chat.RoleAssistant)
	}

	ev := realtime.Event{Chat: realtime.ChatPayload{Role: req.Role, Message: req.Message}}
	if err := a.Broker.Publish(r.Context(), roomID, ev); err != nil {
		config.ErrorStatus("failed to publish message", http.StatusBadGateway, w, err)
		return
	}
	EmitRoomMessage(roomID, ev)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf(`{"room": "%s", "published": true}`, roomID)))
}

// JoinRoomHandler validates the signed join link from a handoff email and
// hands the agent the identifiers it needs to enter the room.
func (a Agent) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["room_id"]
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		config.ErrorStatus("missing join token", http.StatusUnauthorized, w, errors.New("token query parameter required"))
		return
	}

	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		config.ErrorStatus("invalid join token", http.StatusUnauthorized, w, err)
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["room"] != roomID {
		config.ErrorStatus("join token does not match room", http.StatusForbidden, w, errors.New("room mismatch"))
		return
	}

	sessionID, _ := claims["session"].(string)
	zap.S().Infow("agent joined chat room", "room", roomID, "session", sessionID)

	b, _ := json.Marshal(map[string]string{
		"room":    roomID,
		"session": sessionID,
		"event":   realtime.EventName,
	})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// TranscriptHandler returns one page of a session's persisted transcript.
func (a Agent) TranscriptHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page <= 0 {
		page = 1
	}

	dbResp, err := a.MDB.FindBySession(r.Context(), sessionID, limit, page)
	if err != nil {
		config.ErrorStatus("failed to get transcript", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.ChatMessage{}
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// transcriptWriter adapts the chat message database to the session core's
// persistence collaborator.
type transcriptWriter struct {
	DB databases.ChatMessageDatabase
}

func (t transcriptWriter) SaveMessage(ctx context.Context, sessionID string, m chat.Message) error {
	_, err := t.DB.InsertOne(ctx, models.ChatMessage{
		ID:        primitive.NewObjectID(),
		SessionID: sessionID,
		Role:      string(m.Role),
		Content:   m.Content,
		Link:      m.Link,
		CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
	})
	return err
}

var _ chat.TranscriptWriter = transcriptWriter{}
