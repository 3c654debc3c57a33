package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/luminachat/chat-widget-api/chat"
	"github.com/luminachat/chat-widget-api/config"
	"github.com/luminachat/chat-widget-api/databases"
	"github.com/luminachat/chat-widget-api/models"
)

// Chatbot exported for testing purposes
type Chatbot struct {
	DB databases.ChatbotDatabase
}

// ChatbotByIDHandler returns a chatbot profile by ID
func (c Chatbot) ChatbotByIDHandler(w http.ResponseWriter, r *http.Request) {
	chatbotID := mux.Vars(r)["chatbot_id"]

	zap.S().Debugf("chatbot_id: %v", chatbotID)

	dbResp, err := c.DB.FindOne(r.Context(), bson.M{"_id": chatbotID})
	if err != nil {
		config.ErrorStatus("failed to get chatbot by ID", http.StatusInternalServerError, w, err)
		return
	}
	if dbResp == nil {
		config.ErrorStatus("chatbot not found", http.StatusNotFound, w, fmt.Errorf("no chatbot with id %s", chatbotID))
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// chatbotProfileFetcher adapts the chatbot database to the session core's
// profile collaborator.
type chatbotProfileFetcher struct {
	DB databases.ChatbotDatabase
}

func (f chatbotProfileFetcher) FetchProfile(ctx context.Context, botID string) (*models.ChatBot, error) {
	return f.DB.FindOne(ctx, bson.M{"_id": botID})
}

var _ chat.ProfileFetcher = chatbotProfileFetcher{}
