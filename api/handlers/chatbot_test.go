package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/luminachat/chat-widget-api/databases/mocks"
	"github.com/luminachat/chat-widget-api/models"
)

func TestChatbotByIDHandlerSuccess(t *testing.T) {
	db := new(mocks.ChatbotDatabase)
	db.On("FindOne", mock.Anything, mock.Anything).Return(widgetBot(), nil)

	req := httptest.NewRequest("GET", "/api/v1/chatbot/bot-1", nil)
	req = mux.SetURLVars(req, map[string]string{"chatbot_id": "bot-1"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(Chatbot{DB: db}.ChatbotByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got models.ChatBot
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "bot-1", got.ID)
	assert.Equal(t, "Welcome!", got.Details.WelcomeMessage)
}

func TestChatbotByIDHandlerNotFound(t *testing.T) {
	db := new(mocks.ChatbotDatabase)
	db.On("FindOne", mock.Anything, mock.Anything).Return(nil, nil)

	req := httptest.NewRequest("GET", "/api/v1/chatbot/ghost", nil)
	req = mux.SetURLVars(req, map[string]string{"chatbot_id": "ghost"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(Chatbot{DB: db}.ChatbotByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestChatbotByIDHandlerDatabaseError(t *testing.T) {
	db := new(mocks.ChatbotDatabase)
	db.On("FindOne", mock.Anything, mock.Anything).Return(nil, errors.New("mongo down"))

	req := httptest.NewRequest("GET", "/api/v1/chatbot/bot-1", nil)
	req = mux.SetURLVars(req, map[string]string{"chatbot_id": "bot-1"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(Chatbot{DB: db}.ChatbotByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
