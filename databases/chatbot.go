package databases

// go generate: mockery --name ChatbotDatabase

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/luminachat/chat-widget-api/models"
)

const chatbotName = "chatbots"

// ChatbotDatabase contains the methods to use with the chatbot database
type ChatbotDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.ChatBot, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error)
}

type chatbotDatabase struct {
	db DatabaseHelper
}

// NewChatbotDatabase initializes a new instance of chatbot database with the provided db connection
func NewChatbotDatabase(db DatabaseHelper) ChatbotDatabase {
	return &chatbotDatabase{
		db: db,
	}
}

// FindOne returns (nil, nil) when no chatbot matches the filter. A missing
// profile is an empty state for the widget, not an error.
func (c *chatbotDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.ChatBot, error) {
	chatbot := &models.ChatBot{}
	err := c.db.Collection(chatbotName).FindOne(ctx, filter, opts...).Decode(&chatbot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return chatbot, nil
}

func (c *chatbotDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error) {
	return c.db.Collection(chatbotName).UpdateOne(ctx, filter, update, opts...)
}
