package databases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/luminachat/chat-widget-api/databases"
	"github.com/luminachat/chat-widget-api/databases/mocks"
	"github.com/luminachat/chat-widget-api/models"
)

func TestChatMessageFindBySession(t *testing.T) {
	dbHelper := new(mocks.DatabaseHelper)
	collectionHelper := new(mocks.CollectionHelper)
	cursorHelper := new(mocks.CursorHelper)

	cursorHelper.On("All", mock.Anything, mock.AnythingOfType("*[]models.ChatMessage")).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.ChatMessage)
		*arg = []models.ChatMessage{
			{SessionID: "session-1", Role: "user", Content: "hello"},
			{SessionID: "session-1", Role: "assistant", Content: "hi"},
		}
	})
	cursorHelper.On("Close", mock.Anything).Return(nil)
	collectionHelper.On("Find", mock.Anything, bson.M{"sessionID": "session-1"}, mock.AnythingOfType("*options.FindOptions")).Return(cursorHelper, nil)
	dbHelper.On("Collection", "chatmessages").Return(collectionHelper)

	db := databases.NewChatMessageDatabase(dbHelper)
	messages, err := db.FindBySession(context.Background(), "session-1", 50, 1)

	assert.NoError(t, err)
	assert.Len(t, messages, 2)
	assert.Equal(t, "hello", messages[0].Content)
	cursorHelper.AssertCalled(t, "Close", mock.Anything)
}

func TestChatMessageFindError(t *testing.T) {
	dbHelper := new(mocks.DatabaseHelper)
	collectionHelper := new(mocks.CollectionHelper)

	collectionHelper.On("Find", mock.Anything, bson.M{"sessionID": "session-1"}).Return(nil, errors.New("mongo down"))
	dbHelper.On("Collection", "chatmessages").Return(collectionHelper)

	db := databases.NewChatMessageDatabase(dbHelper)
	messages, err := db.Find(context.Background(), bson.M{"sessionID": "session-1"})

	assert.Error(t, err)
	assert.Nil(t, messages)
}

func TestChatMessageInsertOne(t *testing.T) {
	dbHelper := new(mocks.DatabaseHelper)
	collectionHelper := new(mocks.CollectionHelper)
	iorHelper := new(mocks.InsertOneResultHelper)

	doc := models.ChatMessage{SessionID: "session-1", Role: "user", Content: "hello"}
	collectionHelper.On("InsertOne", mock.Anything, doc).Return(iorHelper, nil)
	dbHelper.On("Collection", "chatmessages").Return(collectionHelper)

	db := databases.NewChatMessageDatabase(dbHelper)
	res, err := db.InsertOne(context.Background(), doc)

	assert.NoError(t, err)
	assert.Equal(t, iorHelper, res)
}

func TestChatMessageCountDocuments(t *testing.T) {
	dbHelper := new(mocks.DatabaseHelper)
	collectionHelper := new(mocks.CollectionHelper)

	collectionHelper.On("CountDocuments", mock.Anything, bson.M{"sessionID": "session-1"}).Return(int64(7), nil)
	dbHelper.On("Collection", "chatmessages").Return(collectionHelper)

	db := databases.NewChatMessageDatabase(dbHelper)
	count, err := db.CountDocuments(context.Background(), bson.M{"sessionID": "session-1"})

	assert.NoError(t, err)
	assert.Equal(t, int64(7), count)
}
