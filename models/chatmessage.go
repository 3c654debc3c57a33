package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// ChatMessage holds the structure for the chatmessages collection in mongo
type ChatMessage struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	SessionID string             `json:"sessionID" bson:"sessionID"`
	Role      string             `json:"role" bson:"role"` // "user" or "assistant"
	Content   string             `json:"content" bson:"content"`
	Link      string             `json:"link,omitempty" bson:"link,omitempty"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
