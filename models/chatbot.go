package models

// ChatBot holds the structure for the chatbots collection in mongo
type ChatBot struct {
	ID       string          `json:"_id" bson:"_id"`
	Name     string          `json:"name" bson:"name"`
	Details  ChatBotDetails  `json:"chatBot" bson:"chatBot"`
	Helpdesk []HelpdeskEntry `json:"helpdesk" bson:"helpdesk"`
	Version  int32           `json:"__v" bson:"__v"`
}

// ChatBotDetails holds the structure for the inner chatBot structure as
// defined in the chatbots collection in mongo
type ChatBotDetails struct {
	Icon            string      `json:"icon" bson:"icon"`
	WelcomeMessage  string      `json:"welcomeMessage" bson:"welcomeMessage"`
	Background      string      `json:"background" bson:"background"`
	TextColor       string      `json:"textColor" bson:"textColor"`
	HelpdeskEnabled bool        `json:"helpdesk" bson:"helpdesk"`
	OwnerEmail      string      `json:"ownerEmail" bson:"ownerEmail"`
	Plan            string      `json:"plan" bson:"plan"`
	CreatedAt       interface{} `json:"createdAt" bson:"createdAt"`
	UpdatedAt       interface{} `json:"updatedAt" bson:"updatedAt"`
}

// HelpdeskEntry holds a single helpdesk question/answer pair attached to a chatbot
type HelpdeskEntry struct {
	ID       string `json:"id" bson:"id"`
	Question string `json:"question" bson:"question"`
	Answer   string `json:"answer" bson:"answer"`
	DomainID string `json:"domainId" bson:"domainId"`
}
