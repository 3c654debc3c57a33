package models

// Agent holds the structure for the agents collection in mongo
type Agent struct {
	ID      string       `json:"_id" bson:"_id"`
	Details AgentDetails `json:"agent" bson:"agent"`
	Version int32        `json:"__v" bson:"__v"`
}

// AgentDetails holds the structure for the inner agent structure as defined
// in the agents collection in mongo
type AgentDetails struct {
	Name      string      `json:"name" bson:"name"`
	Email     string      `json:"email" bson:"email"`
	Password  string      `json:"password" bson:"password"`
	CreatedAt interface{} `json:"createdAt" bson:"createdAt"`
	UpdatedAt interface{} `json:"updatedAt" bson:"updatedAt"`
}
