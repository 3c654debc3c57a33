package databases

// go generate: mockery --name AgentDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/luminachat/chat-widget-api/models"
)

const agentName = "agents"

// AgentDatabase contains the methods to use with the agent database
type AgentDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Agent, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Agent, error)
}

type agentDatabase struct {
	db DatabaseHelper
}

// NewAgentDatabase initializes a new instance of agent database with the provided db connection
func NewAgentDatabase(db DatabaseHelper) AgentDatabase {
	return &agentDatabase{
		db: db,
	}
}

func (a *agentDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Agent, error) {
	agent := &models.Agent{}
	err := a.db.Collection(agentName).FindOne(ctx, filter, opts...).Decode(&agent)
	if err != nil {
		return nil, err
	}
	return agent, nil
}

func (a *agentDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Agent, error) {
	var agents []models.Agent
	curr, err := a.db.Collection(agentName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &agents)
	if err != nil {
		return nil, err
	}
	return agents, nil
}
