// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/codeverse-ai/codeverse/internal/domain/chat"
	"github.com/codeverse-ai/codeverse/internal/domain/plan"
	"github.com/codeverse-ai/codeverse/internal/domain/repo"
)

// Store is the port interface for database operations.
type Store interface {
	// Repositories
	ListRepositories(ctx context.Context) ([]repo.Repository, error)
	GetRepository(ctx context.Context, id string) (*repo.Repository, error)
	CreateRepository(ctx context.Context, req repo.CreateRequest) (*repo.Repository, error)
	UpdateRepository(ctx context.Context, id string, version int, req repo.UpdateRequest) (*repo.Repository, error)
	DeleteRepository(ctx context.Context, id string) error

	// Plans
	ListPlans(ctx context.Context, repositoryID string) ([]plan.Plan, error)
	GetPlan(ctx context.Context, id string) (*plan.Plan, error)
	// ListPlanIterations returns all plans in the same repository sharing the
	// plan's name, oldest first.
	ListPlanIterations(ctx context.Context, id string) ([]plan.Plan, error)
	CreatePlan(ctx context.Context, req plan.CreateRequest) (*plan.Plan, error)
	UpdatePlan(ctx context.Context, id string, version int, req plan.UpdateRequest) (*plan.Plan, error)
	DeletePlan(ctx context.Context, id string) error

	// Plan versions (immutable)
	ListPlanVersions(ctx context.Context, planID string) ([]plan.Version, error)
	GetPlanVersion(ctx context.Context, id string) (*plan.Version, error)
	// LatestPlanVersion returns nil, nil when the plan has no versions yet.
	LatestPlanVersion(ctx context.Context, planID string) (*plan.Version, error)
	CreatePlanVersion(ctx context.Context, planID string, content string, version int) (*plan.Version, error)
	DeletePlanVersion(ctx context.Context, id string) error

	// Chat sessions
	ListChatSessions(ctx context.Context, planID string) ([]chat.Session, error)
	GetChatSession(ctx context.Context, id string) (*chat.Session, error)
	// LatestChatSession returns nil, nil when the plan has no sessions yet.
	LatestChatSession(ctx context.Context, planID string) (*chat.Session, error)
	CreateChatSession(ctx context.Context, req chat.CreateRequest) (*chat.Session, error)
	UpdateChatSession(ctx context.Context, id string, req chat.UpdateRequest) (*chat.Session, error)
	AppendChatMessages(ctx context.Context, id string, msgs ...chat.Message) (*chat.Session, error)
}
