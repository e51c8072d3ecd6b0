package service

import (
	"context"
	"fmt"

	"github.com/codeverse-ai/codeverse/internal/domain"
	"github.com/codeverse-ai/codeverse/internal/domain/chat"
	"github.com/codeverse-ai/codeverse/internal/port/database"
)

// ChatService handles clarifying-question chat sessions attached to plans.
type ChatService struct {
	store database.Store
}

// NewChatService creates a new ChatService.
func NewChatService(store database.Store) *ChatService {
	return &ChatService{store: store}
}

// ListSessions returns a plan's chat sessions, newest first. The plan must
// exist.
func (s *ChatService) ListSessions(ctx context.Context, planID string) ([]chat.Session, error) {
	if _, err := s.store.GetPlan(ctx, planID); err != nil {
		return nil, err
	}
	return s.store.ListChatSessions(ctx, planID)
}

// CreateSession opens a chat session for a plan.
func (s *ChatService) CreateSession(ctx context.Context, req chat.CreateRequest) (*chat.Session, error) {
	if err := chat.ValidateCreateRequest(req); err != nil {
		return nil, err
	}
	if _, err := s.store.GetPlan(ctx, req.PlanID); err != nil {
		return nil, fmt.Errorf("plan %s: %w", req.PlanID, err)
	}
	return s.store.CreateChatSession(ctx, req)
}

// LatestSession returns the plan's most recent chat session. The plan must
// exist; ErrNotFound when it has no session yet.
func (s *ChatService) LatestSession(ctx context.Context, planID string) (*chat.Session, error) {
	if _, err := s.store.GetPlan(ctx, planID); err != nil {
		return nil, err
	}
	sess, err := s.store.LatestChatSession(ctx, planID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("plan %s has no chat session: %w", planID, domain.ErrNotFound)
	}
	return sess, nil
}

// GetSession returns a chat session by ID.
func (s *ChatService) GetSession(ctx context.Context, id string) (*chat.Session, error) {
	return s.store.GetChatSession(ctx, id)
}

// UpdateSession applies partial updates to a session.
func (s *ChatService) UpdateSession(ctx context.Context, id string, req chat.UpdateRequest) (*chat.Session, error) {
	if err := chat.ValidateUpdateRequest(req); err != nil {
		return nil, err
	}
	return s.store.UpdateChatSession(ctx, id, req)
}
