// Package service implements business logic on top of ports.
package service

import (
	"context"

	"github.com/codeverse-ai/codeverse/internal/domain/plan"
	"github.com/codeverse-ai/codeverse/internal/domain/repo"
	"github.com/codeverse-ai/codeverse/internal/port/database"
)

// RepositoryService handles repository business logic.
type RepositoryService struct {
	store database.Store
}

// NewRepositoryService creates a new RepositoryService.
func NewRepositoryService(store database.Store) *RepositoryService {
	return &RepositoryService{store: store}
}

// List returns all registered repositories.
func (s *RepositoryService) List(ctx context.Context) ([]repo.Repository, error) {
	return s.store.ListRepositories(ctx)
}

// Get returns a repository by ID.
func (s *RepositoryService) Get(ctx context.Context, id string) (*repo.Repository, error) {
	return s.store.GetRepository(ctx, id)
}

// Create registers a repository after validating the request.
func (s *RepositoryService) Create(ctx context.Context, req repo.CreateRequest) (*repo.Repository, error) {
	if err := repo.ValidateCreateRequest(req); err != nil {
		return nil, err
	}
	return s.store.CreateRepository(ctx, req)
}

// Update applies partial updates to a repository with optimistic locking on
// its current version.
func (s *RepositoryService) Update(ctx context.Context, id string, req repo.UpdateRequest) (*repo.Repository, error) {
	if err := repo.ValidateUpdateRequest(req); err != nil {
		return nil, err
	}

	r, err := s.store.GetRepository(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.store.UpdateRepository(ctx, id, r.Version, req)
}

// Delete removes a repository; plans, plan versions and chat sessions go
// with it via cascade.
func (s *RepositoryService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteRepository(ctx, id)
}

// ListPlans returns the plans of a repository, newest first. The repository
// must exist.
func (s *RepositoryService) ListPlans(ctx context.Context, id string) ([]plan.Plan, error) {
	if _, err := s.store.GetRepository(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListPlans(ctx, id)
}
