package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/codeverse-ai/codeverse/internal/domain/plan"
	"github.com/codeverse-ai/codeverse/internal/port/cache"
	"github.com/codeverse-ai/codeverse/internal/port/database"
)

// PlanService handles plan and plan-version business logic.
type PlanService struct {
	store database.Store
	cache cache.Cache
	group singleflight.Group
}

// NewPlanService creates a new PlanService. cache may be nil, in which case
// plan-version reads always hit the store.
func NewPlanService(store database.Store, c cache.Cache) *PlanService {
	return &PlanService{store: store, cache: c}
}

// Get returns a plan by ID.
func (s *PlanService) Get(ctx context.Context, id string) (*plan.Plan, error) {
	return s.store.GetPlan(ctx, id)
}

// Create creates a plan after validating the request and checking that the
// target repository exists.
func (s *PlanService) Create(ctx context.Context, req plan.CreateRequest) (*plan.Plan, error) {
	if err := plan.ValidateCreateRequest(req); err != nil {
		return nil, err
	}
	if _, err := s.store.GetRepository(ctx, req.RepositoryID); err != nil {
		return nil, fmt.Errorf("repository %s: %w", req.RepositoryID, err)
	}
	return s.store.CreatePlan(ctx, req)
}

// Update applies partial updates to a plan with optimistic locking.
func (s *PlanService) Update(ctx context.Context, id string, req plan.UpdateRequest) (*plan.Plan, error) {
	if err := plan.ValidateUpdateRequest(req); err != nil {
		return nil, err
	}

	p, err := s.store.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.store.UpdatePlan(ctx, id, p.Version, req)
}

// Delete removes a plan and its versions and chat sessions via cascade.
func (s *PlanService) Delete(ctx context.Context, id string) error {
	return s.store.DeletePlan(ctx, id)
}

// Iterations returns all plans sharing this plan's name within its
// repository, oldest first.
func (s *PlanService) Iterations(ctx context.Context, id string) ([]plan.Plan, error) {
	return s.store.ListPlanIterations(ctx, id)
}

// ListVersions returns a plan's versions, newest first. The plan must exist.
func (s *PlanService) ListVersions(ctx context.Context, planID string) ([]plan.Version, error) {
	if _, err := s.store.GetPlan(ctx, planID); err != nil {
		return nil, err
	}
	return s.store.ListPlanVersions(ctx, planID)
}

// GetVersion returns one plan version. Content is immutable once written, so
// reads go through the cache; a hit skips the store entirely. Concurrent
// misses for the same version collapse into a single store fetch.
func (s *PlanService) GetVersion(ctx context.Context, id string) (*plan.Version, error) {
	key := versionCacheKey(id)
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var v plan.Version
			if err := json.Unmarshal(data, &v); err == nil {
				return &v, nil
			}
			// A corrupt entry falls through to the store.
			_ = s.cache.Delete(ctx, key)
		}
	}

	res, err, _ := s.group.Do(key, func() (any, error) {
		v, err := s.store.GetPlanVersion(ctx, id)
		if err != nil {
			return nil, err
		}

		if s.cache != nil {
			if data, err := json.Marshal(v); err == nil {
				if err := s.cache.Set(ctx, key, data, 0); err != nil {
					slog.Debug("plan version cache set failed", "id", id, "error", err)
				}
			}
		}
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*plan.Version), nil
}

// CreateVersion records a plan version by hand. When the request leaves the
// version number at zero, the next number after the latest is assigned.
func (s *PlanService) CreateVersion(ctx context.Context, planID string, req plan.CreateVersionRequest) (*plan.Version, error) {
	if err := plan.ValidateCreateVersionRequest(req); err != nil {
		return nil, err
	}
	if _, err := s.store.GetPlan(ctx, planID); err != nil {
		return nil, err
	}

	version := req.Version
	if version == 0 {
		latest, err := s.store.LatestPlanVersion(ctx, planID)
		if err != nil {
			return nil, err
		}
		version = 1
		if latest != nil {
			version = latest.Version + 1
		}
	}

	return s.store.CreatePlanVersion(ctx, planID, req.Content, version)
}

// DeleteVersion removes a plan version and evicts it from the cache.
func (s *PlanService) DeleteVersion(ctx context.Context, id string) error {
	if err := s.store.DeletePlanVersion(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, versionCacheKey(id))
	}
	return nil
}

func versionCacheKey(id string) string {
	return "pv:" + id
}
