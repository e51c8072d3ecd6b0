package service

import (
	"context"
	"errors"
	"testing"

	"github.com/codeverse-ai/codeverse/internal/domain"
	"github.com/codeverse-ai/codeverse/internal/domain/plan"
)

func TestPlanCreate(t *testing.T) {
	store := &mockStore{}
	r, _ := seedRepoAndPlan(store)
	svc := NewPlanService(store, nil)

	p, err := svc.Create(context.Background(), plan.CreateRequest{
		RepositoryID: r.ID,
		Name:         "search-index",
		TargetBranch: "feature/search",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Status != plan.StatusDraft {
		t.Errorf("Status = %q, want %q", p.Status, plan.StatusDraft)
	}
}

func TestPlanCreateUnknownRepository(t *testing.T) {
	store := &mockStore{}
	svc := NewPlanService(store, nil)

	_, err := svc.Create(context.Background(), plan.CreateRequest{
		RepositoryID: "missing",
		Name:         "search-index",
		TargetBranch: "feature/search",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPlanUpdateStatus(t *testing.T) {
	store := &mockStore{}
	_, p := seedRepoAndPlan(store)
	svc := NewPlanService(store, nil)

	status := plan.StatusActive
	got, err := svc.Update(context.Background(), p.ID, plan.UpdateRequest{Status: &status})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Status != plan.StatusActive {
		t.Errorf("Status = %q, want %q", got.Status, plan.StatusActive)
	}
}

func TestPlanIterations(t *testing.T) {
	store := &mockStore{}
	r, p := seedRepoAndPlan(store)
	// Second iteration: same repository, same name.
	p2, _ := store.CreatePlan(context.Background(), plan.CreateRequest{
		RepositoryID: r.ID,
		Name:         p.Name,
		TargetBranch: p.TargetBranch,
	})
	// Unrelated plan that must not show up.
	store.CreatePlan(context.Background(), plan.CreateRequest{
		RepositoryID: r.ID,
		Name:         "other",
		TargetBranch: "main",
	})
	svc := NewPlanService(store, nil)

	got, err := svc.Iterations(context.Background(), p2.ID)
	if err != nil {
		t.Fatalf("Iterations: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != p.ID || got[1].ID != p2.ID {
		t.Errorf("iterations out of order: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestPlanCreateVersionAssignsNext(t *testing.T) {
	store := &mockStore{}
	_, p := seedRepoAndPlan(store)
	svc := NewPlanService(store, nil)

	v1, err := svc.CreateVersion(context.Background(), p.ID, plan.CreateVersionRequest{Content: "draft one"})
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	if v1.Version != 1 {
		t.Errorf("first version = %d, want 1", v1.Version)
	}

	v2, err := svc.CreateVersion(context.Background(), p.ID, plan.CreateVersionRequest{Content: "draft two"})
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	if v2.Version != 2 {
		t.Errorf("second version = %d, want 2", v2.Version)
	}
}

func TestPlanCreateVersionExplicitConflict(t *testing.T) {
	store := &mockStore{}
	_, p := seedRepoAndPlan(store)
	svc := NewPlanService(store, nil)

	if _, err := svc.CreateVersion(context.Background(), p.ID, plan.CreateVersionRequest{Content: "one", Version: 3}); err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	_, err := svc.CreateVersion(context.Background(), p.ID, plan.CreateVersionRequest{Content: "two", Version: 3})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestPlanGetVersionCached(t *testing.T) {
	store := &mockStore{}
	_, p := seedRepoAndPlan(store)
	c := newMemCache()
	svc := NewPlanService(store, c)

	v, err := svc.CreateVersion(context.Background(), p.ID, plan.CreateVersionRequest{Content: "cached content"})
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}

	got, err := svc.GetVersion(context.Background(), v.ID)
	if err != nil {
		t.Fatalf("GetVersion: %v", err)
	}
	if got.Content != "cached content" {
		t.Errorf("Content = %q", got.Content)
	}
	if c.sets != 1 {
		t.Fatalf("cache sets = %d, want 1", c.sets)
	}

	// Second read must be served from the cache.
	if _, err := svc.GetVersion(context.Background(), v.ID); err != nil {
		t.Fatalf("GetVersion (cached): %v", err)
	}
	if c.hits != 1 {
		t.Errorf("cache hits = %d, want 1", c.hits)
	}

	// Deleting the version evicts the entry.
	if err := svc.DeleteVersion(context.Background(), v.ID); err != nil {
		t.Fatalf("DeleteVersion: %v", err)
	}
	if len(c.entries) != 0 {
		t.Errorf("cache still holds %d entries after delete", len(c.entries))
	}
}
