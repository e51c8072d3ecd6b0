package service

import (
	"context"
	"fmt"
	"time"

	"github.com/codeverse-ai/codeverse/internal/domain"
	"github.com/codeverse-ai/codeverse/internal/domain/chat"
	"github.com/codeverse-ai/codeverse/internal/domain/plan"
	"github.com/codeverse-ai/codeverse/internal/domain/repo"
	"github.com/codeverse-ai/codeverse/internal/port/database"
)

// Ensure mockStore implements database.Store at compile time.
var _ database.Store = (*mockStore)(nil)

// mockStore is a minimal in-memory implementation of database.Store for
// testing.
type mockStore struct {
	repos    []repo.Repository
	plans    []plan.Plan
	versions []plan.Version
	sessions []chat.Session

	nextID int

	// Error hooks, set these to inject failures.
	getRepositoryErr     error
	getPlanErr           error
	latestVersionErr     error
	createVersionErr     error
	latestSessionErr     error
	appendMessagesErr    error
	createSessionErr     error
	updateRepositoryErr  error
	updatePlanErr        error
	updateChatSessionErr error
}

func (m *mockStore) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *mockStore) ListRepositories(_ context.Context) ([]repo.Repository, error) {
	return m.repos, nil
}

func (m *mockStore) GetRepository(_ context.Context, id string) (*repo.Repository, error) {
	if m.getRepositoryErr != nil {
		return nil, m.getRepositoryErr
	}
	for i := range m.repos {
		if m.repos[i].ID == id {
			return &m.repos[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) CreateRepository(_ context.Context, req repo.CreateRequest) (*repo.Repository, error) {
	branch := req.DefaultBranch
	if branch == "" {
		branch = repo.DefaultBranchFallback
	}
	r := repo.Repository{
		ID:            m.id("repo"),
		Name:          req.Name,
		Path:          req.Path,
		GitURL:        req.GitURL,
		DefaultBranch: branch,
		Version:       1,
	}
	m.repos = append(m.repos, r)
	return &r, nil
}

func (m *mockStore) UpdateRepository(_ context.Context, id string, version int, req repo.UpdateRequest) (*repo.Repository, error) {
	if m.updateRepositoryErr != nil {
		return nil, m.updateRepositoryErr
	}
	for i := range m.repos {
		if m.repos[i].ID != id {
			continue
		}
		if m.repos[i].Version != version {
			return nil, domain.ErrConflict
		}
		if req.Name != nil {
			m.repos[i].Name = *req.Name
		}
		if req.Path != nil {
			m.repos[i].Path = *req.Path
		}
		if req.GitURL != nil {
			m.repos[i].GitURL = *req.GitURL
		}
		if req.DefaultBranch != nil {
			m.repos[i].DefaultBranch = *req.DefaultBranch
		}
		m.repos[i].Version++
		return &m.repos[i], nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) DeleteRepository(_ context.Context, id string) error {
	for i := range m.repos {
		if m.repos[i].ID == id {
			m.repos = append(m.repos[:i], m.repos[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) ListPlans(_ context.Context, repositoryID string) ([]plan.Plan, error) {
	var out []plan.Plan
	for _, p := range m.plans {
		if p.RepositoryID == repositoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockStore) GetPlan(_ context.Context, id string) (*plan.Plan, error) {
	if m.getPlanErr != nil {
		return nil, m.getPlanErr
	}
	for i := range m.plans {
		if m.plans[i].ID == id {
			return &m.plans[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListPlanIterations(ctx context.Context, id string) ([]plan.Plan, error) {
	p, err := m.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	var out []plan.Plan
	for _, q := range m.plans {
		if q.RepositoryID == p.RepositoryID && q.Name == p.Name {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *mockStore) CreatePlan(_ context.Context, req plan.CreateRequest) (*plan.Plan, error) {
	status := req.Status
	if status == "" {
		status = plan.StatusDraft
	}
	p := plan.Plan{
		ID:           m.id("plan"),
		RepositoryID: req.RepositoryID,
		Name:         req.Name,
		Description:  req.Description,
		TargetBranch: req.TargetBranch,
		Status:       status,
		Version:      1,
	}
	m.plans = append(m.plans, p)
	return &p, nil
}

func (m *mockStore) UpdatePlan(_ context.Context, id string, version int, req plan.UpdateRequest) (*plan.Plan, error) {
	if m.updatePlanErr != nil {
		return nil, m.updatePlanErr
	}
	for i := range m.plans {
		if m.plans[i].ID != id {
			continue
		}
		if m.plans[i].Version != version {
			return nil, domain.ErrConflict
		}
		if req.Name != nil {
			m.plans[i].Name = *req.Name
		}
		if req.Description != nil {
			m.plans[i].Description = *req.Description
		}
		if req.TargetBranch != nil {
			m.plans[i].TargetBranch = *req.TargetBranch
		}
		if req.Status != nil {
			m.plans[i].Status = *req.Status
		}
		m.plans[i].Version++
		return &m.plans[i], nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) DeletePlan(_ context.Context, id string) error {
	for i := range m.plans {
		if m.plans[i].ID == id {
			m.plans = append(m.plans[:i], m.plans[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) ListPlanVersions(_ context.Context, planID string) ([]plan.Version, error) {
	var out []plan.Version
	for i := len(m.versions) - 1; i >= 0; i-- {
		if m.versions[i].PlanID == planID {
			out = append(out, m.versions[i])
		}
	}
	return out, nil
}

func (m *mockStore) GetPlanVersion(_ context.Context, id string) (*plan.Version, error) {
	for i := range m.versions {
		if m.versions[i].ID == id {
			return &m.versions[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) LatestPlanVersion(_ context.Context, planID string) (*plan.Version, error) {
	if m.latestVersionErr != nil {
		return nil, m.latestVersionErr
	}
	var latest *plan.Version
	for i := range m.versions {
		v := &m.versions[i]
		if v.PlanID == planID && (latest == nil || v.Version > latest.Version) {
			latest = v
		}
	}
	return latest, nil
}

func (m *mockStore) CreatePlanVersion(_ context.Context, planID, content string, version int) (*plan.Version, error) {
	if m.createVersionErr != nil {
		return nil, m.createVersionErr
	}
	for _, v := range m.versions {
		if v.PlanID == planID && v.Version == version {
			return nil, domain.ErrConflict
		}
	}
	v := plan.Version{
		ID:        m.id("pv"),
		PlanID:    planID,
		Content:   content,
		Version:   version,
		CreatedAt: time.Now().UTC(),
	}
	m.versions = append(m.versions, v)
	return &v, nil
}

func (m *mockStore) DeletePlanVersion(_ context.Context, id string) error {
	for i := range m.versions {
		if m.versions[i].ID == id {
			m.versions = append(m.versions[:i], m.versions[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) ListChatSessions(_ context.Context, planID string) ([]chat.Session, error) {
	var out []chat.Session
	for i := len(m.sessions) - 1; i >= 0; i-- {
		if m.sessions[i].PlanID == planID {
			out = append(out, m.sessions[i])
		}
	}
	return out, nil
}

func (m *mockStore) GetChatSession(_ context.Context, id string) (*chat.Session, error) {
	for i := range m.sessions {
		if m.sessions[i].ID == id {
			return &m.sessions[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) LatestChatSession(_ context.Context, planID string) (*chat.Session, error) {
	if m.latestSessionErr != nil {
		return nil, m.latestSessionErr
	}
	for i := len(m.sessions) - 1; i >= 0; i-- {
		if m.sessions[i].PlanID == planID {
			return &m.sessions[i], nil
		}
	}
	return nil, nil
}

func (m *mockStore) CreateChatSession(_ context.Context, req chat.CreateRequest) (*chat.Session, error) {
	if m.createSessionErr != nil {
		return nil, m.createSessionErr
	}
	status := req.Status
	if status == "" {
		status = chat.StatusActive
	}
	msgs := req.Messages
	if msgs == nil {
		msgs = []chat.Message{}
	}
	s := chat.Session{
		ID:       m.id("chat"),
		PlanID:   req.PlanID,
		Messages: msgs,
		Status:   status,
		Version:  1,
	}
	m.sessions = append(m.sessions, s)
	return &s, nil
}

func (m *mockStore) UpdateChatSession(_ context.Context, id string, req chat.UpdateRequest) (*chat.Session, error) {
	if m.updateChatSessionErr != nil {
		return nil, m.updateChatSessionErr
	}
	for i := range m.sessions {
		if m.sessions[i].ID != id {
			continue
		}
		if req.Messages != nil {
			m.sessions[i].Messages = *req.Messages
		}
		if req.Status != nil {
			m.sessions[i].Status = *req.Status
		}
		m.sessions[i].Version++
		return &m.sessions[i], nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) AppendChatMessages(_ context.Context, id string, msgs ...chat.Message) (*chat.Session, error) {
	if m.appendMessagesErr != nil {
		return nil, m.appendMessagesErr
	}
	for i := range m.sessions {
		if m.sessions[i].ID == id {
			m.sessions[i].Messages = append(m.sessions[i].Messages, msgs...)
			m.sessions[i].Version++
			return &m.sessions[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

// seedRepoAndPlan puts one repository and one plan into the store and returns
// them.
func seedRepoAndPlan(m *mockStore) (*repo.Repository, *plan.Plan) {
	r, _ := m.CreateRepository(context.Background(), repo.CreateRequest{
		Name: "api-server",
		Path: "/srv/repos/api-server",
	})
	p, _ := m.CreatePlan(context.Background(), plan.CreateRequest{
		RepositoryID: r.ID,
		Name:         "auth-overhaul",
		TargetBranch: "feature/auth",
	})
	return r, p
}

// memCache is an in-memory cache.Cache for testing.
type memCache struct {
	entries map[string][]byte
	sets    int
	hits    int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.sets++
	c.entries[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

// recordingBroadcaster captures broadcast events for assertions.
type recordingBroadcaster struct {
	events []broadcastRecord
}

type broadcastRecord struct {
	eventType string
	payload   any
}

func (b *recordingBroadcaster) BroadcastEvent(_ context.Context, eventType string, payload any) {
	b.events = append(b.events, broadcastRecord{eventType: eventType, payload: payload})
}

func (b *recordingBroadcaster) byType(eventType string) []broadcastRecord {
	var out []broadcastRecord
	for _, e := range b.events {
		if e.eventType == eventType {
			out = append(out, e)
		}
	}
	return out
}
