package http

import (
	"net/http"
)

// --- Repository Handlers ---

// ListRepositories handles GET /api/repositories
func (h *Handlers) ListRepositories(w http.ResponseWriter, r *http.Request) {
	handleList(h.Repos.List)(w, r)
}

// CreateRepository handles POST /api/repositories
func (h *Handlers) CreateRepository(w http.ResponseWriter, r *http.Request) {
	handleCreate(defaultBodyLimit, h.Repos.Create)(w, r)
}

// GetRepository handles GET /api/repositories/{id}
func (h *Handlers) GetRepository(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Repos.Get, "repository not found")(w, r)
}

// UpdateRepository handles PUT /api/repositories/{id}
func (h *Handlers) UpdateRepository(w http.ResponseWriter, r *http.Request) {
	handleUpdate(defaultBodyLimit, h.Repos.Update, "repository not found")(w, r)
}

// DeleteRepository handles DELETE /api/repositories/{id}
func (h *Handlers) DeleteRepository(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Repos.Delete, "repository not found")(w, r)
}

// ListRepositoryPlans handles GET /api/repositories/{id}/plans
func (h *Handlers) ListRepositoryPlans(w http.ResponseWriter, r *http.Request) {
	handleListByParam("id", h.Repos.ListPlans, "repository not found")(w, r)
}
