package http

import (
	"context"
	"net/http"

	"github.com/codeverse-ai/codeverse/internal/domain/plan"
)

// --- Plan Handlers ---

// CreatePlan handles POST /api/repositories/{id}/plans
func (h *Handlers) CreatePlan(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[plan.CreateRequest](w, r, defaultBodyLimit)
	if !ok {
		return
	}
	// The repository comes from the URL, not the body.
	req.RepositoryID = urlParam(r, "id")

	p, err := h.Plans.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "repository not found")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// GetPlan handles GET /api/plans/{id}
func (h *Handlers) GetPlan(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Plans.Get, "plan not found")(w, r)
}

// UpdatePlan handles PUT /api/plans/{id}
func (h *Handlers) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	handleUpdate(defaultBodyLimit, h.Plans.Update, "plan not found")(w, r)
}

// DeletePlan handles DELETE /api/plans/{id}
func (h *Handlers) DeletePlan(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Plans.Delete, "plan not found")(w, r)
}

// ListPlanIterations handles GET /api/plans/{id}/versions
func (h *Handlers) ListPlanIterations(w http.ResponseWriter, r *http.Request) {
	handleListByParam("id", h.Plans.Iterations, "plan not found")(w, r)
}

// --- Plan Version Handlers ---

// ListPlanVersions handles GET /api/plans/{id}/plan_versions
func (h *Handlers) ListPlanVersions(w http.ResponseWriter, r *http.Request) {
	handleListByParam("id", h.Plans.ListVersions, "plan not found")(w, r)
}

// CreatePlanVersion handles POST /api/plans/{id}/plan_versions
func (h *Handlers) CreatePlanVersion(w http.ResponseWriter, r *http.Request) {
	planID := urlParam(r, "id")
	handleCreate(defaultBodyLimit, func(ctx context.Context, req plan.CreateVersionRequest) (*plan.Version, error) {
		return h.Plans.CreateVersion(ctx, planID, req)
	})(w, r)
}

// GetPlanVersion handles GET /api/plan_versions/{id}
func (h *Handlers) GetPlanVersion(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Plans.GetVersion, "plan version not found")(w, r)
}

// DeletePlanVersion handles DELETE /api/plan_versions/{id}
func (h *Handlers) DeletePlanVersion(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Plans.DeleteVersion, "plan version not found")(w, r)
}
