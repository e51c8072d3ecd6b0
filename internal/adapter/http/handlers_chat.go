package http

import (
	"context"
	"net/http"

	"github.com/codeverse-ai/codeverse/internal/domain/chat"
)

// --- Chat Session Handlers ---

// GetPlanChat handles GET /api/plans/{id}/chat
func (h *Handlers) GetPlanChat(w http.ResponseWriter, r *http.Request) {
	planID := urlParam(r, "id")
	sess, err := h.Chats.LatestSession(r.Context(), planID)
	if err != nil {
		writeDomainError(w, err, "chat session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// CreatePlanChat handles POST /api/plans/{id}/chat
func (h *Handlers) CreatePlanChat(w http.ResponseWriter, r *http.Request) {
	planID := urlParam(r, "id")
	handleCreate(defaultBodyLimit, func(ctx context.Context, req chat.CreateRequest) (*chat.Session, error) {
		req.PlanID = planID
		return h.Chats.CreateSession(ctx, req)
	})(w, r)
}

// UpdateChat handles PUT /api/chat/{id}
func (h *Handlers) UpdateChat(w http.ResponseWriter, r *http.Request) {
	handleUpdate(defaultBodyLimit, h.Chats.UpdateSession, "chat session not found")(w, r)
}
