package http

import (
	"net/http"

	"github.com/codeverse-ai/codeverse/internal/service"
)

// Body size limits per request class. The transcribe route carries base64
// audio and gets its own limit derived from the configured audio cap.
const (
	defaultBodyLimit  = 1 << 20 // 1 MiB for CRUD bodies
	generateBodyLimit = 2 << 20 // notes plus client-side overrides
)

// Handlers bundles the HTTP handlers and their service dependencies.
type Handlers struct {
	Repos      *service.RepositoryService
	Plans      *service.PlanService
	Chats      *service.ChatService
	Generate   *service.GenerateService
	Transcribe *service.TranscribeService

	// TranscribeBodyLimit bounds the JSON envelope around the base64 audio.
	// Zero falls back to defaultBodyLimit.
	TranscribeBodyLimit int64
}

func (h *Handlers) transcribeLimit() int64 {
	if h.TranscribeBodyLimit > 0 {
		return h.TranscribeBodyLimit
	}
	return defaultBodyLimit
}

// HandleHealth reports liveness.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
