package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// MountRoutes registers all API routes on the given chi router. The routes
// mirror the paths the frontend already speaks.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api", func(r chi.Router) {
		// CRUD routes get a request timeout. The generate route streams for
		// as long as the agent runs and is mounted without one below.
		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(30 * time.Second))

			// Version banner
			r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"name":"codeverse","version":"0.1.0"}`))
			})

			// Repositories
			r.Get("/repositories", h.ListRepositories)
			r.Post("/repositories", h.CreateRepository)
			r.Get("/repositories/{id}", h.GetRepository)
			r.Put("/repositories/{id}", h.UpdateRepository)
			r.Delete("/repositories/{id}", h.DeleteRepository)
			r.Get("/repositories/{id}/plans", h.ListRepositoryPlans)
			r.Post("/repositories/{id}/plans", h.CreatePlan)

			// Plans
			r.Get("/plans/{id}", h.GetPlan)
			r.Put("/plans/{id}", h.UpdatePlan)
			r.Delete("/plans/{id}", h.DeletePlan)
			r.Get("/plans/{id}/versions", h.ListPlanIterations)

			// Plan versions
			r.Get("/plans/{id}/plan_versions", h.ListPlanVersions)
			r.Post("/plans/{id}/plan_versions", h.CreatePlanVersion)
			r.Get("/plan_versions/{id}", h.GetPlanVersion)
			r.Delete("/plan_versions/{id}", h.DeletePlanVersion)

			// Chat sessions
			r.Get("/plans/{id}/chat", h.GetPlanChat)
			r.Post("/plans/{id}/chat", h.CreatePlanChat)
			r.Put("/chat/{id}", h.UpdateChat)
		})

		// Transcription waits on the speech provider; its deadline is the
		// provider timeout inside the service.
		r.Post("/transcribe", h.HandleTranscribe)

		// Plan generation (SSE)
		r.Post("/business/plans/{id}/generate", h.GeneratePlan)
	})
}
