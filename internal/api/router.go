package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/lumen-engine/internal/api/middleware"
)

// NewRouter assembles the control API routes.
func NewRouter(h *SchedulerHandler) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.TraceMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", h.AddTask)
		r.Get("/", h.ListTasks)
		r.Get("/{id}", h.GetTask)
		r.Post("/{id}/cancel", h.CancelTask)
	})

	r.Get("/state", h.GetState)
	r.Get("/stats", h.GetStats)
	r.Post("/processing/pause", h.PauseProcessing)
	r.Post("/processing/resume", h.ResumeProcessing)
	r.Patch("/settings", h.UpdateSettings)
	r.Delete("/queue", h.ClearQueue)

	return r
}
