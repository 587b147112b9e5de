package leads

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers the authenticated lead routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/v1/leads", h.Create)
	r.Get("/v1/leads", h.List)
	r.Get("/v1/leads/{leadID}", h.Get)
	r.Patch("/v1/leads/{leadID}", h.Update)
	r.Get("/v1/leads/{leadID}/activities", h.Activities)
	r.Post("/v1/leads/{leadID}/activities", h.AddNote)
}

// RegisterAdminRoutes registers the staff-only lead routes.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/v1/admin/leads/bulk-stage", h.BulkStage)
}
