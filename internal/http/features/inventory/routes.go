package inventory

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers the authenticated vehicle routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/v1/vehicles", h.Create)
	r.Get("/v1/vehicles", h.List)
	r.Get("/v1/vehicles/{vehicleID}", h.Get)
	r.Patch("/v1/vehicles/{vehicleID}", h.Update)
}
