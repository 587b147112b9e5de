package inbound

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers the inbound webhook route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/v1/inbound/leads", h.Ingest)
}
