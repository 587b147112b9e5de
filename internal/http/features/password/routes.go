package password

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers password authentication routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/v1/auth/register", h.Register)
	r.Post("/v1/auth/login", h.Login)
}
