package companies

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers the authenticated company routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/v1/companies", h.Create)
	r.Get("/v1/companies/status", h.Status)
}

// RegisterAdminRoutes registers the staff-only company routes.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/v1/admin/companies", h.List)
	r.Post("/v1/admin/companies/{companyID}/approve", h.Approve)
	r.Post("/v1/admin/companies/{companyID}/reject", h.Reject)
	r.Post("/v1/admin/companies/{companyID}/suspend", h.Suspend)
}
