// Package companies implements company self-service and the staff approval
// endpoints.
package companies

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/dealer-crm/internal/http/middleware"
	"github.com/tendant/dealer-crm/internal/httputil"
	"github.com/tendant/dealer-crm/pkg/auth"
	"github.com/tendant/dealer-crm/pkg/company"
	"github.com/tendant/dealer-crm/pkg/domain"
)

// Handler handles company endpoints.
type Handler struct {
	logger         *slog.Logger
	companyService *company.Service
	users          auth.UserStore
}

// NewHandler creates a new companies handler.
func NewHandler(logger *slog.Logger, companyService *company.Service, users auth.UserStore) *Handler {
	return &Handler{
		logger:         logger,
		companyService: companyService,
		users:          users,
	}
}

// CreateRequest represents a company creation request.
type CreateRequest struct {
	Name string `json:"name"`
}

// RejectRequest represents a company rejection request.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// CompanyResponse represents a company in API responses.
type CompanyResponse struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Slug            string     `json:"slug"`
	Status          string     `json:"status"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toCompanyResponse(c *domain.Company) CompanyResponse {
	return CompanyResponse{
		ID:              c.ID,
		Name:            c.Name,
		Slug:            c.Slug,
		Status:          string(c.Status),
		RejectionReason: c.RejectionReason,
		ApprovedAt:      c.ApprovedAt,
		CreatedAt:       c.CreatedAt,
	}
}

// caller loads the authenticated user behind the request.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			httputil.Error(w, http.StatusUnauthorized, "unauthorized")
			return nil, false
		}
		h.logger.Error("failed to load user", "error", err, "user_id", userID)
		httputil.Error(w, http.StatusInternalServerError, "failed to load user")
		return nil, false
	}
	return user, true
}

// Create registers a new company owned by the current user.
// POST /v1/companies
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.companyService.CreateForUser(r.Context(), user, req.Name)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			httputil.Error(w, http.StatusBadRequest, verr.Message)
			return
		}
		var derr *domain.DuplicateOwnershipError
		if errors.As(err, &derr) {
			httputil.Error(w, http.StatusBadRequest, derr.Error())
			return
		}
		h.logger.Error("failed to create company", "error", err, "user_id", user.ID)
		httputil.Error(w, http.StatusInternalServerError, "failed to create company")
		return
	}

	h.logger.Info("company created", "company_id", created.ID, "slug", created.Slug, "user_id", user.ID)
	httputil.JSON(w, http.StatusCreated, toCompanyResponse(created))
}

// StatusResponse is a company plus the caller's role in it.
type StatusResponse struct {
	CompanyResponse
	Role string `json:"role"`
}

// Status returns the company the current user belongs to and their role.
// GET /v1/companies/status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	m, c, err := h.companyService.ResolveMembership(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrMembershipNotFound) {
			httputil.Error(w, http.StatusNotFound, "no company membership")
			return
		}
		if errors.Is(err, domain.ErrMembershipConflict) {
			h.logger.Error("membership conflict", "user_id", userID)
			httputil.Error(w, http.StatusConflict, "multiple company memberships found")
			return
		}
		h.logger.Error("failed to resolve company", "error", err, "user_id", userID)
		httputil.Error(w, http.StatusInternalServerError, "failed to resolve company")
		return
	}

	httputil.JSON(w, http.StatusOK, StatusResponse{
		CompanyResponse: toCompanyResponse(c),
		Role:            string(m.Role),
	})
}

// List returns every company. Staff only.
// GET /v1/admin/companies
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	list, err := h.companyService.List(r.Context(), user)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			httputil.Error(w, http.StatusForbidden, err.Error())
			return
		}
		h.logger.Error("failed to list companies", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to list companies")
		return
	}

	out := make([]CompanyResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toCompanyResponse(c))
	}
	httputil.JSON(w, http.StatusOK, out)
}

// Approve activates a company. Staff only.
// POST /v1/admin/companies/{companyID}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(user *domain.User, id uuid.UUID) (*domain.Company, error) {
		return h.companyService.Approve(r.Context(), id, user)
	})
}

// Reject marks a company application as rejected. Staff only.
// POST /v1/admin/companies/{companyID}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	var req RejectRequest
	if r.Body != nil {
		// Reason is optional; an empty body is fine.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	h.transition(w, r, func(user *domain.User, id uuid.UUID) (*domain.Company, error) {
		return h.companyService.Reject(r.Context(), id, user, req.Reason)
	})
}

// Suspend suspends a company. Staff only.
// POST /v1/admin/companies/{companyID}/suspend
func (h *Handler) Suspend(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(user *domain.User, id uuid.UUID) (*domain.Company, error) {
		return h.companyService.Suspend(r.Context(), id, user)
	})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(*domain.User, uuid.UUID) (*domain.Company, error)) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	companyID, err := uuid.Parse(chi.URLParam(r, "companyID"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid company id")
		return
	}

	c, err := fn(user, companyID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			httputil.Error(w, http.StatusForbidden, err.Error())
		case errors.Is(err, domain.ErrCompanyNotFound):
			httputil.Error(w, http.StatusNotFound, "company not found")
		default:
			h.logger.Error("company transition failed", "error", err, "company_id", companyID)
			httputil.Error(w, http.StatusInternalServerError, "company transition failed")
		}
		return
	}

	h.logger.Info("company status changed", "company_id", c.ID, "status", c.Status, "by", user.ID)
	httputil.JSON(w, http.StatusOK, toCompanyResponse(c))
}
