// Package leads implements the lead pipeline endpoints.
package leads

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
	"github.com/tendant/dealer-crm/pkg/leads"
)

// Handler handles lead endpoints.
type Handler struct {
	logger         *slog.Logger
	leadsService   *leads.Service
	companyService *company.Service
	users          auth.UserStore
}

// NewHandler creates a new leads handler.
func NewHandler(logger *slog.Logger, leadsService *leads.Service, companyService *company.Service, users auth.UserStore) *Handler {
	return &Handler{
		logger:         logger,
		leadsService:   leadsService,
		companyService: companyService,
		users:          users,
	}
}

// CreateRequest represents a lead creation request.
type CreateRequest struct {
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	Email     string     `json:"email"`
	Source    string     `json:"source"`
	Stage     string     `json:"stage"`
	VehicleID *uuid.UUID `json:"vehicle_id"`
}

// UpdateRequest represents a partial lead update.
type UpdateRequest struct {
	Name      *string    `json:"name,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	Email     *string    `json:"email,omitempty"`
	Source    *string    `json:"source,omitempty"`
	Stage     *string    `json:"stage,omitempty"`
	VehicleID *uuid.UUID `json:"vehicle_id,omitempty"`
}

// NoteRequest represents a manual activity creation request.
type NoteRequest struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// BulkStageRequest represents a staff bulk stage change.
type BulkStageRequest struct {
	LeadIDs []uuid.UUID `json:"lead_ids"`
	Stage   string      `json:"stage"`
	Note    string      `json:"note"`
}

// LeadResponse represents a lead in API responses.
type LeadResponse struct {
	ID        uuid.UUID  `json:"id"`
	CompanyID uuid.UUID  `json:"company_id"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone,omitempty"`
	Email     string     `json:"email,omitempty"`
	Source    string     `json:"source"`
	Stage     string     `json:"stage"`
	VehicleID *uuid.UUID `json:"vehicle_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ActivityResponse represents an activity in API responses.
type ActivityResponse struct {
	ID        uuid.UUID `json:"id"`
	LeadID    uuid.UUID `json:"lead_id"`
	Type      string    `json:"type"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func toLeadResponse(l *domain.Lead) LeadResponse {
	return LeadResponse{
		ID:        l.ID,
		CompanyID: l.CompanyID,
		Name:      l.Name,
		Phone:     l.Phone,
		Email:     l.Email,
		Source:    string(l.Source),
		Stage:     string(l.Stage),
		VehicleID: l.VehicleID,
		CreatedAt: l.CreatedAt,
	}
}

func toActivityResponse(a *domain.Activity) ActivityResponse {
	return ActivityResponse{
		ID:        a.ID,
		LeadID:    a.LeadID,
		Type:      string(a.Type),
		Text:      a.Text,
		CreatedAt: a.CreatedAt,
	}
}

// tenant resolves the company of the current user.
func (h *Handler) tenant(w http.ResponseWriter, r *http.Request) (*domain.Company, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	c, err := h.companyService.ResolveCompany(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrMembershipNotFound) {
			httputil.Error(w, http.StatusForbidden, "no company membership")
			return nil, false
		}
		if errors.Is(err, domain.ErrMembershipConflict) {
			httputil.Error(w, http.StatusConflict, "multiple company memberships found")
			return nil, false
		}
		h.logger.Error("failed to resolve company", "error", err, "user_id", userID)
		httputil.Error(w, http.StatusInternalServerError, "failed to resolve company")
		return nil, false
	}
	return c, true
}

// Create adds a lead to the current company's pipeline.
// POST /v1/leads
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	c, ok := h.tenant(w, r)
	if !ok {
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lead := &domain.Lead{
		CompanyID: c.ID,
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		Source:    domain.LeadSource(req.Source),
		Stage:     domain.LeadStage(req.Stage),
		VehicleID: req.VehicleID,
	}

	if err := h.leadsService.Create(r.Context(), lead, leads.SaveOpts{}); err != nil {
		h.writeError(w, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, toLeadResponse(lead))
}

// List returns the current company's leads, newest first.
// GET /v1/leads
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	c, ok := h.tenant(w, r)
	if !ok {
		return
	}

	list, err := h.leadsService.ListForCompany(r.Context(), c.ID)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err, "company_id", c.ID)
		httputil.Error(w, http.StatusInternalServerError, "failed to list leads")
		return
	}

	out := make([]LeadResponse, 0, len(list))
	for _, l := range list {
		out = append(out, toLeadResponse(l))
	}
	httputil.JSON(w, http.StatusOK, out)
}

// Get returns one lead of the current company.
// GET /v1/leads/{leadID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.tenant(w, r)
	if !ok {
		return
	}

	lead, ok := h.load(w, r, c)
	if !ok {
		return
	}
	httputil.JSON(w, http.StatusOK, toLeadResponse(lead))
}

// Update applies a partial update to a lead of the current company. A stage
// change leaves exactly one audit note behind.
// PATCH /v1/leads/{leadID}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := h.tenant(w, r)
	if !ok {
		return
	}

	lead, ok := h.load(w, r, c)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil {
		lead.Name = *req.Name
	}
	if req.Phone != nil {
		lead.Phone = *req.Phone
	}
	if req.Email != nil {
		lead.Email = *req.Email
	}
	if req.Source != nil {
		lead.Source = domain.LeadSource(*req.Source)
	}
	if req.Stage != nil {
		lead.Stage = domain.LeadStage(*req.Stage)
	}
	if req.VehicleID != nil {
		lead.VehicleID = req.VehicleID
	}

	if err := h.leadsService.Update(r.Context(), lead, leads.SaveOpts{}); err != nil {
		h.writeError(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, toLeadResponse(lead))
}

// Activities returns the audit trail of a lead, oldest first.
// GET /v1/leads/{leadID}/activities
func (h *Handler) Activities(w http.ResponseWriter, r *http.Request) {
	c, ok := h.tenant(w, r)
	if !ok {
		return
	}

	lead, ok := h.load(w, r, c)
	if !ok {
		return
	}

	activities, err := h.leadsService.Activities(r.Context(), lead.ID)
	if err != nil {
		h.logger.Error("failed to list activities", "error", err, "lead_id", lead.ID)
		httputil.Error(w, http.StatusInternalServerError, "failed to list activities")
		return
	}

	out := make([]ActivityResponse, 0, len(activities))
	for _, a := range activities {
		out = append(out, toActivityResponse(a))
	}
	httputil.JSON(w, http.StatusOK, out)
}

// AddNote appends a manual activity to a lead.
// POST /v1/leads/{leadID}/activities
func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	c, ok := h.tenant(w, r)
	if !ok {
		return
	}

	lead, ok := h.load(w, r, c)
	if !ok {
		return
	}

	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	activity, err := h.leadsService.AddNote(r.Context(), lead.ID, domain.ActivityType(req.Type), req.Text)
	if err != nil {
		h.writeError(w, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, toActivityResponse(activity))
}

// BulkStage moves a set of leads to a stage in one sweep. Staff only.
// POST /v1/admin/leads/bulk-stage
func (h *Handler) BulkStage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req BulkStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.LeadIDs) == 0 {
		httputil.Error(w, http.StatusBadRequest, "lead_ids is required")
		return
	}

	updated, err := h.leadsService.BulkSetStage(r.Context(), user, req.LeadIDs, domain.LeadStage(req.Stage), req.Note)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			httputil.Error(w, http.StatusForbidden, err.Error())
		case errors.Is(err, domain.ErrLeadNotFound):
			httputil.Error(w, http.StatusNotFound, "lead not found")
		default:
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				httputil.Error(w, http.StatusBadRequest, verr.Message)
				return
			}
			h.logger.Error("bulk stage change failed", "error", err)
			httputil.Error(w, http.StatusInternalServerError, "bulk stage change failed")
		}
		return
	}

	h.logger.Info("bulk stage change", "updated", updated, "stage", req.Stage, "by", user.ID)
	httputil.JSON(w, http.StatusOK, map[string]int{"updated": updated})
}

// load fetches the lead from the URL and checks it belongs to c.
// A lead of another company is indistinguishable from a missing one.
func (h *Handler) load(w http.ResponseWriter, r *http.Request, c *domain.Company) (*domain.Lead, bool) {
	leadID, err := uuid.Parse(chi.URLParam(r, "leadID"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid lead id")
		return nil, false
	}

	lead, err := h.leadsService.Get(r.Context(), leadID)
	if err != nil {
		if errors.Is(err, domain.ErrLeadNotFound) {
			httputil.Error(w, http.StatusNotFound, "lead not found")
			return nil, false
		}
		h.logger.Error("failed to load lead", "error", err, "lead_id", leadID)
		httputil.Error(w, http.StatusInternalServerError, "failed to load lead")
		return nil, false
	}
	if lead.CompanyID != c.ID {
		httputil.Error(w, http.StatusNotFound, "lead not found")
		return nil, false
	}
	return lead, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		httputil.Error(w, http.StatusBadRequest, verr.Message)
		return
	}
	var nerr *domain.CompanyNotActiveError
	if errors.As(err, &nerr) {
		httputil.Error(w, http.StatusForbidden, nerr.Error())
		return
	}
	h.logger.Error("lead write failed", "error", err)
	httputil.Error(w, http.StatusInternalServerError, "lead write failed")
}
