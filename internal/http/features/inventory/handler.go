// Package inventory implements the company-scoped vehicle endpoints.
package inventory

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tendant/dealer-crm/internal/http/middleware"
	"github.com/tendant/dealer-crm/internal/httputil"
	"github.com/tendant/dealer-crm/pkg/company"
	"github.com/tendant/dealer-crm/pkg/domain"
	"github.com/tendant/dealer-crm/pkg/inventory"
)

// Handler handles vehicle endpoints.
type Handler struct {
	logger           *slog.Logger
	inventoryService *inventory.Service
	companyService   *company.Service
}

// NewHandler creates a new inventory handler.
func NewHandler(logger *slog.Logger, inventoryService *inventory.Service, companyService *company.Service) *Handler {
	return &Handler{
		logger:           logger,
		inventoryService: inventoryService,
		companyService:   companyService,
	}
}

// CreateRequest represents a vehicle creation request.
type CreateRequest struct {
	Make         string          `json:"make"`
	Model        string          `json:"model"`
	Year         int             `json:"year"`
	MileageKM    int             `json:"mileage_km"`
	Fuel         string          `json:"fuel"`
	Transmission string          `json:"transmission"`
	PriceEUR     decimal.Decimal `json:"price_eur"`
	Status       string          `json:"status"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
}

// UpdateRequest represents a partial vehicle update.
type UpdateRequest struct {
	Make         *string          `json:"make,omitempty"`
	Model        *string          `json:"model,omitempty"`
	Year         *int             `json:"year,omitempty"`
	MileageKM    *int             `json:"mileage_km,omitempty"`
	Fuel         *string          `json:"fuel,omitempty"`
	Transmission *string          `json:"transmission,omitempty"`
	PriceEUR     *decimal.Decimal `json:"price_eur,omitempty"`
	Status       *string          `json:"status,omitempty"`
	Title        *string          `json:"title,omitempty"`
	Description  *string          `json:"description,omitempty"`
}

// VehicleResponse represents a vehicle in API responses.
type VehicleResponse struct {
	ID           uuid.UUID       `json:"id"`
	CompanyID    uuid.UUID       `json:"company_id"`
	Make         string          `json:"make"`
	Model        string          `json:"model"`
	Year         int             `json:"year"`
	MileageKM    int             `json:"mileage_km"`
	Fuel         string          `json:"fuel,omitempty"`
	Transmission string          `json:"transmission,omitempty"`
	PriceEUR     decimal.Decimal `json:"price_eur"`
	Status       string          `json:"status"`
	Title        string          `json:"title,omitempty"`
	Description  string          `json:"description,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toVehicleResponse(v *domain.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:           v.ID,
		CompanyID:    v.CompanyID,
		Make:         v.Make,
		Model:        v.Model,
		Year:         v.Year,
		MileageKM:    v.MileageKM,
		Fuel:         v.Fuel,
		Transmission: v.Transmission,
		PriceEUR:     v.PriceEUR,
		Status:       string(v.Status),
		Title:        v.Title,
		Description:  v.Description,
		CreatedAt:    v.CreatedAt,
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

// Create adds a vehicle to the current company's inventory.
// POST /v1/vehicles
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

	vehicle := &domain.Vehicle{
		CompanyID:    c.ID,
		Make:         req.Make,
		Model:        req.Model,
		Year:         req.Year,
		MileageKM:    req.MileageKM,
		Fuel:         req.Fuel,
		Transmission: req.Transmission,
		PriceEUR:     req.PriceEUR,
		Status:       domain.VehicleStatus(req.Status),
		Title:        req.Title,
		Description:  req.Description,
	}

	if err := h.inventoryService.Create(r.Context(), vehicle, inventory.SaveOpts{}); err != nil {
		h.writeError(w, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, toVehicleResponse(vehicle))
}

// List returns the current company's vehicles, newest first.
// GET /v1/vehicles
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	c, ok := h.tenant(w, r)
	if !ok {
		return
	}

	vehicles, err := h.inventoryService.ListForCompany(r.Context(), c.ID)
	if err != nil {
		h.logger.Error("failed to list vehicles", "error", err, "company_id", c.ID)
		httputil.Error(w, http.StatusInternalServerError, "failed to list vehicles")
		return
	}

	out := make([]VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, toVehicleResponse(v))
	}
	httputil.JSON(w, http.StatusOK, out)
}

// Get returns one vehicle of the current company.
// GET /v1/vehicles/{vehicleID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.tenant(w, r)
	if !ok {
		return
	}

	vehicle, ok := h.load(w, r, c)
	if !ok {
		return
	}
	httputil.JSON(w, http.StatusOK, toVehicleResponse(vehicle))
}

// Update applies a partial update to a vehicle of the current company.
// PATCH /v1/vehicles/{vehicleID}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := h.tenant(w, r)
	if !ok {
		return
	}

	vehicle, ok := h.load(w, r, c)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Make != nil {
		vehicle.Make = *req.Make
	}
	if req.Model != nil {
		vehicle.Model = *req.Model
	}
	if req.Year != nil {
		vehicle.Year = *req.Year
	}
	if req.MileageKM != nil {
		vehicle.MileageKM = *req.MileageKM
	}
	if req.Fuel != nil {
		vehicle.Fuel = *req.Fuel
	}
	if req.Transmission != nil {
		vehicle.Transmission = *req.Transmission
	}
	if req.PriceEUR != nil {
		vehicle.PriceEUR = *req.PriceEUR
	}
	if req.Status != nil {
		vehicle.Status = domain.VehicleStatus(*req.Status)
	}
	if req.Title != nil {
		vehicle.Title = *req.Title
	}
	if req.Description != nil {
		vehicle.Description = *req.Description
	}

	if err := h.inventoryService.Update(r.Context(), vehicle, inventory.SaveOpts{}); err != nil {
		h.writeError(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, toVehicleResponse(vehicle))
}

// load fetches the vehicle from the URL and checks it belongs to c.
// A vehicle of another company is indistinguishable from a missing one.
func (h *Handler) load(w http.ResponseWriter, r *http.Request, c *domain.Company) (*domain.Vehicle, bool) {
	vehicleID, err := uuid.Parse(chi.URLParam(r, "vehicleID"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid vehicle id")
		return nil, false
	}

	vehicle, err := h.inventoryService.Get(r.Context(), vehicleID)
	if err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			httputil.Error(w, http.StatusNotFound, "vehicle not found")
			return nil, false
		}
		h.logger.Error("failed to load vehicle", "error", err, "vehicle_id", vehicleID)
		httputil.Error(w, http.StatusInternalServerError, "failed to load vehicle")
		return nil, false
	}
	if vehicle.CompanyID != c.ID {
		httputil.Error(w, http.StatusNotFound, "vehicle not found")
		return nil, false
	}
	return vehicle, true
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
	h.logger.Error("vehicle write failed", "error", err)
	httputil.Error(w, http.StatusInternalServerError, "vehicle write failed")
}
