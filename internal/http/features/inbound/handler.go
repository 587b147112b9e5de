// Package inbound implements the webhook that turns parsed inbound email
// into leads.
package inbound

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/tendant/dealer-crm/internal/httputil"
	"github.com/tendant/dealer-crm/pkg/domain"
	"github.com/tendant/dealer-crm/pkg/leads"
)

const tokenHeader = "X-Inbound-Token"

// Handler handles the inbound lead webhook.
type Handler struct {
	logger   *slog.Logger
	ingester *leads.Ingester
	token    string
}

// NewHandler creates a new inbound handler. An empty token disables the
// endpoint.
func NewHandler(logger *slog.Logger, ingester *leads.Ingester, token string) *Handler {
	return &Handler{
		logger:   logger,
		ingester: ingester,
		token:    token,
	}
}

// IngestResponse represents the webhook response.
type IngestResponse struct {
	OK      bool       `json:"ok"`
	LeadID  *uuid.UUID `json:"lead_id,omitempty"`
	Skipped bool       `json:"skipped,omitempty"`
}

// Ingest accepts one parsed inbound email and creates a lead from it.
// POST /v1/inbound/leads
//
// Authenticated by a shared secret in the X-Inbound-Token header. Replays of
// an already-processed message ID succeed without creating anything.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	if h.token == "" {
		httputil.Error(w, http.StatusUnauthorized, "inbound ingestion not configured")
		return
	}
	got := r.Header.Get(tokenHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
		httputil.Error(w, http.StatusUnauthorized, "invalid inbound token")
		return
	}

	var req leads.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.ingester.Ingest(r.Context(), &req)
	if err != nil {
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
		h.logger.Error("inbound ingestion failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "inbound ingestion failed")
		return
	}

	h.logger.Info("inbound lead processed",
		"summary", result.ImportSummary(),
		"message_id", req.Mail.MessageID,
		"company_slug", req.CompanySlug,
	)

	if result.Skipped {
		httputil.JSON(w, http.StatusOK, IngestResponse{OK: true, Skipped: true})
		return
	}
	httputil.JSON(w, http.StatusCreated, IngestResponse{OK: true, LeadID: &result.LeadID})
}
