package leads

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/tendant/dealer-crm/pkg/domain"
)

const (
	// dedupeMarkerPrefix tags the inbound message ID inside the import
	// activity text. Replays are detected by searching for it.
	dedupeMarkerPrefix = "mail_message_id="

	maxRawTextLen = 4000
)

var (
	phonePattern = regexp.MustCompile(`(\+?\d[\d\s\-().]{6,}\d)`)
	emailPattern = regexp.MustCompile(`(?i)([A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,})`)
)

// CompanyLookup resolves a company by slug for ingestion.
type CompanyLookup interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Company, error)
}

// VehicleLookup resolves a vehicle referenced by an inbound payload.
type VehicleLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error)
}

// MailMeta carries the inbound message metadata recorded in the import
// activity. MessageID doubles as the idempotency key.
type MailMeta struct {
	MessageID string `json:"messageId"`
	ThreadID  string `json:"threadId"`
	From      string `json:"from"`
	Subject   string `json:"subject"`
	Date      string `json:"date"`
}

// IngestRequest is the payload of the inbound lead webhook.
type IngestRequest struct {
	CompanySlug string     `json:"company_slug"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	RawText     string     `json:"raw_text"`
	VehicleID   *uuid.UUID `json:"vehicle_id"`
	VehicleText string     `json:"vehicle_text"`
	Mail        MailMeta   `json:"mail"`
}

// IngestResult reports what an ingestion attempt did.
type IngestResult struct {
	LeadID  uuid.UUID
	Skipped bool
}

// Ingester creates leads on behalf of an external mail pipeline.
type Ingester struct {
	service   *Service
	companies CompanyLookup
	vehicles  VehicleLookup
}

// NewIngester creates a new ingester on top of the leads service.
func NewIngester(service *Service, companies CompanyLookup, vehicles VehicleLookup) *Ingester {
	return &Ingester{service: service, companies: companies, vehicles: vehicles}
}

// Ingest creates one lead plus its import activity from an inbound payload.
// A payload whose message ID was already processed is a no-op success with
// Skipped set. The lead and activity are written in one transaction.
func (i *Ingester) Ingest(ctx context.Context, req *IngestRequest) (*IngestResult, error) {
	slug := strings.TrimSpace(req.CompanySlug)
	if slug == "" {
		return nil, domain.NewValidationError("company_slug is required")
	}
	company, err := i.companies.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrCompanyNotFound) {
			return nil, domain.NewValidationError("company not found: %s", slug)
		}
		return nil, err
	}

	msgID := strings.TrimSpace(req.Mail.MessageID)
	if msgID != "" {
		seen, err := i.service.activities.ExistsByTextMarker(ctx, dedupeMarkerPrefix+msgID)
		if err != nil {
			return nil, err
		}
		if seen {
			return &IngestResult{Skipped: true}, nil
		}
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Lead (email)"
	}
	emailAddr := strings.TrimSpace(req.Email)
	phone := strings.TrimSpace(req.Phone)
	rawText := strings.TrimSpace(req.RawText)

	// The upstream script may miss contact details; fall back to scanning
	// the raw message body.
	if emailAddr == "" {
		if m := emailPattern.FindStringSubmatch(rawText); m != nil {
			emailAddr = m[1]
		}
	}
	if phone == "" {
		if m := phonePattern.FindStringSubmatch(rawText); m != nil {
			phone = strings.TrimSpace(m[1])
		}
	}

	var vehicleID *uuid.UUID
	if req.VehicleID != nil {
		// Only attach vehicles that belong to the target company.
		vehicle, err := i.vehicles.GetByID(ctx, *req.VehicleID)
		if err == nil && vehicle.CompanyID == company.ID {
			vehicleID = &vehicle.ID
		}
	}

	now := time.Now()
	lead := &domain.Lead{
		ID:        uuid.New(),
		CompanyID: company.ID,
		Name:      truncate(name, 120),
		Phone:     truncate(phone, 50),
		Email:     truncate(emailAddr, 254),
		Source:    domain.LeadSourceWeb,
		Stage:     domain.LeadStageNew,
		VehicleID: vehicleID,
		CreatedAt: now,
	}

	if err := i.service.guard.Check(ctx, lead, false); err != nil {
		return nil, err
	}

	activity := &domain.Activity{
		ID:        uuid.New(),
		LeadID:    lead.ID,
		Type:      domain.ActivityTypeNote,
		Text:      i.importActivityText(req, msgID, rawText),
		CreatedAt: now,
	}
	if err := i.service.leads.CreateWithActivity(ctx, lead, activity); err != nil {
		return nil, err
	}
	return &IngestResult{LeadID: lead.ID}, nil
}

func (i *Ingester) importActivityText(req *IngestRequest, msgID, rawText string) string {
	lines := []string{
		"Lead imported from inbound email.",
		dedupeMarkerPrefix + msgID,
		"mail_thread_id=" + strings.TrimSpace(req.Mail.ThreadID),
		"from=" + strings.TrimSpace(req.Mail.From),
		"subject=" + strings.TrimSpace(req.Mail.Subject),
		"date=" + strings.TrimSpace(req.Mail.Date),
	}

	var extra []string
	if text := strings.TrimSpace(req.VehicleText); text != "" {
		extra = append(extra, "vehicle_text="+text)
	}
	if req.VehicleID != nil {
		extra = append(extra, "vehicle_id="+req.VehicleID.String())
	}
	if len(extra) > 0 {
		lines = append(lines, strings.Join(extra, " "))
	}

	if rawText != "" {
		lines = append(lines, "", "RAW:", truncate(rawText, maxRawTextLen))
	}
	return strings.Join(lines, "\n")
}

// truncate cuts s to at most max codepoints, never splitting a rune.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// ImportSummary is a convenience for operator-facing logs.
func (r *IngestResult) ImportSummary() string {
	if r.Skipped {
		return "skipped duplicate inbound message"
	}
	return fmt.Sprintf("imported lead %s", r.LeadID)
}
