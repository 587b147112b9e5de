// Package leads implements the lead pipeline: company-scoped CRUD, the
// stage-change audit trail, and inbound ingestion.
package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/dealer-crm/pkg/domain"
	"github.com/tendant/dealer-crm/pkg/guard"
)

// LeadStore is the persistence surface the service needs for leads.
type LeadStore interface {
	Create(ctx context.Context, lead *domain.Lead) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error)
	GetStage(ctx context.Context, id uuid.UUID) (domain.LeadStage, error)
	CreateWithActivity(ctx context.Context, lead *domain.Lead, activity *domain.Activity) error
	UpdateWithActivity(ctx context.Context, lead *domain.Lead, activity *domain.Activity) error
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*domain.Lead, error)
}

// ActivityStore is the persistence surface the service needs for
// activities.
type ActivityStore interface {
	Create(ctx context.Context, activity *domain.Activity) error
	ListByLead(ctx context.Context, leadID uuid.UUID) ([]*domain.Activity, error)
	ExistsByTextMarker(ctx context.Context, marker string) (bool, error)
}

// SaveOpts holds per-save options.
type SaveOpts struct {
	// Bypass skips the active-company check. Reserved for privileged or
	// system writes.
	Bypass bool
}

// Service manages leads and their audit trail.
type Service struct {
	leads      LeadStore
	activities ActivityStore
	vehicles   VehicleLookup
	guard      *guard.Guard
}

// NewService creates a new leads service.
func NewService(leads LeadStore, activities ActivityStore, vehicles VehicleLookup, g *guard.Guard) *Service {
	return &Service{leads: leads, activities: activities, vehicles: vehicles, guard: g}
}

// checkVehicle rejects a vehicle reference that does not exist or belongs
// to another company. A foreign vehicle is indistinguishable from a
// missing one.
func (s *Service) checkVehicle(ctx context.Context, lead *domain.Lead) error {
	if lead.VehicleID == nil {
		return nil
	}
	vehicle, err := s.vehicles.GetByID(ctx, *lead.VehicleID)
	if err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			return domain.NewValidationError("vehicle not found: %s", lead.VehicleID)
		}
		return err
	}
	if vehicle.CompanyID != lead.CompanyID {
		return domain.NewValidationError("vehicle not found: %s", lead.VehicleID)
	}
	return nil
}

// Create persists a new lead after the guard admits the write. Creations
// never emit a stage-change activity.
func (s *Service) Create(ctx context.Context, lead *domain.Lead, opts SaveOpts) error {
	if lead.Name == "" {
		return domain.NewValidationError("lead name is required")
	}
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	if lead.Source == "" {
		lead.Source = domain.LeadSourceWeb
	}
	if lead.Stage == "" {
		lead.Stage = domain.LeadStageNew
	}
	if !lead.Stage.Valid() {
		return domain.NewValidationError("unknown lead stage: %s", lead.Stage)
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now()
	}
	if err := s.checkVehicle(ctx, lead); err != nil {
		return err
	}
	if err := s.guard.Check(ctx, lead, opts.Bypass); err != nil {
		return err
	}
	return s.leads.Create(ctx, lead)
}

// Update persists changes to a lead after the guard admits the write. When
// the incoming stage differs from the previously committed one, exactly one
// NOTE activity recording the change is appended in the same transaction as
// the update. An unchanged stage emits nothing.
func (s *Service) Update(ctx context.Context, lead *domain.Lead, opts SaveOpts) error {
	if !lead.Stage.Valid() {
		return domain.NewValidationError("unknown lead stage: %s", lead.Stage)
	}
	if err := s.checkVehicle(ctx, lead); err != nil {
		return err
	}
	if err := s.guard.Check(ctx, lead, opts.Bypass); err != nil {
		return err
	}

	oldStage, err := s.leads.GetStage(ctx, lead.ID)
	if err != nil {
		return err
	}

	var activity *domain.Activity
	if oldStage != lead.Stage {
		activity = s.stageChangeActivity(lead.ID, oldStage, lead.Stage)
	}
	return s.leads.UpdateWithActivity(ctx, lead, activity)
}

func (s *Service) stageChangeActivity(leadID uuid.UUID, from, to domain.LeadStage) *domain.Activity {
	return &domain.Activity{
		ID:        uuid.New(),
		LeadID:    leadID,
		Type:      domain.ActivityTypeNote,
		Text:      fmt.Sprintf("Stage changed from %s to %s.", from.Label(), to.Label()),
		CreatedAt: time.Now(),
	}
}

// Get retrieves a lead by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	return s.leads.GetByID(ctx, id)
}

// ListForCompany retrieves the leads owned by a company.
func (s *Service) ListForCompany(ctx context.Context, companyID uuid.UUID) ([]*domain.Lead, error) {
	return s.leads.ListByCompany(ctx, companyID)
}

// AddNote appends a manual activity to a lead.
func (s *Service) AddNote(ctx context.Context, leadID uuid.UUID, typ domain.ActivityType, text string) (*domain.Activity, error) {
	if text == "" {
		return nil, domain.NewValidationError("activity text is required")
	}
	if typ == "" {
		typ = domain.ActivityTypeNote
	}
	activity := &domain.Activity{
		ID:        uuid.New(),
		LeadID:    leadID,
		Type:      typ,
		Text:      text,
		CreatedAt: time.Now(),
	}
	if err := s.activities.Create(ctx, activity); err != nil {
		return nil, err
	}
	return activity, nil
}

// Activities retrieves the audit trail of a lead.
func (s *Service) Activities(ctx context.Context, leadID uuid.UUID) ([]*domain.Activity, error) {
	return s.activities.ListByLead(ctx, leadID)
}

// BulkSetStage moves a set of leads to a stage in one administrative sweep.
// Staff only. The automatic stage-change diff does not fire here; instead
// every touched lead gets one operation-specific activity so the bulk
// action still leaves a trail.
func (s *Service) BulkSetStage(ctx context.Context, by *domain.User, leadIDs []uuid.UUID, stage domain.LeadStage, note string) (int, error) {
	if !by.IsStaff {
		return 0, domain.ErrUnauthorized
	}
	if !stage.Valid() {
		return 0, domain.NewValidationError("unknown lead stage: %s", stage)
	}

	updated := 0
	for _, id := range leadIDs {
		lead, err := s.leads.GetByID(ctx, id)
		if err != nil {
			return updated, err
		}
		lead.Stage = stage

		text := fmt.Sprintf("Bulk operation: stage set to %s.", stage.Label())
		if note != "" {
			text = fmt.Sprintf("%s %s", text, note)
		}
		activity := &domain.Activity{
			ID:        uuid.New(),
			LeadID:    lead.ID,
			Type:      domain.ActivityTypeNote,
			Text:      text,
			CreatedAt: time.Now(),
		}
		if err := s.leads.UpdateWithActivity(ctx, lead, activity); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}
