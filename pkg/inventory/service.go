// Package inventory implements company-scoped vehicle management.
package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/dealer-crm/pkg/domain"
	"github.com/tendant/dealer-crm/pkg/guard"
)

// VehicleStore is the persistence surface the service needs.
type VehicleStore interface {
	Create(ctx context.Context, vehicle *domain.Vehicle) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error)
	Update(ctx context.Context, vehicle *domain.Vehicle) error
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*domain.Vehicle, error)
}

// SaveOpts holds per-save options.
type SaveOpts struct {
	// Bypass skips the active-company check. Reserved for privileged or
	// system writes (imports, administrative corrections).
	Bypass bool
}

// Service manages vehicles. Every create and update runs through the
// company guard before anything is persisted.
type Service struct {
	vehicles VehicleStore
	guard    *guard.Guard
}

// NewService creates a new inventory service.
func NewService(vehicles VehicleStore, g *guard.Guard) *Service {
	return &Service{vehicles: vehicles, guard: g}
}

// Create persists a new vehicle after the guard admits the write.
func (s *Service) Create(ctx context.Context, vehicle *domain.Vehicle, opts SaveOpts) error {
	if vehicle.Make == "" || vehicle.Model == "" {
		return domain.NewValidationError("vehicle make and model are required")
	}
	if vehicle.ID == uuid.Nil {
		vehicle.ID = uuid.New()
	}
	if vehicle.Status == "" {
		vehicle.Status = domain.VehicleStatusAvailable
	}
	if vehicle.CreatedAt.IsZero() {
		vehicle.CreatedAt = time.Now()
	}
	if err := s.guard.Check(ctx, vehicle, opts.Bypass); err != nil {
		return err
	}
	return s.vehicles.Create(ctx, vehicle)
}

// Update persists changes to a vehicle after the guard admits the write.
func (s *Service) Update(ctx context.Context, vehicle *domain.Vehicle, opts SaveOpts) error {
	if err := s.guard.Check(ctx, vehicle, opts.Bypass); err != nil {
		return err
	}
	return s.vehicles.Update(ctx, vehicle)
}

// Get retrieves a vehicle by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	return s.vehicles.GetByID(ctx, id)
}

// ListForCompany retrieves the vehicles owned by a company.
func (s *Service) ListForCompany(ctx context.Context, companyID uuid.UUID) ([]*domain.Vehicle, error) {
	return s.vehicles.ListByCompany(ctx, companyID)
}
