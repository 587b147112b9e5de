// Package company implements the tenant lifecycle: provisioning, the
// membership resolver, and the staff-gated approval transitions.
package company

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/dealer-crm/pkg/domain"
	"github.com/tendant/dealer-crm/pkg/repository"
)

// maxProvisionAttempts bounds the retries when a concurrent registration
// races us to the same slug.
const maxProvisionAttempts = 3

// CompanyStore is the persistence surface the service needs for companies.
type CompanyStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Company, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	CreateWithOwner(ctx context.Context, company *domain.Company, owner *domain.Membership) error
	UpdateStatus(ctx context.Context, company *domain.Company) error
	List(ctx context.Context) ([]*domain.Company, error)
}

// MembershipStore is the persistence surface the service needs for
// memberships.
type MembershipStore interface {
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Membership, error)
	GetOwnerByUserID(ctx context.Context, userID uuid.UUID) (*domain.Membership, *domain.Company, error)
}

// Service is the only path that creates companies, and the entry point for
// the administrative lifecycle transitions.
type Service struct {
	companies   CompanyStore
	memberships MembershipStore
}

// NewService creates a new company service.
func NewService(companies CompanyStore, memberships MembershipStore) *Service {
	return &Service{companies: companies, memberships: memberships}
}

// CreateForUser creates a new pending company owned by user. The company
// and its OWNER membership are written as one atomic unit; no partial pair
// is ever observable.
func (s *Service) CreateForUser(ctx context.Context, user *domain.User, name string) (*domain.Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("company name is required")
	}

	// One user owns at most one company.
	_, owned, err := s.memberships.GetOwnerByUserID(ctx, user.ID)
	if err == nil {
		return nil, &domain.DuplicateOwnershipError{CompanyID: owned.ID, CompanyName: owned.Name}
	}
	if !errors.Is(err, domain.ErrMembershipNotFound) {
		return nil, err
	}

	base := Slugify(name)
	for attempt := 0; attempt < maxProvisionAttempts; attempt++ {
		slug, err := s.nextFreeSlug(ctx, base)
		if err != nil {
			return nil, err
		}

		now := time.Now()
		company := &domain.Company{
			ID:        uuid.New(),
			Name:      name,
			Slug:      slug,
			Status:    domain.CompanyStatusPending,
			CreatedBy: &user.ID,
			CreatedAt: now,
		}
		owner := &domain.Membership{
			ID:        uuid.New(),
			UserID:    user.ID,
			CompanyID: company.ID,
			Role:      domain.RoleOwner,
			CreatedAt: now,
		}

		err = s.companies.CreateWithOwner(ctx, company, owner)
		if repository.IsUniqueViolation(err, "companies_slug_key") {
			// Raced a concurrent registration to the same slug; rescan
			// for the next free suffix.
			continue
		}
		if err != nil {
			return nil, err
		}
		return company, nil
	}
	return nil, fmt.Errorf("could not allocate a unique slug for %q", name)
}

// nextFreeSlug finds the first free slug for base, trying base, base-1,
// base-2, ... in order. Deterministic for a given set of existing slugs.
func (s *Service) nextFreeSlug(ctx context.Context, base string) (string, error) {
	slug := base
	for counter := 1; ; counter++ {
		exists, err := s.companies.SlugExists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
}

// Approve activates a company. Staff only.
func (s *Service) Approve(ctx context.Context, companyID uuid.UUID, by *domain.User) (*domain.Company, error) {
	if !by.IsStaff {
		return nil, domain.ErrUnauthorized
	}
	company, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	company.Approve(by.ID)
	if err := s.companies.UpdateStatus(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

// Reject marks a company application as rejected. Staff only.
func (s *Service) Reject(ctx context.Context, companyID uuid.UUID, by *domain.User, reason string) (*domain.Company, error) {
	if !by.IsStaff {
		return nil, domain.ErrUnauthorized
	}
	company, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	company.Reject(by.ID, reason)
	if err := s.companies.UpdateStatus(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

// Suspend suspends a company. Staff only.
func (s *Service) Suspend(ctx context.Context, companyID uuid.UUID, by *domain.User) (*domain.Company, error) {
	if !by.IsStaff {
		return nil, domain.ErrUnauthorized
	}
	company, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	company.Suspend()
	if err := s.companies.UpdateStatus(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

// List retrieves every company. Staff only.
func (s *Service) List(ctx context.Context, by *domain.User) ([]*domain.Company, error) {
	if !by.IsStaff {
		return nil, domain.ErrUnauthorized
	}
	return s.companies.List(ctx)
}
