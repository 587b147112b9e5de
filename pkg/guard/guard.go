package guard

import (
	"context"

	"github.com/google/uuid"
	"github.com/tendant/dealer-crm/pkg/domain"
)

// TenantScoped is implemented by every resource owned by a company.
type TenantScoped interface {
	CompanyRef() uuid.UUID
}

// CompanyLoader loads the current state of a company.
type CompanyLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error)
}

// Guard checks, at save time, that the company owning a resource is active.
// Every direct create and update path for vehicles and leads runs through
// it. Set-based bulk statements do not; callers of those own their audit
// and enforcement obligations.
type Guard struct {
	companies CompanyLoader
}

// New creates a new guard backed by the given company loader.
func New(companies CompanyLoader) *Guard {
	return &Guard{companies: companies}
}

// Check verifies that the resource's company is active. The company is
// re-loaded fresh so a suspension that happened after the resource was read
// still blocks the write. bypass skips enforcement entirely and is reserved
// for privileged or system-originated writes (imports, admin corrections).
func (g *Guard) Check(ctx context.Context, resource TenantScoped, bypass bool) error {
	if bypass {
		return nil
	}
	companyID := resource.CompanyRef()
	if companyID == uuid.Nil {
		return nil
	}
	company, err := g.companies.GetByID(ctx, companyID)
	if err != nil {
		return err
	}
	return RequireActive(company)
}
