// Package guard enforces the active-company invariant on every write to a
// company-owned resource.
package guard

import (
	"github.com/tendant/dealer-crm/pkg/domain"
)

// RequireActive returns nil if the company may write resources, and a
// *domain.CompanyNotActiveError carrying the current status otherwise.
// Side-effect free and idempotent.
func RequireActive(company *domain.Company) error {
	if company.IsActive() {
		return nil
	}
	return &domain.CompanyNotActiveError{
		CompanyID: company.ID,
		Status:    company.Status,
	}
}
