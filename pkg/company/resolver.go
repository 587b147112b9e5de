package company

import (
	"context"

	"github.com/google/uuid"
	"github.com/tendant/dealer-crm/pkg/domain"
)

// ResolveMembership maps a user to their single membership and its company.
// Returns domain.ErrMembershipNotFound if the user has no membership, and
// domain.ErrMembershipConflict if the "1 user = 1 company" rule has somehow
// been violated - a fixable inconsistency that should surface, not be
// papered over by picking the first row.
func (s *Service) ResolveMembership(ctx context.Context, userID uuid.UUID) (*domain.Membership, *domain.Company, error) {
	memberships, err := s.memberships.ListByUserID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	switch len(memberships) {
	case 0:
		return nil, nil, domain.ErrMembershipNotFound
	case 1:
	default:
		return nil, nil, domain.ErrMembershipConflict
	}

	membership := memberships[0]
	company, err := s.companies.GetByID(ctx, membership.CompanyID)
	if err != nil {
		return nil, nil, err
	}
	return membership, company, nil
}

// ResolveCompany returns the company the user belongs to.
func (s *Service) ResolveCompany(ctx context.Context, userID uuid.UUID) (*domain.Company, error) {
	_, company, err := s.ResolveMembership(ctx, userID)
	return company, err
}
