package domain

import (
	"time"

	"github.com/google/uuid"
)

// MembershipRole represents a user's role within a company.
type MembershipRole string

const (
	RoleOwner MembershipRole = "OWNER"
	RoleAdmin MembershipRole = "ADMIN"
	RoleSales MembershipRole = "SALES"
)

// Membership binds one user to one company with a role.
// Business rule: 1 user = 1 company. The schema enforces it with a unique
// index on user_id; the resolver fails loudly if it is ever violated.
type Membership struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CompanyID uuid.UUID
	Role      MembershipRole
	CreatedAt time.Time
}
