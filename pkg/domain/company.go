package domain

import (
	"time"

	"github.com/google/uuid"
)

// CompanyStatus represents the approval state of a company.
type CompanyStatus string

const (
	CompanyStatusPending   CompanyStatus = "pending"
	CompanyStatusActive    CompanyStatus = "active"
	CompanyStatusRejected  CompanyStatus = "rejected"
	CompanyStatusSuspended CompanyStatus = "suspended"
)

// Company is a dealership tenant. Every vehicle and lead in the system hangs
// off exactly one company.
type Company struct {
	ID              uuid.UUID
	Name            string
	Slug            string
	Status          CompanyStatus
	CreatedBy       *uuid.UUID
	ApprovedBy      *uuid.UUID
	ApprovedAt      *time.Time
	RejectionReason string
	CreatedAt       time.Time
}

// IsActive reports whether the company may write tenant-owned resources.
func (c *Company) IsActive() bool {
	return c.Status == CompanyStatusActive
}

// Approve activates the company, recording who approved it and when.
// Callable from any state; re-approving a suspended company reinstates it.
// An earlier rejection reason is kept for the audit trail.
func (c *Company) Approve(by uuid.UUID) {
	now := time.Now()
	c.Status = CompanyStatusActive
	c.ApprovedBy = &by
	c.ApprovedAt = &now
}

// Reject marks the application as rejected with an optional reason.
// ApprovedBy and ApprovedAt record who decided and when, not approval.
func (c *Company) Reject(by uuid.UUID, reason string) {
	now := time.Now()
	c.Status = CompanyStatusRejected
	c.ApprovedBy = &by
	c.ApprovedAt = &now
	c.RejectionReason = reason
}

// Suspend takes an active company out of service.
func (c *Company) Suspend() {
	c.Status = CompanyStatusSuspended
}
