package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Lookup errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrCompanyNotFound    = errors.New("company not found")
	ErrMembershipNotFound = errors.New("membership not found")
	ErrVehicleNotFound    = errors.New("vehicle not found")
	ErrLeadNotFound       = errors.New("lead not found")
)

// Authentication errors
var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrSessionRevoked     = errors.New("session revoked")
	ErrInvalidToken       = errors.New("invalid token")
)

// ErrUnauthorized is returned when an administrative operation is attempted
// by a caller without staff privileges.
var ErrUnauthorized = errors.New("staff privileges required")

// ErrMembershipConflict is returned by the membership resolver when a user
// holds more than one membership. The schema is supposed to make this
// impossible; surfacing it loudly beats silently picking the first row.
var ErrMembershipConflict = errors.New("user holds more than one company membership")

// CompanyNotActiveError is returned when a write to a company-owned resource
// is attempted while the company is not active. The message is status
// specific and shown verbatim to the acting user.
type CompanyNotActiveError struct {
	CompanyID uuid.UUID
	Status    CompanyStatus
}

func (e *CompanyNotActiveError) Error() string {
	switch e.Status {
	case CompanyStatusPending:
		return "Your company is pending approval. Please wait for admin approval before creating resources."
	case CompanyStatusRejected:
		return "Your company application was rejected. Please contact support."
	case CompanyStatusSuspended:
		return "Your company is suspended. Please contact support."
	default:
		return "Your company is not active."
	}
}

// DuplicateOwnershipError is returned when a user who already owns a company
// attempts to create another one.
type DuplicateOwnershipError struct {
	CompanyID   uuid.UUID
	CompanyName string
}

func (e *DuplicateOwnershipError) Error() string {
	return fmt.Sprintf("user already owns a company: %s", e.CompanyName)
}

// ValidationError is returned on malformed boundary input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
