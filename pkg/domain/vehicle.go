package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VehicleStatus represents the sale state of a vehicle.
type VehicleStatus string

const (
	VehicleStatusAvailable VehicleStatus = "AVAILABLE"
	VehicleStatusReserved  VehicleStatus = "RESERVED"
	VehicleStatusSold      VehicleStatus = "SOLD"
)

// Vehicle is a company-owned inventory item.
type Vehicle struct {
	ID           uuid.UUID
	CompanyID    uuid.UUID
	Make         string
	Model        string
	Year         int
	MileageKM    int
	Fuel         string
	Transmission string
	PriceEUR     decimal.Decimal
	Status       VehicleStatus
	Title        string
	Description  string
	CreatedAt    time.Time
}

// CompanyRef returns the owning company ID. Implements guard.TenantScoped.
func (v *Vehicle) CompanyRef() uuid.UUID {
	return v.CompanyID
}
