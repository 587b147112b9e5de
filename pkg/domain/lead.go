package domain

import (
	"time"

	"github.com/google/uuid"
)

// LeadSource represents where a lead came from.
type LeadSource string

const (
	LeadSourceWeb      LeadSource = "web"
	LeadSourceCall     LeadSource = "call"
	LeadSourceWhatsApp LeadSource = "whatsapp"
	LeadSourceOther    LeadSource = "other"
)

// LeadStage represents the pipeline position of a lead.
// Any stage may move to any other stage; the model does not restrict the
// transition graph.
type LeadStage string

const (
	LeadStageNew         LeadStage = "new"
	LeadStageContacted   LeadStage = "contacted"
	LeadStageAppointment LeadStage = "appointment"
	LeadStageSold        LeadStage = "sold"
	LeadStageLost        LeadStage = "lost"
)

var leadStageLabels = map[LeadStage]string{
	LeadStageNew:         "New",
	LeadStageContacted:   "Contacted",
	LeadStageAppointment: "Appointment",
	LeadStageSold:        "Sold",
	LeadStageLost:        "Lost",
}

// Valid returns true if the stage is a known pipeline stage.
func (s LeadStage) Valid() bool {
	_, ok := leadStageLabels[s]
	return ok
}

// Label returns the human-readable label for the stage, falling back to the
// raw value for unknown stages.
func (s LeadStage) Label() string {
	if label, ok := leadStageLabels[s]; ok {
		return label
	}
	return string(s)
}

// Lead is a company-owned sales prospect.
type Lead struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	Name      string
	Phone     string
	Email     string
	Source    LeadSource
	Stage     LeadStage
	VehicleID *uuid.UUID
	CreatedAt time.Time
}

// CompanyRef returns the owning company ID. Implements guard.TenantScoped.
func (l *Lead) CompanyRef() uuid.UUID {
	return l.CompanyID
}
