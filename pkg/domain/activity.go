package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActivityType represents the kind of note attached to a lead.
type ActivityType string

const (
	ActivityTypeNote     ActivityType = "note"
	ActivityTypeCall     ActivityType = "call"
	ActivityTypeWhatsApp ActivityType = "whatsapp"
	ActivityTypeEmail    ActivityType = "email"
)

// Activity is an immutable audit note attached to a lead. Activities are
// only ever created; no update or delete path exists.
type Activity struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	Type      ActivityType
	Text      string
	CreatedAt time.Time
}
