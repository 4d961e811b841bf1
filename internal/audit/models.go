package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - actor capture is best-effort; do not block desk flows on audit failures.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	// ActorID is the operator causing the event (if applicable).
	ActorID   string `json:"actor_id,omitempty" db:"actor_id"`
	ActorRole string `json:"actor_role,omitempty" db:"actor_role"`

	// Subject identifies what changed: an area name, operator id or complaint id.
	Subject string `json:"subject,omitempty" db:"subject"`

	// Message is a short human-readable description.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeAreaReassigned    EventType = "area_reassigned"
	EventTypeOperatorChanged   EventType = "operator_changed"
	EventTypeComplaintResolved EventType = "complaint_resolved"
)
