package events

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated   EventType = "ticket_created"
	EventTicketUpdated   EventType = "ticket_updated"
	EventTicketClosed    EventType = "ticket_closed"
	EventFollowUpCreated EventType = "followup_created"
)

// Event represents a domain event emitted by services after their transaction commits.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	ActorID   int64       `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title   string `json:"title"`
	OwnerID *int64 `json:"owner_id,omitempty"`
}

// TicketUpdatedPayload records the status transition of an edit.
type TicketUpdatedPayload struct {
	OldStatus    *domain.TicketStatus `json:"old_status,omitempty"`
	NewStatus    *domain.TicketStatus `json:"new_status,omitempty"`
	AssignedToID *int64               `json:"assigned_to_id,omitempty"`
	WaitingForID *int64               `json:"waiting_for_id,omitempty"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	ClosedDate time.Time `json:"closed_date"`
}

// FollowUpCreatedPayload carries what the owner notification needs.
type FollowUpCreatedPayload struct {
	FollowUpID int64  `json:"followup_id"`
	Title      string `json:"title"`
	Text       string `json:"text"`
	OwnerID    *int64 `json:"owner_id,omitempty"`
}
