package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusTodo       TicketStatus = "TODO"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusWaiting    TicketStatus = "WAITING"
	TicketStatusDone       TicketStatus = "DONE"
)

// TicketStatuses lists the accepted status values in display order.
var TicketStatuses = []TicketStatus{
	TicketStatusTodo,
	TicketStatusInProgress,
	TicketStatusWaiting,
	TicketStatusDone,
}

// Valid reports whether s is one of the known statuses.
func (s TicketStatus) Valid() bool {
	for _, candidate := range TicketStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Ticket is a unit of work tracked through the status lifecycle.
// A nil Status is a valid, unset state.
type Ticket struct {
	ID           int64
	Title        string
	Description  *string
	Status       *TicketStatus
	OwnerID      *int64
	AssignedToID *int64
	WaitingForID *int64
	ClosedDate   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsDone reports whether the ticket sits in the terminal status.
func (t *Ticket) IsDone() bool {
	return t.Status != nil && *t.Status == TicketStatusDone
}

// StatusPtr returns a pointer to s.
func StatusPtr(s TicketStatus) *TicketStatus {
	return &s
}

// TicketDetail bundles a ticket with its children.
type TicketDetail struct {
	Ticket      Ticket
	Attachments []Attachment
	FollowUps   []FollowUp
}
