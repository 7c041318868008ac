package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketForm is submitted by both the create and the edit ticket pages.
// User references carry an id; an empty value clears the reference.
type TicketForm struct {
	Title       *string `json:"title" form:"title"`
	Description *string `json:"description" form:"description"`
	Status      *string `json:"status" form:"status"`
	Owner       *string `json:"owner" form:"owner"`
	AssignedTo  *string `json:"assigned_to" form:"assigned_to"`
	WaitingFor  *string `json:"waiting_for" form:"waiting_for"`
}

// TicketResponse describes a ticket row.
type TicketResponse struct {
	ID          int64                `json:"id"`
	Title       string               `json:"title"`
	Description *string              `json:"description"`
	Status      *domain.TicketStatus `json:"status"`
	Owner       *int64               `json:"owner"`
	AssignedTo  *int64               `json:"assigned_to"`
	WaitingFor  *int64               `json:"waiting_for"`
	ClosedDate  *time.Time           `json:"closed_date"`
	Created     time.Time            `json:"created"`
	Updated     time.Time            `json:"updated"`
}

// TicketDetailResponse is a ticket with its attachments and follow-ups, newest follow-up first.
type TicketDetailResponse struct {
	Ticket      TicketResponse       `json:"ticket"`
	Attachments []AttachmentResponse `json:"attachments"`
	FollowUps   []FollowUpResponse   `json:"followups"`
}

// TicketFormOptions lists the choices rendered next to the ticket form.
type TicketFormOptions struct {
	Statuses []domain.TicketStatus `json:"statuses"`
	Initial  *TicketResponse       `json:"initial,omitempty"`
}

// InboxResponse splits all tickets by assignment.
type InboxResponse struct {
	TicketsUnassigned []TicketResponse `json:"tickets_unassigned"`
	TicketsAssigned   []TicketResponse `json:"tickets_assigned"`
}

// MyTicketsResponse lists the caller's open tickets and those waiting on them.
type MyTicketsResponse struct {
	Tickets        []TicketResponse `json:"tickets"`
	TicketsWaiting []TicketResponse `json:"tickets_waiting"`
}

// TicketListResponse backs the all-tickets and archive pages.
type TicketListResponse struct {
	Tickets []TicketResponse `json:"tickets"`
}
