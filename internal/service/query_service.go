package service

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// View names used in query failures and logs.
const (
	ViewInbox      = "inbox"
	ViewMyTickets  = "my_tickets"
	ViewAllTickets = "all_tickets"
	ViewArchive    = "archive"
)

// InboxView splits every ticket by whether it has an assignee.
type InboxView struct {
	Unassigned []domain.Ticket `json:"unassigned"`
	Assigned   []domain.Ticket `json:"assigned"`
}

// MyTicketsView lists the requesting user's open work and the tickets waiting on them.
type MyTicketsView struct {
	Assigned []domain.Ticket `json:"assigned"`
	Waiting  []domain.Ticket `json:"waiting"`
}

// QueryService serves the read-only list views. Data source failures come back as
// QUERY_UNAVAILABLE errors so callers can tell them apart from empty results.
type QueryService struct {
	store repository.Store
}

// NewQueryService constructs the service.
func NewQueryService(store repository.Store) *QueryService {
	return &QueryService{store: store}
}

// Inbox returns unassigned and assigned tickets regardless of status.
func (s *QueryService) Inbox(ctx context.Context, principal *domain.Principal) (*InboxView, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}
	unassigned, err := s.list(ctx, ViewInbox, repository.TicketFilter{Assigned: boolPtr(false)})
	if err != nil {
		return nil, err
	}
	assigned, err := s.list(ctx, ViewInbox, repository.TicketFilter{Assigned: boolPtr(true)})
	if err != nil {
		return nil, err
	}
	return &InboxView{Unassigned: unassigned, Assigned: assigned}, nil
}

// MyTickets returns tickets assigned to the principal that are not DONE, and
// tickets in WAITING whose waiting_for is the principal.
func (s *QueryService) MyTickets(ctx context.Context, principal *domain.Principal) (*MyTicketsView, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}
	userID := principal.UserID()
	assigned, err := s.list(ctx, ViewMyTickets, repository.TicketFilter{
		AssignedToID:  &userID,
		ExcludeStatus: domain.StatusPtr(domain.TicketStatusDone),
	})
	if err != nil {
		return nil, err
	}
	waiting, err := s.list(ctx, ViewMyTickets, repository.TicketFilter{
		WaitingForID: &userID,
		Statuses:     []domain.TicketStatus{domain.TicketStatusWaiting},
	})
	if err != nil {
		return nil, err
	}
	return &MyTicketsView{Assigned: assigned, Waiting: waiting}, nil
}

// AllTickets returns every ticket whose status is not DONE, including tickets without a status.
func (s *QueryService) AllTickets(ctx context.Context, principal *domain.Principal) ([]domain.Ticket, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}
	return s.list(ctx, ViewAllTickets, repository.TicketFilter{ExcludeStatus: domain.StatusPtr(domain.TicketStatusDone)})
}

// Archive returns tickets with status DONE.
func (s *QueryService) Archive(ctx context.Context, principal *domain.Principal) ([]domain.Ticket, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}
	return s.list(ctx, ViewArchive, repository.TicketFilter{Statuses: []domain.TicketStatus{domain.TicketStatusDone}})
}

func (s *QueryService) list(ctx context.Context, view string, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.store.Tickets().List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewQueryUnavailable(view, err)
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

func boolPtr(v bool) *bool {
	return &v
}
