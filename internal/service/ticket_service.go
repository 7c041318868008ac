package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
	"github.com/spec-kit/helpdesk/pkg/util/validation"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	clock      Clock
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Clock      Clock
}

// TicketCreateInput describes ticket creation payload. Status and OwnerID are accepted
// from the form but always replaced: new tickets start in TODO, owned by the creator.
type TicketCreateInput struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	OwnerID     *int64  `json:"owner"`
}

// TicketEditInput is a partial update. Nil fields are left untouched. A pointer to an
// empty status clears it; a pointer to 0 clears a user reference.
type TicketEditInput struct {
	Title        *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description  *string `json:"description"`
	Status       *string `json:"status"`
	OwnerID      *int64  `json:"owner"`
	AssignedToID *int64  `json:"assigned_to"`
	WaitingForID *int64  `json:"waiting_for"`
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		clock:      deps.Clock,
	}
}

// Create persists a new ticket owned by the principal with status TODO.
func (s *TicketService) Create(ctx context.Context, principal *domain.Principal, input TicketCreateInput) (*domain.Ticket, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}
	input.Title = strings.TrimSpace(input.Title)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Title:       input.Title,
		Description: normalizeText(input.Description),
		Status:      domain.StatusPtr(domain.TicketStatusTodo),
		OwnerID:     int64Ptr(principal.UserID()),
	}
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		return tx.Tickets().Create(ctx, ticket)
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, s.clock, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  principal.UserID(),
		Payload: events.TicketCreatedPayload{
			Title:   ticket.Title,
			OwnerID: ticket.OwnerID,
		},
	})
	return ticket, nil
}

// Edit applies a partial update in one transaction. Entering DONE from any other
// status stamps closed_date with the edit time; nothing else touches it.
func (s *TicketService) Edit(ctx context.Context, principal *domain.Principal, id int64, input TicketEditInput) (*domain.Ticket, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}
	if input.Title != nil {
		trimmed := strings.TrimSpace(*input.Title)
		input.Title = &trimmed
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	status, err := parseStatus(input.Status)
	if err != nil {
		return nil, err
	}

	var (
		ticket    *domain.Ticket
		oldStatus *domain.TicketStatus
		closed    bool
	)
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.Tickets().GetByID(ctx, id)
		if err != nil {
			return notFound(err, "ticket", id)
		}
		oldStatus = current.Status
		wasDone := current.IsDone()

		if input.Title != nil {
			current.Title = *input.Title
		}
		if input.Description != nil {
			current.Description = normalizeText(input.Description)
		}
		if input.Status != nil {
			current.Status = status
		}
		refs := []struct {
			field  string
			input  *int64
			target **int64
		}{
			{"owner", input.OwnerID, &current.OwnerID},
			{"assigned_to", input.AssignedToID, &current.AssignedToID},
			{"waiting_for", input.WaitingForID, &current.WaitingForID},
		}
		for _, ref := range refs {
			if ref.input == nil {
				continue
			}
			if *ref.input == 0 {
				*ref.target = nil
				continue
			}
			if err := userExists(ctx, tx, ref.field, *ref.input); err != nil {
				return err
			}
			*ref.target = int64Ptr(*ref.input)
		}

		if !wasDone && current.IsDone() {
			closedAt := s.clock.now()
			current.ClosedDate = &closedAt
			closed = true
		}

		if err := tx.Tickets().Update(ctx, current); err != nil {
			return notFound(err, "ticket", id)
		}
		ticket = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, s.clock, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
		ActorID:  principal.UserID(),
		Payload: events.TicketUpdatedPayload{
			OldStatus:    oldStatus,
			NewStatus:    ticket.Status,
			AssignedToID: ticket.AssignedToID,
			WaitingForID: ticket.WaitingForID,
		},
	})
	if closed {
		publishEvent(ctx, s.dispatcher, s.clock, events.Event{
			Type:     events.EventTicketClosed,
			TicketID: ticket.ID,
			ActorID:  principal.UserID(),
			Payload:  events.TicketClosedPayload{ClosedDate: *ticket.ClosedDate},
		})
	}
	return ticket, nil
}

// Get loads a single ticket, e.g. to seed the edit form.
func (s *TicketService) Get(ctx context.Context, principal *domain.Principal, id int64) (*domain.Ticket, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}
	ticket, err := s.store.Tickets().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "ticket", id)
	}
	return ticket, nil
}

// Detail returns the ticket with its attachments and follow-ups, newest follow-up first.
func (s *TicketService) Detail(ctx context.Context, principal *domain.Principal, id int64) (*domain.TicketDetail, error) {
	ticket, err := s.Get(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	attachments, err := s.store.Attachments().ListByTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	followUps, err := s.store.FollowUps().ListByTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if attachments == nil {
		attachments = []domain.Attachment{}
	}
	if followUps == nil {
		followUps = []domain.FollowUp{}
	}
	return &domain.TicketDetail{Ticket: *ticket, Attachments: attachments, FollowUps: followUps}, nil
}

func parseStatus(raw *string) (*domain.TicketStatus, error) {
	if raw == nil {
		return nil, nil
	}
	value := strings.ToUpper(strings.TrimSpace(*raw))
	if value == "" {
		return nil, nil
	}
	status := domain.TicketStatus(value)
	if !status.Valid() {
		names := make([]string, len(domain.TicketStatuses))
		for i, s := range domain.TicketStatuses {
			names[i] = string(s)
		}
		return nil, validation.FieldError("status", "status must be one of "+strings.Join(names, ", "))
	}
	return &status, nil
}

func userExists(ctx context.Context, store repository.Store, field string, id int64) error {
	if _, err := store.Users().GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return validation.FieldError(field, fmt.Sprintf("user %d does not exist", id))
		}
		return apperrors.MapError(err)
	}
	return nil
}

func normalizeText(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
