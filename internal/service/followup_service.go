package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/pkg/util/validation"
)

// FollowUpService creates and edits ticket follow-ups.
type FollowUpService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	clock      Clock
}

// FollowUpDependencies bundles collaborators for the follow-up service.
type FollowUpDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Clock      Clock
}

// FollowUpCreateInput describes a new follow-up. Date defaults to now.
type FollowUpCreateInput struct {
	TicketID int64      `json:"ticket" validate:"required,gt=0"`
	Title    string     `json:"title" validate:"required,max=200"`
	Text     *string    `json:"text"`
	Date     *time.Time `json:"date"`
}

// FollowUpEditInput is a partial update; nil fields are kept.
type FollowUpEditInput struct {
	TicketID *int64     `json:"ticket" validate:"omitempty,gt=0"`
	Title    *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Text     *string    `json:"text"`
	Date     *time.Time `json:"date"`
}

// NewFollowUpService constructs the service.
func NewFollowUpService(deps FollowUpDependencies) *FollowUpService {
	return &FollowUpService{store: deps.Store, dispatcher: deps.Dispatcher, clock: deps.Clock}
}

// Create stores a follow-up authored by the principal and, once committed, publishes
// followup_created so the ticket owner can be notified.
func (s *FollowUpService) Create(ctx context.Context, principal *domain.Principal, input FollowUpCreateInput) (*domain.FollowUp, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}
	input.Title = strings.TrimSpace(input.Title)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	followUp := &domain.FollowUp{
		TicketID: input.TicketID,
		Title:    input.Title,
		Text:     normalizeText(input.Text),
		UserID:   int64Ptr(principal.UserID()),
	}
	if input.Date != nil {
		followUp.Date = *input.Date
	} else {
		followUp.Date = s.clock.now()
	}

	var ticket *domain.Ticket
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		ticket, err = tx.Tickets().GetByID(ctx, input.TicketID)
		if err != nil {
			return notFound(err, "ticket", input.TicketID)
		}
		return tx.FollowUps().Create(ctx, followUp)
	})
	if err != nil {
		return nil, err
	}

	text := ""
	if followUp.Text != nil {
		text = *followUp.Text
	}
	publishEvent(ctx, s.dispatcher, s.clock, events.Event{
		Type:     events.EventFollowUpCreated,
		TicketID: followUp.TicketID,
		ActorID:  principal.UserID(),
		Payload: events.FollowUpCreatedPayload{
			FollowUpID: followUp.ID,
			Title:      followUp.Title,
			Text:       text,
			OwnerID:    ticket.OwnerID,
		},
	})
	return followUp, nil
}

// Edit updates a follow-up in place. Moving it to another ticket requires that ticket to exist.
func (s *FollowUpService) Edit(ctx context.Context, principal *domain.Principal, id int64, input FollowUpEditInput) (*domain.FollowUp, error) {
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

	var followUp *domain.FollowUp
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.FollowUps().GetByID(ctx, id)
		if err != nil {
			return notFound(err, "follow-up", id)
		}
		if input.TicketID != nil && *input.TicketID != current.TicketID {
			if _, err := tx.Tickets().GetByID(ctx, *input.TicketID); err != nil {
				return notFound(err, "ticket", *input.TicketID)
			}
			current.TicketID = *input.TicketID
		}
		if input.Title != nil {
			current.Title = *input.Title
		}
		if input.Text != nil {
			current.Text = normalizeText(input.Text)
		}
		if input.Date != nil {
			current.Date = *input.Date
		}
		if err := tx.FollowUps().Update(ctx, current); err != nil {
			return notFound(err, "follow-up", id)
		}
		followUp = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return followUp, nil
}

// Get loads a follow-up, e.g. to seed the edit form.
func (s *FollowUpService) Get(ctx context.Context, principal *domain.Principal, id int64) (*domain.FollowUp, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}
	followUp, err := s.store.FollowUps().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "follow-up", id)
	}
	return followUp, nil
}
