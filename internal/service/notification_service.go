package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/mail"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// NotificationConfig holds the sender address and the link base for notification emails.
type NotificationConfig struct {
	EmailFrom string
	BaseURL   string
}

// NotificationService emails ticket owners when follow-ups are created.
type NotificationService struct {
	dispatcher events.Dispatcher
	store      repository.Store
	mailer     mail.Mailer
	logger     *zap.Logger
	cfg        NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, store repository.Store, mailer mail.Mailer, logger *zap.Logger, cfg NotificationConfig) *NotificationService {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &NotificationService{
		dispatcher: dispatcher,
		store:      store,
		mailer:     mailer,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventFollowUpCreated, n.handleFollowUpCreated)
}

// handleFollowUpCreated never fails the publisher; the follow-up is already committed.
func (n *NotificationService) handleFollowUpCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.FollowUpCreatedPayload)
	if !ok {
		n.logger.Warn("unexpected followup_created payload", zap.String("event_id", event.ID))
		return nil
	}
	if err := n.NotifyFollowUp(ctx, event.TicketID, payload); err != nil {
		n.logger.Warn("follow-up notification not delivered",
			zap.Int64("ticket_id", event.TicketID),
			zap.Int64("followup_id", payload.FollowUpID),
			zap.Error(err),
		)
		return nil
	}
	n.logger.Info("follow-up notification sent",
		zap.Int64("ticket_id", event.TicketID),
		zap.Int64("followup_id", payload.FollowUpID),
	)
	return nil
}

// NotifyFollowUp sends one email to the ticket owner. It returns mail.ErrNoRecipient
// when the ticket has no owner or the owner has no email address.
func (n *NotificationService) NotifyFollowUp(ctx context.Context, ticketID int64, payload events.FollowUpCreatedPayload) error {
	if payload.OwnerID == nil {
		return mail.ErrNoRecipient
	}
	owner, err := n.store.Users().GetByID(ctx, *payload.OwnerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return mail.ErrNoRecipient
		}
		return err
	}
	if strings.TrimSpace(owner.Email) == "" {
		return mail.ErrNoRecipient
	}
	msg := FollowUpMessage(n.cfg, ticketID, payload.Title, payload.Text)
	msg.To = owner.Email
	return n.mailer.Send(ctx, msg)
}

// FollowUpMessage renders the notification for a new follow-up.
func FollowUpMessage(cfg NotificationConfig, ticketID int64, title, text string) mail.Message {
	return mail.Message{
		From:    cfg.EmailFrom,
		Subject: fmt.Sprintf("[#%d] New follow-up", ticketID),
		Body: fmt.Sprintf("Hi,\n\nNew follow-up created for ticket #%d (%s/ticket/%d/)\n\nTitle: %s\n\n%s",
			ticketID, strings.TrimRight(cfg.BaseURL, "/"), ticketID, title, text),
	}
}
