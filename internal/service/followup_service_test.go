package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/mail"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func TestFollowUpNotifiesOwner(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner := h.user(t, "owner", "owner@example.com")
	agent := h.user(t, "agent", "agent@example.com")
	ticket, _ := h.tickets.Create(ctx, owner, TicketCreateInput{Title: "Printer broken"})

	followUp, err := h.followUps.Create(ctx, agent, FollowUpCreateInput{TicketID: ticket.ID, Title: "Update", Text: strPtr("fixed")})
	if err != nil {
		t.Fatalf("create follow-up: %v", err)
	}
	if followUp.UserID == nil || *followUp.UserID != agent.User.ID {
		t.Fatalf("author not recorded")
	}
	if _, err := h.store.FollowUps().GetByID(ctx, followUp.ID); err != nil {
		t.Fatalf("follow-up not persisted: %v", err)
	}

	if len(h.mailer.sent) != 1 {
		t.Fatalf("expected one notification, got %d", len(h.mailer.sent))
	}
	msg := h.mailer.sent[0]
	if msg.To != "owner@example.com" || msg.From != "test@test.tld" {
		t.Fatalf("unexpected envelope: %+v", msg)
	}
	wantSubject := "[#" + itoa(ticket.ID) + "] New follow-up"
	if msg.Subject != wantSubject || !strings.Contains(msg.Subject, "#"+itoa(ticket.ID)) {
		t.Fatalf("subject = %q, want %q", msg.Subject, wantSubject)
	}
	wantBody := "Hi,\n\nNew follow-up created for ticket #" + itoa(ticket.ID) +
		" (https://help.example.com/ticket/" + itoa(ticket.ID) + "/)\n\nTitle: Update\n\nfixed"
	if msg.Body != wantBody {
		t.Fatalf("body = %q, want %q", msg.Body, wantBody)
	}
}

func TestFollowUpWithoutOwnerStillPersists(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	agent := h.user(t, "agent", "agent@example.com")
	orphan := h.rawTicket(t, domain.Ticket{Title: "no owner"})

	followUp, err := h.followUps.Create(ctx, agent, FollowUpCreateInput{TicketID: orphan.ID, Title: "Update"})
	if err != nil {
		t.Fatalf("follow-up on ownerless ticket failed: %v", err)
	}
	if _, err := h.store.FollowUps().GetByID(ctx, followUp.ID); err != nil {
		t.Fatalf("follow-up not persisted: %v", err)
	}
	if len(h.mailer.sent) != 0 {
		t.Fatalf("no notification expected, got %d", len(h.mailer.sent))
	}
}

func TestFollowUpSurvivesMailerFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.mailer.err = errors.New("smtp unavailable")
	owner := h.user(t, "owner", "owner@example.com")
	ticket, _ := h.tickets.Create(ctx, owner, TicketCreateInput{Title: "x"})

	if _, err := h.followUps.Create(ctx, owner, FollowUpCreateInput{TicketID: ticket.ID, Title: "Update"}); err != nil {
		t.Fatalf("mail failure leaked into follow-up creation: %v", err)
	}
}

func TestNotifyFollowUpWithoutEmail(t *testing.T) {
	h := newHarness(t)
	owner := h.user(t, "owner", "")
	svc := NewNotificationService(events.NewInMemoryDispatcher(nil), h.store, h.mailer, zap.NewNop(), NotificationConfig{})

	err := svc.NotifyFollowUp(context.Background(), 1, events.FollowUpCreatedPayload{OwnerID: &owner.User.ID})
	if !errors.Is(err, mail.ErrNoRecipient) {
		t.Fatalf("expected ErrNoRecipient, got %v", err)
	}
	if err := svc.NotifyFollowUp(context.Background(), 1, events.FollowUpCreatedPayload{}); !errors.Is(err, mail.ErrNoRecipient) {
		t.Fatalf("expected ErrNoRecipient for missing owner, got %v", err)
	}
}

func TestFollowUpDateDefaultsAndEdits(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.user(t, "alice", "")
	first, _ := h.tickets.Create(ctx, alice, TicketCreateInput{Title: "first"})
	second, _ := h.tickets.Create(ctx, alice, TicketCreateInput{Title: "second"})

	now := h.clock.Now()
	followUp, err := h.followUps.Create(ctx, alice, FollowUpCreateInput{TicketID: first.ID, Title: "note"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !followUp.Date.Equal(now) {
		t.Fatalf("date defaulted to %v, want %v", followUp.Date, now)
	}

	when := time.Date(2023, 12, 24, 10, 0, 0, 0, time.UTC)
	edited, err := h.followUps.Edit(ctx, alice, followUp.ID, FollowUpEditInput{TicketID: &second.ID, Date: &when})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.TicketID != second.ID || !edited.Date.Equal(when) || edited.Title != "note" {
		t.Fatalf("unexpected edit result: %+v", edited)
	}
	if !edited.ModifiedAt.After(followUp.ModifiedAt) {
		t.Fatalf("modified_at not refreshed")
	}
}

func TestFollowUpMissingTargets(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.user(t, "alice", "")
	ticket, _ := h.tickets.Create(ctx, alice, TicketCreateInput{Title: "x"})
	followUp, _ := h.followUps.Create(ctx, alice, FollowUpCreateInput{TicketID: ticket.ID, Title: "note"})

	if _, err := h.followUps.Create(ctx, alice, FollowUpCreateInput{TicketID: 777, Title: "note"}); !apperrors.IsNotFound(err) {
		t.Fatalf("expected not found for missing ticket, got %v", err)
	}
	missing := int64(777)
	if _, err := h.followUps.Edit(ctx, alice, followUp.ID, FollowUpEditInput{TicketID: &missing}); !apperrors.IsNotFound(err) {
		t.Fatalf("expected not found when moving to missing ticket, got %v", err)
	}
	if _, err := h.followUps.Edit(ctx, alice, 888, FollowUpEditInput{Title: strPtr("x")}); !apperrors.IsNotFound(err) {
		t.Fatalf("expected not found for missing follow-up, got %v", err)
	}
	if _, err := h.followUps.Create(ctx, alice, FollowUpCreateInput{TicketID: ticket.ID, Title: strings.Repeat("x", 201)}); !apperrors.IsValidation(err) {
		t.Fatalf("expected validation error for long title, got %v", err)
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
