package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func strPtr(s string) *string { return &s }

func TestCreateForcesTodoAndOwner(t *testing.T) {
	h := newHarness(t)
	alice := h.user(t, "alice", "alice@example.com")
	bob := h.user(t, "bob", "bob@example.com")

	ticket, err := h.tickets.Create(context.Background(), alice, TicketCreateInput{
		Title:   "  Printer broken ",
		Status:  strPtr("DONE"),
		OwnerID: &bob.User.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ticket.Status == nil || *ticket.Status != domain.TicketStatusTodo {
		t.Fatalf("expected TODO, got %v", ticket.Status)
	}
	if ticket.OwnerID == nil || *ticket.OwnerID != alice.User.ID {
		t.Fatalf("expected owner %d, got %v", alice.User.ID, ticket.OwnerID)
	}
	if ticket.ClosedDate != nil {
		t.Fatalf("new ticket must not be closed")
	}
	if ticket.Title != "Printer broken" {
		t.Fatalf("title not trimmed: %q", ticket.Title)
	}
}

func TestCreateRequiresTitle(t *testing.T) {
	h := newHarness(t)
	alice := h.user(t, "alice", "")
	_, err := h.tickets.Create(context.Background(), alice, TicketCreateInput{Title: "   "})
	if !apperrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEditClosedDateOnlyOnEntryIntoDone(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.user(t, "alice", "alice@example.com")

	ticket, err := h.tickets.Create(ctx, alice, TicketCreateInput{Title: "Printer broken"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	closeAt := h.clock.Advance(time.Hour)
	edited, err := h.tickets.Edit(ctx, alice, ticket.ID, TicketEditInput{Status: strPtr("DONE")})
	if err != nil {
		t.Fatalf("edit to DONE: %v", err)
	}
	if edited.ClosedDate == nil || !edited.ClosedDate.Equal(closeAt) {
		t.Fatalf("closed_date = %v, want %v", edited.ClosedDate, closeAt)
	}

	h.clock.Advance(time.Hour)
	again, err := h.tickets.Edit(ctx, alice, ticket.ID, TicketEditInput{Status: strPtr("DONE")})
	if err != nil {
		t.Fatalf("repeat DONE: %v", err)
	}
	if !again.ClosedDate.Equal(closeAt) {
		t.Fatalf("DONE to DONE moved closed_date to %v", again.ClosedDate)
	}

	reopened, err := h.tickets.Edit(ctx, alice, ticket.ID, TicketEditInput{Status: strPtr("IN_PROGRESS")})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.ClosedDate == nil || !reopened.ClosedDate.Equal(closeAt) {
		t.Fatalf("leaving DONE must not clear closed_date")
	}

	reclosedAt := h.clock.Advance(time.Hour)
	reclosed, err := h.tickets.Edit(ctx, alice, ticket.ID, TicketEditInput{Status: strPtr("done")})
	if err != nil {
		t.Fatalf("reclose: %v", err)
	}
	if !reclosed.ClosedDate.Equal(reclosedAt) {
		t.Fatalf("re-entering DONE should stamp %v, got %v", reclosedAt, reclosed.ClosedDate)
	}
}

func TestEditRejectsUnknownUserAtomically(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.user(t, "alice", "")
	ticket, _ := h.tickets.Create(ctx, alice, TicketCreateInput{Title: "VPN"})

	missing := int64(9999)
	_, err := h.tickets.Edit(ctx, alice, ticket.ID, TicketEditInput{
		Title:        strPtr("VPN down"),
		AssignedToID: &missing,
	})
	if !apperrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	stored, _ := h.store.Tickets().GetByID(ctx, ticket.ID)
	if stored.Title != "VPN" {
		t.Fatalf("partial write persisted: %q", stored.Title)
	}
}

func TestEditSetsAndClearsReferences(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.user(t, "alice", "")
	bob := h.user(t, "bob", "")
	ticket, _ := h.tickets.Create(ctx, alice, TicketCreateInput{Title: "VPN"})

	edited, err := h.tickets.Edit(ctx, alice, ticket.ID, TicketEditInput{
		AssignedToID: &bob.User.ID,
		WaitingForID: &alice.User.ID,
		Status:       strPtr("WAITING"),
	})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if *edited.AssignedToID != bob.User.ID || *edited.WaitingForID != alice.User.ID {
		t.Fatalf("references not set: %+v", edited)
	}

	zero := int64(0)
	cleared, err := h.tickets.Edit(ctx, alice, ticket.ID, TicketEditInput{AssignedToID: &zero, Status: strPtr("")})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cleared.AssignedToID != nil || cleared.Status != nil {
		t.Fatalf("expected assignee and status cleared: %+v", cleared)
	}
	if cleared.WaitingForID == nil {
		t.Fatalf("untouched field was cleared")
	}
}

func TestEditUnknownStatusAndTicket(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.user(t, "alice", "")
	ticket, _ := h.tickets.Create(ctx, alice, TicketCreateInput{Title: "VPN"})

	if _, err := h.tickets.Edit(ctx, alice, ticket.ID, TicketEditInput{Status: strPtr("CLOSED")}); !apperrors.IsValidation(err) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
	if _, err := h.tickets.Edit(ctx, alice, 4242, TicketEditInput{Title: strPtr("x")}); !apperrors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDetailIncludesChildren(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.user(t, "alice", "")
	ticket, _ := h.tickets.Create(ctx, alice, TicketCreateInput{Title: "VPN"})

	first, _ := h.followUps.Create(ctx, alice, FollowUpCreateInput{TicketID: ticket.ID, Title: "first"})
	second, _ := h.followUps.Create(ctx, alice, FollowUpCreateInput{TicketID: ticket.ID, Title: "second"})
	if _, err := h.followUps.Edit(ctx, alice, first.ID, FollowUpEditInput{Text: strPtr("touched")}); err != nil {
		t.Fatalf("edit follow-up: %v", err)
	}

	detail, err := h.tickets.Detail(ctx, alice, ticket.ID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if len(detail.FollowUps) != 2 || detail.FollowUps[0].ID != first.ID || detail.FollowUps[1].ID != second.ID {
		t.Fatalf("follow-ups not ordered by last modification: %+v", detail.FollowUps)
	}
	if detail.Attachments == nil {
		t.Fatalf("attachments should be an empty list, not nil")
	}

	if _, err := h.tickets.Detail(ctx, alice, 999); !apperrors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServicesRequirePrincipal(t *testing.T) {
	h := newHarness(t)
	_, err := h.tickets.Create(context.Background(), nil, TicketCreateInput{Title: "x"})
	if !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
