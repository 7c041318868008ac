package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/mail"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/repository/memstore"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	if msg.To == "" {
		return mail.ErrNoRecipient
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type harness struct {
	store      *memstore.Store
	clock      *stepClock
	dispatcher events.Dispatcher
	mailer     *recordingMailer
	tickets    *TicketService
	followUps  *FollowUpService
	queries    *QueryService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := newStepClock()
	store := memstore.New().WithClock(func() time.Time { return clock.Advance(time.Second) })
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	mailer := &recordingMailer{}
	NewNotificationService(dispatcher, store, mailer, zap.NewNop(), NotificationConfig{
		EmailFrom: "test@test.tld",
		BaseURL:   "https://help.example.com/",
	}).RegisterHandlers()

	return &harness{
		store:      store,
		clock:      clock,
		dispatcher: dispatcher,
		mailer:     mailer,
		tickets:    NewTicketService(TicketDependencies{Store: store, Dispatcher: dispatcher, Clock: clock.Now}),
		followUps:  NewFollowUpService(FollowUpDependencies{Store: store, Dispatcher: dispatcher, Clock: clock.Now}),
		queries:    NewQueryService(store),
	}
}

func (h *harness) user(t *testing.T, username, email string) *domain.Principal {
	t.Helper()
	u := &domain.User{Username: username, Email: email, IsActive: true}
	if err := h.store.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return &domain.Principal{User: *u}
}

// rawTicket inserts a ticket bypassing the lifecycle rules.
func (h *harness) rawTicket(t *testing.T, ticket domain.Ticket) domain.Ticket {
	t.Helper()
	if err := h.store.Tickets().Create(context.Background(), &ticket); err != nil {
		t.Fatalf("insert ticket: %v", err)
	}
	return ticket
}

type failingTickets struct {
	repository.TicketRepository
}

func (failingTickets) List(context.Context, repository.TicketFilter) ([]domain.Ticket, error) {
	return nil, errors.New("connection refused")
}

type failingStore struct {
	*memstore.Store
}

func (s failingStore) Tickets() repository.TicketRepository {
	return failingTickets{s.Store.Tickets()}
}

func ids(tickets []domain.Ticket) map[int64]bool {
	out := make(map[int64]bool, len(tickets))
	for _, t := range tickets {
		out[t.ID] = true
	}
	return out
}
