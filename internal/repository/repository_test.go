package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func expectationsMet(t *testing.T, mock pgxmock.PgxPoolIface) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTicketCreateScansGeneratedFields(t *testing.T) {
	mock := newMock(t)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	owner := int64(7)
	ticket := &domain.Ticket{Title: "Printer broken", Status: domain.StatusPtr(domain.TicketStatusTodo), OwnerID: &owner}

	mock.ExpectQuery("INSERT INTO tickets").
		WithArgs("Printer broken", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(42), now, now))

	if err := NewTicketRepository(mock).Create(context.Background(), ticket); err != nil {
		t.Fatalf("create: %v", err)
	}
	if ticket.ID != 42 || !ticket.CreatedAt.Equal(now) {
		t.Fatalf("generated fields not scanned: %+v", ticket)
	}
	expectationsMet(t, mock)
}

func TestTicketGetByIDMapsNoRows(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("FROM tickets WHERE id=").
		WithArgs(int64(9)).
		WillReturnError(pgx.ErrNoRows)

	_, err := NewTicketRepository(mock).GetByID(context.Background(), 9)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestTicketDeleteMissingRow(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec("DELETE FROM tickets").
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := NewTicketRepository(mock).Delete(context.Background(), 3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestTicketListBuildsClauses(t *testing.T) {
	columns := []string{"id", "title", "description", "status", "owner_id", "assigned_to_id", "waiting_for_id", "closed_date", "created_at", "updated_at"}
	user := int64(5)
	unassigned := false

	cases := []struct {
		name   string
		filter TicketFilter
		sql    string
		args   []any
	}{
		{"unassigned", TicketFilter{Assigned: &unassigned}, `assigned_to_id IS NULL ORDER BY updated_at DESC`, nil},
		{"open", TicketFilter{ExcludeStatus: domain.StatusPtr(domain.TicketStatusDone)}, `status IS DISTINCT FROM \$1`, []any{"DONE"}},
		{"waiting", TicketFilter{WaitingForID: &user, Statuses: []domain.TicketStatus{domain.TicketStatusWaiting}}, `waiting_for_id=\$1 AND status IN \(\$2\)`, []any{user, "WAITING"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock := newMock(t)
			exp := mock.ExpectQuery(tc.sql)
			if len(tc.args) > 0 {
				exp = exp.WithArgs(tc.args...)
			}
			exp.WillReturnRows(pgxmock.NewRows(columns))

			tickets, err := NewTicketRepository(mock).List(context.Background(), tc.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(tickets) != 0 {
				t.Fatalf("expected no tickets, got %d", len(tickets))
			}
			expectationsMet(t, mock)
		})
	}
}

func TestUserCreateDuplicate(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("alice", "", "", "", "", false).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	err := NewUserRepository(mock).Create(context.Background(), &domain.User{Username: "alice"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestWithinTxCommits(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM users").WithArgs(int64(1)).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()
	// pgx.BeginFunc always rolls back on exit; after commit that is a no-op.
	mock.ExpectRollback()

	err := NewStore(mock).WithinTx(context.Background(), func(s Store) error {
		return s.Users().Delete(context.Background(), 1)
	})
	if err != nil {
		t.Fatalf("within tx: %v", err)
	}
	expectationsMet(t, mock)
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := NewStore(mock).WithinTx(context.Background(), func(s Store) error {
		return s.WithinTx(context.Background(), func(Store) error { return boom })
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestTicketFilterMatchesNullStatus(t *testing.T) {
	ticket := domain.Ticket{ID: 1}
	if !(TicketFilter{ExcludeStatus: domain.StatusPtr(domain.TicketStatusDone)}).Matches(ticket) {
		t.Fatalf("null status should be distinct from DONE")
	}
	if (TicketFilter{Statuses: []domain.TicketStatus{domain.TicketStatusDone}}).Matches(ticket) {
		t.Fatalf("null status should not match DONE")
	}
}
