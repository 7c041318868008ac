package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketFilter narrows ticket listings. Zero values disable a clause.
type TicketFilter struct {
	// Assigned selects tickets with (true) or without (false) an assignee.
	Assigned      *bool
	AssignedToID  *int64
	WaitingForID  *int64
	Statuses      []domain.TicketStatus
	ExcludeStatus *domain.TicketStatus
	Limit         int
	Offset        int
}

// Matches evaluates the filter against a single ticket in memory.
// A NULL status never equals and is always distinct from a status value.
func (f TicketFilter) Matches(t domain.Ticket) bool {
	if f.Assigned != nil && (*f.Assigned) != (t.AssignedToID != nil) {
		return false
	}
	if f.AssignedToID != nil && (t.AssignedToID == nil || *t.AssignedToID != *f.AssignedToID) {
		return false
	}
	if f.WaitingForID != nil && (t.WaitingForID == nil || *t.WaitingForID != *f.WaitingForID) {
		return false
	}
	if len(f.Statuses) > 0 {
		if t.Status == nil {
			return false
		}
		found := false
		for _, s := range f.Statuses {
			if s == *t.Status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.ExcludeStatus != nil && t.Status != nil && *t.Status == *f.ExcludeStatus {
		return false
	}
	return true
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `id, title, description, status, owner_id, assigned_to_id, waiting_for_id,
               closed_date, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, status, owner_id, assigned_to_id, waiting_for_id, closed_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return mapError(r.db.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.OwnerID,
		ticket.AssignedToID,
		ticket.WaitingForID,
		ticket.ClosedDate,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt))
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, status=$3, owner_id=$4, assigned_to_id=$5,
            waiting_for_id=$6, closed_date=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`
	return mapError(r.db.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.OwnerID,
		ticket.AssignedToID,
		ticket.WaitingForID,
		ticket.ClosedDate,
		ticket.ID,
	).Scan(&ticket.UpdatedAt))
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return ticket, nil
}

// Delete removes the ticket; follow-ups and attachments go with it through ON DELETE CASCADE.
func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireRows(tag)
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Assigned != nil {
		if *filter.Assigned {
			clauses = append(clauses, "assigned_to_id IS NOT NULL")
		} else {
			clauses = append(clauses, "assigned_to_id IS NULL")
		}
	}
	if filter.AssignedToID != nil {
		args = append(args, *filter.AssignedToID)
		clauses = append(clauses, fmt.Sprintf("assigned_to_id=$%d", len(args)))
	}
	if filter.WaitingForID != nil {
		args = append(args, *filter.WaitingForID)
		clauses = append(clauses, fmt.Sprintf("waiting_for_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, string(status))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.ExcludeStatus != nil {
		args = append(args, string(*filter.ExcludeStatus))
		clauses = append(clauses, fmt.Sprintf("status IS DISTINCT FROM $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY updated_at DESC, id DESC`,
		ticketColumns, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.OwnerID,
		&ticket.AssignedToID,
		&ticket.WaitingForID,
		&ticket.ClosedDate,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
