package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// FollowUpRepository persists ticket follow-ups.
type FollowUpRepository interface {
	Create(ctx context.Context, followUp *domain.FollowUp) error
	Update(ctx context.Context, followUp *domain.FollowUp) error
	GetByID(ctx context.Context, id int64) (*domain.FollowUp, error)
	// ListByTicket returns follow-ups most recently modified first.
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.FollowUp, error)
}

type followUpRepository struct {
	db DBTX
}

// NewFollowUpRepository constructs repository.
func NewFollowUpRepository(db DBTX) FollowUpRepository {
	return &followUpRepository{db: db}
}

func (r *followUpRepository) Create(ctx context.Context, followUp *domain.FollowUp) error {
	const query = `
        INSERT INTO followups (ticket_id, date, title, text, user_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, modified_at`
	return mapError(r.db.QueryRow(ctx, query,
		followUp.TicketID,
		followUp.Date,
		followUp.Title,
		followUp.Text,
		followUp.UserID,
	).Scan(&followUp.ID, &followUp.CreatedAt, &followUp.ModifiedAt))
}

func (r *followUpRepository) Update(ctx context.Context, followUp *domain.FollowUp) error {
	const query = `
        UPDATE followups SET ticket_id=$1, date=$2, title=$3, text=$4, user_id=$5, modified_at=NOW()
        WHERE id=$6
        RETURNING modified_at`
	return mapError(r.db.QueryRow(ctx, query,
		followUp.TicketID,
		followUp.Date,
		followUp.Title,
		followUp.Text,
		followUp.UserID,
		followUp.ID,
	).Scan(&followUp.ModifiedAt))
}

func (r *followUpRepository) GetByID(ctx context.Context, id int64) (*domain.FollowUp, error) {
	const query = `
        SELECT id, ticket_id, date, title, text, user_id, created_at, modified_at
        FROM followups WHERE id=$1`
	followUp, err := scanFollowUp(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return followUp, nil
}

func (r *followUpRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.FollowUp, error) {
	const query = `
        SELECT id, ticket_id, date, title, text, user_id, created_at, modified_at
        FROM followups WHERE ticket_id=$1
        ORDER BY modified_at DESC, id DESC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.FollowUp
	for rows.Next() {
		followUp, err := scanFollowUp(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *followUp)
	}
	return result, rows.Err()
}

func scanFollowUp(row pgx.Row) (*domain.FollowUp, error) {
	var followUp domain.FollowUp
	if err := row.Scan(
		&followUp.ID,
		&followUp.TicketID,
		&followUp.Date,
		&followUp.Title,
		&followUp.Text,
		&followUp.UserID,
		&followUp.CreatedAt,
		&followUp.ModifiedAt,
	); err != nil {
		return nil, err
	}
	return &followUp, nil
}
