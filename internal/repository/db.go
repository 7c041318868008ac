package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a lookup or update matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("record already exists")
)

const uniqueViolation = "23505"

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Conn is a DBTX able to open transactions.
type Conn interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store groups the repositories and runs units of work atomically.
type Store interface {
	Tickets() TicketRepository
	FollowUps() FollowUpRepository
	Attachments() AttachmentRepository
	Users() UserRepository
	Groups() GroupRepository
	// WithinTx runs fn against a transactional Store. A non-nil error from fn
	// rolls every write back. Nested calls join the enclosing transaction.
	WithinTx(ctx context.Context, fn func(Store) error) error
}

type pgStore struct {
	conn Conn
	db   DBTX
}

// NewStore returns a Postgres backed Store.
func NewStore(conn Conn) Store {
	return &pgStore{conn: conn, db: conn}
}

func (s *pgStore) Tickets() TicketRepository         { return NewTicketRepository(s.db) }
func (s *pgStore) FollowUps() FollowUpRepository     { return NewFollowUpRepository(s.db) }
func (s *pgStore) Attachments() AttachmentRepository { return NewAttachmentRepository(s.db) }
func (s *pgStore) Users() UserRepository             { return NewUserRepository(s.db) }
func (s *pgStore) Groups() GroupRepository           { return NewGroupRepository(s.db) }

func (s *pgStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	if s.conn == nil {
		return fn(s)
	}
	return pgx.BeginFunc(ctx, s.conn, func(tx pgx.Tx) error {
		return fn(&pgStore{db: tx})
	})
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

func requireRows(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
