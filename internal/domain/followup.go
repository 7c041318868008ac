package domain

import "time"

// FollowUp is a timestamped note attached to a ticket.
type FollowUp struct {
	ID         int64
	TicketID   int64
	Date       time.Time
	Title      string
	Text       *string
	UserID     *int64
	CreatedAt  time.Time
	ModifiedAt time.Time
}
