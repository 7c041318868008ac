// Package memstore is an in-process repository.Store used when no database is
// configured and in tests. It applies the same reference rules as the SQL schema:
// deleting a user clears ticket, follow-up and attachment references, deleting a
// ticket removes its follow-ups and attachments.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

type groupRow struct {
	name  string
	perms map[domain.Permission]struct{}
}

type dataset struct {
	seq         int64
	tickets     map[int64]domain.Ticket
	followUps   map[int64]domain.FollowUp
	attachments map[int64]domain.Attachment
	users       map[int64]domain.User
	groups      map[int64]*groupRow
	permissions map[domain.Permission]int64
	memberships map[int64]map[int64]struct{}
}

func newDataset() *dataset {
	return &dataset{
		tickets:     map[int64]domain.Ticket{},
		followUps:   map[int64]domain.FollowUp{},
		attachments: map[int64]domain.Attachment{},
		users:       map[int64]domain.User{},
		groups:      map[int64]*groupRow{},
		permissions: map[domain.Permission]int64{},
		memberships: map[int64]map[int64]struct{}{},
	}
}

func (d *dataset) clone() *dataset {
	c := newDataset()
	c.seq = d.seq
	for k, v := range d.tickets {
		c.tickets[k] = v
	}
	for k, v := range d.followUps {
		c.followUps[k] = v
	}
	for k, v := range d.attachments {
		c.attachments[k] = v
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.groups {
		perms := make(map[domain.Permission]struct{}, len(v.perms))
		for p := range v.perms {
			perms[p] = struct{}{}
		}
		c.groups[k] = &groupRow{name: v.name, perms: perms}
	}
	for k, v := range d.permissions {
		c.permissions[k] = v
	}
	for k, v := range d.memberships {
		set := make(map[int64]struct{}, len(v))
		for g := range v {
			set[g] = struct{}{}
		}
		c.memberships[k] = set
	}
	return c
}

func (d *dataset) nextID() int64 {
	d.seq++
	return d.seq
}

// Store keeps every entity in maps guarded by a single mutex.
type Store struct {
	mu   *sync.Mutex // nil inside a transaction, where the root lock is already held
	data *dataset
	now  func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{mu: &sync.Mutex{}, data: newDataset(), now: time.Now}
}

// WithClock overrides the timestamp source used for created/updated columns.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) lock() func() {
	if s.mu == nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Tickets() repository.TicketRepository         { return ticketRepo{s} }
func (s *Store) FollowUps() repository.FollowUpRepository     { return followUpRepo{s} }
func (s *Store) Attachments() repository.AttachmentRepository { return attachmentRepo{s} }
func (s *Store) Users() repository.UserRepository             { return userRepo{s} }
func (s *Store) Groups() repository.GroupRepository           { return groupRepo{s} }

// WithinTx runs fn against a copy of the data and publishes the copy only when fn succeeds.
// Transactions are serialized.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.mu == nil {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Store{data: s.data.clone(), now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

type ticketRepo struct{ s *Store }

func (r ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	defer r.s.lock()()
	d := r.s.data
	if err := d.checkUsers(ticket.OwnerID, ticket.AssignedToID, ticket.WaitingForID); err != nil {
		return err
	}
	now := r.s.now()
	ticket.ID = d.nextID()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	d.tickets[ticket.ID] = *ticket
	return nil
}

func (r ticketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	defer r.s.lock()()
	d := r.s.data
	current, ok := d.tickets[ticket.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := d.checkUsers(ticket.OwnerID, ticket.AssignedToID, ticket.WaitingForID); err != nil {
		return err
	}
	ticket.CreatedAt = current.CreatedAt
	ticket.UpdatedAt = r.s.now()
	d.tickets[ticket.ID] = *ticket
	return nil
}

func (r ticketRepo) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	defer r.s.lock()()
	ticket, ok := r.s.data.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &ticket, nil
}

func (r ticketRepo) Delete(_ context.Context, id int64) error {
	defer r.s.lock()()
	d := r.s.data
	if _, ok := d.tickets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(d.tickets, id)
	for fid, f := range d.followUps {
		if f.TicketID == id {
			delete(d.followUps, fid)
		}
	}
	for aid, a := range d.attachments {
		if a.TicketID == id {
			delete(d.attachments, aid)
		}
	}
	return nil
}

func (r ticketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	defer r.s.lock()()
	var result []domain.Ticket
	for _, t := range r.s.data.tickets {
		if filter.Matches(t) {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		}
		return result[i].ID > result[j].ID
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

type followUpRepo struct{ s *Store }

func (r followUpRepo) Create(_ context.Context, followUp *domain.FollowUp) error {
	defer r.s.lock()()
	d := r.s.data
	if _, ok := d.tickets[followUp.TicketID]; !ok {
		return fmt.Errorf("ticket %d does not exist", followUp.TicketID)
	}
	if err := d.checkUsers(followUp.UserID); err != nil {
		return err
	}
	now := r.s.now()
	followUp.ID = d.nextID()
	followUp.CreatedAt = now
	followUp.ModifiedAt = now
	d.followUps[followUp.ID] = *followUp
	return nil
}

func (r followUpRepo) Update(_ context.Context, followUp *domain.FollowUp) error {
	defer r.s.lock()()
	d := r.s.data
	current, ok := d.followUps[followUp.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if _, ok := d.tickets[followUp.TicketID]; !ok {
		return fmt.Errorf("ticket %d does not exist", followUp.TicketID)
	}
	followUp.CreatedAt = current.CreatedAt
	followUp.ModifiedAt = r.s.now()
	d.followUps[followUp.ID] = *followUp
	return nil
}

func (r followUpRepo) GetByID(_ context.Context, id int64) (*domain.FollowUp, error) {
	defer r.s.lock()()
	followUp, ok := r.s.data.followUps[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &followUp, nil
}

func (r followUpRepo) ListByTicket(_ context.Context, ticketID int64) ([]domain.FollowUp, error) {
	defer r.s.lock()()
	var result []domain.FollowUp
	for _, f := range r.s.data.followUps {
		if f.TicketID == ticketID {
			result = append(result, f)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].ModifiedAt.Equal(result[j].ModifiedAt) {
			return result[i].ModifiedAt.After(result[j].ModifiedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

type attachmentRepo struct{ s *Store }

func (r attachmentRepo) Create(_ context.Context, attachment *domain.Attachment) error {
	defer r.s.lock()()
	d := r.s.data
	if _, ok := d.tickets[attachment.TicketID]; !ok {
		return fmt.Errorf("ticket %d does not exist", attachment.TicketID)
	}
	if err := d.checkUsers(attachment.UserID); err != nil {
		return err
	}
	attachment.ID = d.nextID()
	attachment.CreatedAt = r.s.now()
	d.attachments[attachment.ID] = *attachment
	return nil
}

func (r attachmentRepo) GetByID(_ context.Context, id int64) (*domain.Attachment, error) {
	defer r.s.lock()()
	attachment, ok := r.s.data.attachments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &attachment, nil
}

func (r attachmentRepo) ListByTicket(_ context.Context, ticketID int64) ([]domain.Attachment, error) {
	defer r.s.lock()()
	var result []domain.Attachment
	for _, a := range r.s.data.attachments {
		if a.TicketID == ticketID {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (d *dataset) checkUsers(ids ...*int64) error {
	for _, id := range ids {
		if id == nil {
			continue
		}
		if _, ok := d.users[*id]; !ok {
			return fmt.Errorf("user %d does not exist", *id)
		}
	}
	return nil
}
