package memstore

import (
	"context"
	"sort"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	defer r.s.lock()()
	d := r.s.data
	for _, existing := range d.users {
		if existing.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	now := r.s.now()
	user.ID = d.nextID()
	user.CreatedAt = now
	user.UpdatedAt = now
	d.users[user.ID] = *user
	return nil
}

func (r userRepo) Update(_ context.Context, user *domain.User) error {
	defer r.s.lock()()
	d := r.s.data
	current, ok := d.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	current.Email = user.Email
	current.FirstName = user.FirstName
	current.LastName = user.LastName
	current.PasswordHash = user.PasswordHash
	current.IsActive = user.IsActive
	current.UpdatedAt = r.s.now()
	d.users[user.ID] = current
	*user = current
	return nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	defer r.s.lock()()
	user, ok := r.s.data.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r userRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	defer r.s.lock()()
	for _, user := range r.s.data.users {
		if user.Username == username {
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Delete clears every reference to the user, mirroring ON DELETE SET NULL.
func (r userRepo) Delete(_ context.Context, id int64) error {
	defer r.s.lock()()
	d := r.s.data
	if _, ok := d.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(d.users, id)
	delete(d.memberships, id)

	for tid, t := range d.tickets {
		t.OwnerID = clearRef(t.OwnerID, id)
		t.AssignedToID = clearRef(t.AssignedToID, id)
		t.WaitingForID = clearRef(t.WaitingForID, id)
		d.tickets[tid] = t
	}
	for fid, f := range d.followUps {
		f.UserID = clearRef(f.UserID, id)
		d.followUps[fid] = f
	}
	for aid, a := range d.attachments {
		a.UserID = clearRef(a.UserID, id)
		d.attachments[aid] = a
	}
	return nil
}

func clearRef(ref *int64, id int64) *int64 {
	if ref != nil && *ref == id {
		return nil
	}
	return ref
}

func (r userRepo) AddToGroup(_ context.Context, userID, groupID int64) error {
	defer r.s.lock()()
	d := r.s.data
	if _, ok := d.users[userID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := d.groups[groupID]; !ok {
		return repository.ErrNotFound
	}
	if d.memberships[userID] == nil {
		d.memberships[userID] = map[int64]struct{}{}
	}
	d.memberships[userID][groupID] = struct{}{}
	return nil
}

func (r userRepo) ListGroups(_ context.Context, userID int64) ([]string, error) {
	defer r.s.lock()()
	d := r.s.data
	var names []string
	for gid := range d.memberships[userID] {
		if g, ok := d.groups[gid]; ok {
			names = append(names, g.name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (r userRepo) ListPermissions(_ context.Context, userID int64) ([]domain.Permission, error) {
	defer r.s.lock()()
	d := r.s.data
	set := map[domain.Permission]struct{}{}
	for gid := range d.memberships[userID] {
		if g, ok := d.groups[gid]; ok {
			for p := range g.perms {
				set[p] = struct{}{}
			}
		}
	}
	return sortedPerms(set), nil
}

type groupRepo struct{ s *Store }

func (r groupRepo) EnsurePermission(_ context.Context, perm domain.Permission, _ string) (int64, error) {
	defer r.s.lock()()
	d := r.s.data
	if id, ok := d.permissions[perm]; ok {
		return id, nil
	}
	id := d.nextID()
	d.permissions[perm] = id
	return id, nil
}

func (r groupRepo) EnsureGroup(_ context.Context, name string) (int64, error) {
	defer r.s.lock()()
	d := r.s.data
	for id, g := range d.groups {
		if g.name == name {
			return id, nil
		}
	}
	id := d.nextID()
	d.groups[id] = &groupRow{name: name, perms: map[domain.Permission]struct{}{}}
	return id, nil
}

// SetPermissions ignores codes that were never ensured, as the SQL join does.
func (r groupRepo) SetPermissions(_ context.Context, groupID int64, perms []domain.Permission) error {
	defer r.s.lock()()
	d := r.s.data
	g, ok := d.groups[groupID]
	if !ok {
		return repository.ErrNotFound
	}
	g.perms = map[domain.Permission]struct{}{}
	for _, p := range perms {
		if _, known := d.permissions[p]; known {
			g.perms[p] = struct{}{}
		}
	}
	return nil
}

func (r groupRepo) GetByName(_ context.Context, name string) (*domain.Group, error) {
	defer r.s.lock()()
	for id, g := range r.s.data.groups {
		if g.name == name {
			return &domain.Group{ID: id, Name: g.name, Permissions: sortedPerms(g.perms)}, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r groupRepo) List(_ context.Context) ([]domain.Group, error) {
	defer r.s.lock()()
	var groups []domain.Group
	for id, g := range r.s.data.groups {
		groups = append(groups, domain.Group{ID: id, Name: g.name, Permissions: sortedPerms(g.perms)})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

func sortedPerms(set map[domain.Permission]struct{}) []domain.Permission {
	perms := make([]domain.Permission, 0, len(set))
	for p := range set {
		perms = append(perms, p)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
	return perms
}
