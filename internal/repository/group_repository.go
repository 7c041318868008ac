package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// GroupRepository manages groups and the permissions they grant.
type GroupRepository interface {
	EnsurePermission(ctx context.Context, perm domain.Permission, description string) (int64, error)
	EnsureGroup(ctx context.Context, name string) (int64, error)
	// SetPermissions replaces the group's permission set.
	SetPermissions(ctx context.Context, groupID int64, perms []domain.Permission) error
	GetByName(ctx context.Context, name string) (*domain.Group, error)
	List(ctx context.Context) ([]domain.Group, error)
}

type groupRepository struct {
	db DBTX
}

// NewGroupRepository constructs repository.
func NewGroupRepository(db DBTX) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) EnsurePermission(ctx context.Context, perm domain.Permission, description string) (int64, error) {
	const query = `
        INSERT INTO permissions (code, description) VALUES ($1, $2)
        ON CONFLICT (code) DO UPDATE SET description = EXCLUDED.description
        RETURNING id`
	var id int64
	err := r.db.QueryRow(ctx, query, string(perm), description).Scan(&id)
	return id, mapError(err)
}

func (r *groupRepository) EnsureGroup(ctx context.Context, name string) (int64, error) {
	const query = `
        INSERT INTO groups (name) VALUES ($1)
        ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
        RETURNING id`
	var id int64
	err := r.db.QueryRow(ctx, query, name).Scan(&id)
	return id, mapError(err)
}

func (r *groupRepository) SetPermissions(ctx context.Context, groupID int64, perms []domain.Permission) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM group_permissions WHERE group_id=$1`, groupID); err != nil {
		return err
	}
	if len(perms) == 0 {
		return nil
	}
	codes := make([]string, len(perms))
	for i, p := range perms {
		codes[i] = string(p)
	}
	const query = `
        INSERT INTO group_permissions (group_id, permission_id)
        SELECT $1, id FROM permissions WHERE code = ANY($2)`
	_, err := r.db.Exec(ctx, query, groupID, codes)
	return err
}

func (r *groupRepository) GetByName(ctx context.Context, name string) (*domain.Group, error) {
	var group domain.Group
	if err := r.db.QueryRow(ctx, `SELECT id, name FROM groups WHERE name=$1`, name).
		Scan(&group.ID, &group.Name); err != nil {
		return nil, mapError(err)
	}
	perms, err := r.listPermissions(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	group.Permissions = perms
	return &group, nil
}

func (r *groupRepository) List(ctx context.Context) ([]domain.Group, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM groups ORDER BY name`)
	if err != nil {
		return nil, err
	}
	groups, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Group, error) {
		var g domain.Group
		err := row.Scan(&g.ID, &g.Name)
		return g, err
	})
	if err != nil {
		return nil, err
	}
	for i := range groups {
		perms, err := r.listPermissions(ctx, groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i].Permissions = perms
	}
	return groups, nil
}

func (r *groupRepository) listPermissions(ctx context.Context, groupID int64) ([]domain.Permission, error) {
	const query = `
        SELECT p.code FROM permissions p
        JOIN group_permissions gp ON gp.permission_id = p.id
        WHERE gp.group_id=$1 ORDER BY p.code`
	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[domain.Permission])
}
