package service

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/pkg/util/validation"
)

// GroupDefinition declares a group and the permissions it grants.
// All grants every permission handed to Bootstrap.
type GroupDefinition struct {
	Name        string              `yaml:"name"`
	All         bool                `yaml:"all"`
	Permissions []domain.Permission `yaml:"permissions"`
}

type groupFile struct {
	Groups []GroupDefinition `yaml:"groups"`
}

// DefaultGroupDefinitions returns Admin and Call Center with every entity permission
// and Users with none.
func DefaultGroupDefinitions() []GroupDefinition {
	return []GroupDefinition{
		{Name: domain.GroupAdmin, All: true},
		{Name: domain.GroupCallCenter, All: true},
		{Name: domain.GroupUsers},
	}
}

// LoadGroupDefinitions reads definitions from a YAML file of the form
//
//	groups:
//	  - name: Admin
//	    all: true
//	  - name: Auditors
//	    permissions: [ticket:view, followup:view]
func LoadGroupDefinitions(path string) ([]GroupDefinition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read group definitions: %w", err)
	}
	var file groupFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse group definitions: %w", err)
	}
	if len(file.Groups) == 0 {
		return nil, fmt.Errorf("group definitions file %s declares no groups", path)
	}
	return file.Groups, nil
}

// AccessService initializes groups and permissions.
type AccessService struct {
	store  repository.Store
	logger *zap.Logger
}

// NewAccessService constructs the service.
func NewAccessService(store repository.Store, logger *zap.Logger) *AccessService {
	return &AccessService{store: store, logger: logger}
}

// Bootstrap makes sure every permission exists and each defined group grants exactly
// its listed permissions. Running it again with the same input changes nothing.
func (s *AccessService) Bootstrap(ctx context.Context, definitions []GroupDefinition, permissions []domain.Permission) ([]domain.Group, error) {
	known := make(map[domain.Permission]struct{}, len(permissions))
	for _, perm := range permissions {
		if !perm.Valid() {
			return nil, validation.FieldError("permissions", fmt.Sprintf("malformed permission %q", perm))
		}
		known[perm] = struct{}{}
	}
	for _, def := range definitions {
		if def.Name == "" {
			return nil, validation.FieldError("name", "group name is required")
		}
		for _, perm := range def.Permissions {
			if _, ok := known[perm]; !ok {
				return nil, validation.FieldError("permissions", fmt.Sprintf("group %s references unknown permission %q", def.Name, perm))
			}
		}
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		for _, perm := range permissions {
			resource, action := perm.Parse()
			if _, err := tx.Groups().EnsurePermission(ctx, perm, fmt.Sprintf("Can %s %s", action, resource)); err != nil {
				return fmt.Errorf("ensure permission %s: %w", perm, err)
			}
		}
		for _, def := range definitions {
			groupID, err := tx.Groups().EnsureGroup(ctx, def.Name)
			if err != nil {
				return fmt.Errorf("ensure group %s: %w", def.Name, err)
			}
			grants := def.Permissions
			if def.All {
				grants = permissions
			}
			if err := tx.Groups().SetPermissions(ctx, groupID, grants); err != nil {
				return fmt.Errorf("set permissions for %s: %w", def.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	groups, err := s.store.Groups().List(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("access bootstrap complete", zap.Int("groups", len(definitions)), zap.Int("permissions", len(permissions)))
	return groups, nil
}
