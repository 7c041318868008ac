package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/storage"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
	"github.com/spec-kit/helpdesk/pkg/util/validation"
)

// CreateUserInput describes an operator-created account.
type CreateUserInput struct {
	Username  string   `json:"username" validate:"required,max=150"`
	Password  string   `json:"password" validate:"required,min=8"`
	Email     string   `json:"email" validate:"omitempty,email,max=254"`
	FirstName string   `json:"first_name" validate:"max=150"`
	LastName  string   `json:"last_name" validate:"max=150"`
	Groups    []string `json:"groups"`
}

// AdminService backs the operator CLI: account management and ticket removal.
type AdminService struct {
	store      repository.Store
	objects    storage.ObjectStore
	bcryptCost int
	logger     *zap.Logger
}

// NewAdminService constructs the service.
func NewAdminService(store repository.Store, objects storage.ObjectStore, bcryptCost int, logger *zap.Logger) *AdminService {
	return &AdminService{store: store, objects: objects, bcryptCost: bcryptCost, logger: logger}
}

// CreateUser adds an active account and its group memberships in one transaction.
func (s *AdminService) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: hash,
		IsActive:     true,
	}
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.NewConflict("username already taken", map[string]any{"username": user.Username})
			}
			return err
		}
		for _, name := range input.Groups {
			if err := addToGroup(ctx, tx, user.ID, name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user created", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// AddUserToGroup grants an existing user membership of a named group.
func (s *AdminService) AddUserToGroup(ctx context.Context, username, group string) error {
	return s.store.WithinTx(ctx, func(tx repository.Store) error {
		user, err := tx.Users().GetByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound("user", map[string]any{"username": username})
			}
			return err
		}
		return addToGroup(ctx, tx, user.ID, group)
	})
}

// DeleteUser removes an account. Tickets it owned, was assigned or was waited on keep
// existing with the reference cleared.
func (s *AdminService) DeleteUser(ctx context.Context, username string) error {
	return s.store.WithinTx(ctx, func(tx repository.Store) error {
		user, err := tx.Users().GetByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound("user", map[string]any{"username": username})
			}
			return err
		}
		return tx.Users().Delete(ctx, user.ID)
	})
}

// DeleteTicket removes a ticket with its follow-ups and attachments, then removes the
// stored files. File removal failures are logged and do not undo the delete.
func (s *AdminService) DeleteTicket(ctx context.Context, id int64) (int, error) {
	var attachments []domain.Attachment
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		attachments, err = tx.Attachments().ListByTicket(ctx, id)
		if err != nil {
			return err
		}
		return notFound(tx.Tickets().Delete(ctx, id), "ticket", id)
	})
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, a := range attachments {
		if s.objects == nil {
			break
		}
		if err := s.objects.Remove(ctx, a.FilePath); err != nil {
			s.logger.Warn("stored attachment not removed", zap.String("file_path", a.FilePath), zap.Error(err))
			continue
		}
		removed++
	}
	s.logger.Info("ticket deleted", zap.Int64("ticket_id", id), zap.Int("files_removed", removed))
	return removed, nil
}

func addToGroup(ctx context.Context, tx repository.Store, userID int64, name string) error {
	group, err := tx.Groups().GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("group", map[string]any{"name": name})
		}
		return err
	}
	return tx.Users().AddToGroup(ctx, userID, group.ID)
}
