package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
	"github.com/spec-kit/helpdesk/pkg/util/validation"
)

// Session is an issued login token.
type Session struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// SettingsInput carries the editable profile fields.
type SettingsInput struct {
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Email     string `json:"email" validate:"omitempty,email,max=254"`
}

// AuthService coordinates login, logout, session resolution and profile edits.
type AuthService struct {
	store    repository.Store
	tokenMgr *auth.TokenManager
	revoker  auth.Revoker
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	Store   repository.Store
	Tokens  *auth.TokenManager
	Revoker auth.Revoker
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	revoker := deps.Revoker
	if revoker == nil {
		revoker = auth.NewMemoryRevoker()
	}
	return &AuthService{store: deps.Store, tokenMgr: deps.Tokens, revoker: revoker}
}

// Login checks credentials and issues a session token. Unknown users, wrong passwords
// and inactive accounts all yield the same UNAUTHORIZED error.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, *Session, error) {
	invalid := apperrors.NewUnauthorized("invalid username or password")
	user, err := s.store.Users().GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, invalid
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, invalid
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, invalid
	}

	token, claims, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, &Session{Token: token, TokenID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Logout revokes the principal's current token until it expires.
func (s *AuthService) Logout(ctx context.Context, principal *domain.Principal) error {
	if principal == nil || principal.TokenID == "" {
		return nil
	}
	return s.revoker.Revoke(ctx, principal.TokenID, principal.ExpiresAt)
}

// Authenticate resolves a token into a principal carrying the user's groups and permissions.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	claims, err := s.tokenMgr.ParseToken(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid session")
	}
	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if revoked {
		return nil, apperrors.NewUnauthorized("session ended")
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid session")
	}

	principal, err := s.PrincipalFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	principal.TokenID = claims.ID
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Time
	}
	return principal, nil
}

// PrincipalFor loads an active user with group names and the union of their permissions.
func (s *AuthService) PrincipalFor(ctx context.Context, userID int64) (*domain.Principal, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("user not found")
		}
		return nil, apperrors.MapError(err)
	}
	if !user.IsActive {
		return nil, apperrors.NewUnauthorized("account disabled")
	}
	groups, err := s.store.Users().ListGroups(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	perms, err := s.store.Users().ListPermissions(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	set := make(map[domain.Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return &domain.Principal{User: *user, Groups: groups, Permissions: set}, nil
}

// UpdateSettings edits the principal's own name and email.
func (s *AuthService) UpdateSettings(ctx context.Context, principal *domain.Principal, input SettingsInput) (*domain.User, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = strings.TrimSpace(input.Email)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var user *domain.User
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.Users().GetByID(ctx, principal.UserID())
		if err != nil {
			return notFound(err, "user", principal.UserID())
		}
		current.FirstName = input.FirstName
		current.LastName = input.LastName
		current.Email = input.Email
		if err := tx.Users().Update(ctx, current); err != nil {
			return err
		}
		user = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Tokens exposes the underlying token manager.
func (s *AuthService) Tokens() *auth.TokenManager {
	return s.tokenMgr
}
