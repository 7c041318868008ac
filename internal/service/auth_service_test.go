package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository/memstore"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func newAuthFixture(t *testing.T) (*AuthService, *AdminService, *memstore.Store) {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	if _, err := NewAccessService(store, zap.NewNop()).Bootstrap(ctx, DefaultGroupDefinitions(), domain.EntityPermissions()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	admin := NewAdminService(store, nil, 4, zap.NewNop())
	authSvc := NewAuthService(AuthDependencies{
		Store:   store,
		Tokens:  auth.NewTokenManager("test-secret", time.Hour),
		Revoker: auth.NewMemoryRevoker(),
	})
	return authSvc, admin, store
}

func TestLoginAuthenticateLogout(t *testing.T) {
	ctx := context.Background()
	authSvc, admin, _ := newAuthFixture(t)
	if _, err := admin.CreateUser(ctx, CreateUserInput{
		Username: "alice", Password: "correct horse", Email: "alice@example.com", Groups: []string{domain.GroupCallCenter},
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, _, err := authSvc.Login(ctx, "alice", "wrong password"); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for wrong password, got %v", err)
	}
	if _, _, err := authSvc.Login(ctx, "nobody", "x"); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for unknown user, got %v", err)
	}

	user, session, err := authSvc.Login(ctx, "alice", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	principal, err := authSvc.Authenticate(ctx, session.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if principal.UserID() != user.ID || !principal.InGroup(domain.GroupCallCenter) {
		t.Fatalf("unexpected principal: %+v", principal)
	}
	if !principal.HasPermission(domain.NewPermission(domain.ResourceTicket, domain.ActionChange)) {
		t.Fatalf("call center member should hold ticket:change")
	}

	if err := authSvc.Logout(ctx, principal); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := authSvc.Authenticate(ctx, session.Token); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("revoked token still accepted: %v", err)
	}
}

func TestInactiveUserCannotLogin(t *testing.T) {
	ctx := context.Background()
	authSvc, admin, store := newAuthFixture(t)
	user, err := admin.CreateUser(ctx, CreateUserInput{Username: "bob", Password: "password123"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	user.IsActive = false
	if err := store.Users().Update(ctx, user); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, _, err := authSvc.Login(ctx, "bob", "password123"); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("inactive user logged in: %v", err)
	}
}

func TestUsersGroupHasNoPermissions(t *testing.T) {
	ctx := context.Background()
	authSvc, admin, _ := newAuthFixture(t)
	user, err := admin.CreateUser(ctx, CreateUserInput{Username: "carol", Password: "password123", Groups: []string{domain.GroupUsers}})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	principal, err := authSvc.PrincipalFor(ctx, user.ID)
	if err != nil {
		t.Fatalf("principal: %v", err)
	}
	if len(principal.Permissions) != 0 {
		t.Fatalf("Users member should hold no permissions: %v", principal.Permissions)
	}
}

func TestUpdateSettings(t *testing.T) {
	ctx := context.Background()
	authSvc, admin, _ := newAuthFixture(t)
	user, _ := admin.CreateUser(ctx, CreateUserInput{Username: "dave", Password: "password123"})
	principal := &domain.Principal{User: *user}

	updated, err := authSvc.UpdateSettings(ctx, principal, SettingsInput{FirstName: " Dave ", LastName: "Lister", Email: "dave@example.com"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.FirstName != "Dave" || updated.Email != "dave@example.com" {
		t.Fatalf("unexpected user: %+v", updated)
	}
	if _, err := authSvc.UpdateSettings(ctx, principal, SettingsInput{Email: "not-an-email"}); !apperrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
