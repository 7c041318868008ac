package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// RequireAuthenticated rejects requests that carry no principal.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequirePermission ensures one of the principal's groups grants perm.
func RequirePermission(perm domain.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.HasPermission(perm) {
			return apperrors.NewForbidden("missing permission " + string(perm))
		}
		return c.Next()
	}
}

// Permissions builds route guards. When enforcement is off every guard only requires login.
type Permissions struct {
	Enforce bool
}

// Require returns the guard for perm.
func (p Permissions) Require(perm domain.Permission) fiber.Handler {
	if !p.Enforce {
		return RequireAuthenticated()
	}
	return RequirePermission(perm)
}
