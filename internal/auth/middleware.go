package auth

import (
	"context"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// LoginPath is where unauthenticated page requests are sent.
const LoginPath = "/"

// Authenticator resolves a session token into the requesting principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Principal, error)
}

// AuthMiddleware validates session cookies or bearer tokens and loads principals.
type AuthMiddleware struct {
	authenticator Authenticator
	cookieName    string
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(authenticator Authenticator, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{authenticator: authenticator, cookieName: cookieName}
}

// Handle enforces authentication for protected routes. Page requests (GET) without a
// valid session are redirected to the login page with the original path in next.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token := m.extractToken(c)
	if token == "" {
		return m.reject(c, apperrors.NewUnauthorized("authentication required"))
	}

	principal, err := m.authenticator.Authenticate(c.UserContext(), token)
	if err != nil {
		return m.reject(c, err)
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

func (m *AuthMiddleware) extractToken(c *fiber.Ctx) string {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Cookies(m.cookieName)
}

func (m *AuthMiddleware) reject(c *fiber.Ctx, err error) error {
	if !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		return err
	}
	if c.Method() == fiber.MethodGet {
		return c.Redirect(LoginPath+"?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
	}
	return err
}

// PrincipalFromContext retrieves the authenticated user.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*domain.Principal)
	return principal, ok
}

// SetPrincipal stores the principal on the request.
func SetPrincipal(c *fiber.Ctx, principal *domain.Principal) {
	c.Locals(principalKey, principal)
}
