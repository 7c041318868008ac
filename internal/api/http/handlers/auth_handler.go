package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// SessionCookie configures the login cookie.
type SessionCookie struct {
	Name   string
	Secure bool
}

// AuthHandler serves login, logout and the profile settings page.
type AuthHandler struct {
	auth   *service.AuthService
	cookie SessionCookie
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, cookie SessionCookie) *AuthHandler {
	return &AuthHandler{auth: authService, cookie: cookie}
}

// LoginPage GET /.
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": fiber.Map{
		"next": safeNext(c.Query("next"), InboxPath),
	}})
}

// Login POST /. Form posts are redirected to next; JSON clients receive the token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var form dto.LoginForm
	if err := parseBody(c, &form); err != nil {
		return err
	}
	details := map[string]any{}
	if strings.TrimSpace(form.Username) == "" {
		details["username"] = "username field is required"
	}
	if form.Password == "" {
		details["password"] = "password field is required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid input", details)
	}

	_, session, err := h.auth.Login(c.UserContext(), strings.TrimSpace(form.Username), form.Password)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	if form.Next == "" {
		form.Next = c.Query("next")
	}
	next := safeNext(form.Next, InboxPath)
	if c.Is("json") {
		return c.JSON(fiber.Map{"data": dto.SessionResponse{
			Token:     session.Token,
			ExpiresAt: session.ExpiresAt,
			Next:      next,
		}})
	}
	return c.Redirect(next, fiber.StatusFound)
}

// Logout GET /logout/.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if err := h.auth.Logout(c.UserContext(), principal); err != nil {
		return err
	}
	c.ClearCookie(h.cookie.Name)
	return c.Redirect(auth.LoginPath, fiber.StatusFound)
}

// Settings GET /settings/.
func (h *AuthHandler) Settings(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(principal, &principal.User)})
}

// UpdateSettings POST /settings/.
func (h *AuthHandler) UpdateSettings(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var form dto.SettingsForm
	if err := parseBody(c, &form); err != nil {
		return err
	}
	input := service.SettingsInput{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
	}
	if _, err := h.auth.UpdateSettings(c.UserContext(), principal, input); err != nil {
		return err
	}
	return c.Redirect(safeNext(c.Query("next"), InboxPath), fiber.StatusFound)
}
