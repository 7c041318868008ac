package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	FollowUps      *handlers.FollowUpsHandler
	Attachments    *handlers.AttachmentsHandler
	Views          *handlers.ViewsHandler
	AuthMiddleware *auth.AuthMiddleware
	Permissions    auth.Permissions
}

// RegisterRoutes wires HTTP routes. Every page except login and the probes requires a session.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Get("/", cfg.Auth.LoginPage)
	app.Post("/", cfg.Auth.Login)

	login := cfg.AuthMiddleware.Handle
	require := func(resource, action string) fiber.Handler {
		return cfg.Permissions.Require(domain.NewPermission(resource, action))
	}

	app.Get("/logout/", login, cfg.Auth.Logout)
	app.Get("/settings/", login, cfg.Auth.Settings)
	app.Post("/settings/", login, cfg.Auth.UpdateSettings)

	app.Get("/inbox/", login, require(domain.ResourceTicket, domain.ActionView), cfg.Views.Inbox)
	app.Get("/my-tickets/", login, require(domain.ResourceTicket, domain.ActionView), cfg.Views.MyTickets)
	app.Get("/all-tickets/", login, require(domain.ResourceTicket, domain.ActionView), cfg.Views.AllTickets)
	app.Get("/archive/", login, require(domain.ResourceTicket, domain.ActionView), cfg.Views.Archive)

	app.Get("/ticket/new/", login, require(domain.ResourceTicket, domain.ActionAdd), cfg.Tickets.NewForm)
	app.Post("/ticket/new/", login, require(domain.ResourceTicket, domain.ActionAdd), cfg.Tickets.Create)
	app.Get("/ticket/edit/:id<int>/", login, require(domain.ResourceTicket, domain.ActionChange), cfg.Tickets.EditForm)
	app.Post("/ticket/edit/:id<int>/", login, require(domain.ResourceTicket, domain.ActionChange), cfg.Tickets.Edit)
	app.Get("/ticket/:id<int>/", login, require(domain.ResourceTicket, domain.ActionView), cfg.Tickets.Detail)

	app.Get("/followup/new/", login, require(domain.ResourceFollowUp, domain.ActionAdd), cfg.FollowUps.NewForm)
	app.Post("/followup/new/", login, require(domain.ResourceFollowUp, domain.ActionAdd), cfg.FollowUps.Create)
	app.Get("/followup/edit/:id<int>/", login, require(domain.ResourceFollowUp, domain.ActionChange), cfg.FollowUps.EditForm)
	app.Post("/followup/edit/:id<int>/", login, require(domain.ResourceFollowUp, domain.ActionChange), cfg.FollowUps.Edit)

	app.Get("/attachment/new/", login, require(domain.ResourceAttachment, domain.ActionAdd), cfg.Attachments.NewForm)
	app.Post("/attachment/new/", login, require(domain.ResourceAttachment, domain.ActionAdd), cfg.Attachments.Create)
	app.Get("/attachment/:id<int>/download/", login, require(domain.ResourceAttachment, domain.ActionView), cfg.Attachments.Download)
}
