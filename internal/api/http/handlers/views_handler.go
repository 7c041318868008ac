package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// ViewsHandler renders the four ticket list pages. A failing data source is logged
// and the page is served with empty lists and "degraded": true.
type ViewsHandler struct {
	queries *service.QueryService
	logger  *zap.Logger
}

// NewViewsHandler constructs handler.
func NewViewsHandler(queries *service.QueryService, logger *zap.Logger) *ViewsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewsHandler{queries: queries, logger: logger}
}

// Inbox GET /inbox/.
func (h *ViewsHandler) Inbox(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	resp := dto.InboxResponse{
		TicketsUnassigned: []dto.TicketResponse{},
		TicketsAssigned:   []dto.TicketResponse{},
	}
	view, err := h.queries.Inbox(c.UserContext(), principal)
	degraded, err := h.degrade(c, service.ViewInbox, err)
	if err != nil {
		return err
	}
	if !degraded {
		resp.TicketsUnassigned = ticketResponses(view.Unassigned)
		resp.TicketsAssigned = ticketResponses(view.Assigned)
	}
	return c.JSON(fiber.Map{"data": resp, "degraded": degraded})
}

// MyTickets GET /my-tickets/.
func (h *ViewsHandler) MyTickets(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	resp := dto.MyTicketsResponse{
		Tickets:        []dto.TicketResponse{},
		TicketsWaiting: []dto.TicketResponse{},
	}
	view, err := h.queries.MyTickets(c.UserContext(), principal)
	degraded, err := h.degrade(c, service.ViewMyTickets, err)
	if err != nil {
		return err
	}
	if !degraded {
		resp.Tickets = ticketResponses(view.Assigned)
		resp.TicketsWaiting = ticketResponses(view.Waiting)
	}
	return c.JSON(fiber.Map{"data": resp, "degraded": degraded})
}

// AllTickets GET /all-tickets/.
func (h *ViewsHandler) AllTickets(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	tickets, err := h.queries.AllTickets(c.UserContext(), principal)
	return h.renderList(c, service.ViewAllTickets, tickets, err)
}

// Archive GET /archive/.
func (h *ViewsHandler) Archive(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	tickets, err := h.queries.Archive(c.UserContext(), principal)
	return h.renderList(c, service.ViewArchive, tickets, err)
}

func (h *ViewsHandler) renderList(c *fiber.Ctx, view string, tickets []domain.Ticket, queryErr error) error {
	degraded, err := h.degrade(c, view, queryErr)
	if err != nil {
		return err
	}
	resp := dto.TicketListResponse{Tickets: []dto.TicketResponse{}}
	if !degraded {
		resp.Tickets = ticketResponses(tickets)
	}
	return c.JSON(fiber.Map{"data": resp, "degraded": degraded})
}

func (h *ViewsHandler) degrade(c *fiber.Ctx, view string, err error) (bool, error) {
	if err == nil {
		return false, nil
	}
	if !apperrors.IsQueryUnavailable(err) {
		return false, err
	}
	h.logger.Error("list view served empty",
		zap.String("view", view),
		zap.String("request_id", observability.RequestID(c)),
		zap.Error(err))
	return true, nil
}
