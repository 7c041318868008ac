package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
)

// TicketsHandler manages ticket create, edit and detail pages.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// NewForm GET /ticket/new/.
func (h *TicketsHandler) NewForm(c *fiber.Ctx) error {
	if _, err := requirePrincipal(c); err != nil {
		return err
	}
	initial := dto.TicketResponse{Status: domain.StatusPtr(domain.TicketStatusTodo)}
	return c.JSON(fiber.Map{"data": dto.TicketFormOptions{
		Statuses: domain.TicketStatuses,
		Initial:  &initial,
	}})
}

// Create POST /ticket/new/. The caller becomes the owner and status starts at TODO.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var form dto.TicketForm
	if err := parseBody(c, &form); err != nil {
		return err
	}
	input := service.TicketCreateInput{
		Title:       stringValue(form.Title),
		Description: form.Description,
		Status:      form.Status,
	}
	if _, err := h.service.Create(c.UserContext(), principal, input); err != nil {
		return err
	}
	return redirectInbox(c)
}

// EditForm GET /ticket/edit/:id/.
func (h *TicketsHandler) EditForm(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	ticket, err := h.service.Get(c.UserContext(), principal, id)
	if err != nil {
		return err
	}
	initial := ticketResponse(ticket)
	return c.JSON(fiber.Map{"data": dto.TicketFormOptions{
		Statuses: domain.TicketStatuses,
		Initial:  &initial,
	}})
}

// Edit POST /ticket/edit/:id/. Only submitted fields change.
func (h *TicketsHandler) Edit(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	var form dto.TicketForm
	if err := parseBody(c, &form); err != nil {
		return err
	}
	input := service.TicketEditInput{
		Title:       form.Title,
		Description: form.Description,
		Status:      form.Status,
	}
	if input.OwnerID, err = optionalRef("owner", form.Owner); err != nil {
		return err
	}
	if input.AssignedToID, err = optionalRef("assigned_to", form.AssignedTo); err != nil {
		return err
	}
	if input.WaitingForID, err = optionalRef("waiting_for", form.WaitingFor); err != nil {
		return err
	}
	if _, err := h.service.Edit(c.UserContext(), principal, id, input); err != nil {
		return err
	}
	return redirectInbox(c)
}

// Detail GET /ticket/:id/.
func (h *TicketsHandler) Detail(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	detail, err := h.service.Detail(c.UserContext(), principal, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(detail)})
}
