package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
)

// FollowUpsHandler manages follow-up pages.
type FollowUpsHandler struct {
	service *service.FollowUpService
}

// NewFollowUpsHandler constructs handler.
func NewFollowUpsHandler(followUpService *service.FollowUpService) *FollowUpsHandler {
	return &FollowUpsHandler{service: followUpService}
}

// NewForm GET /followup/new/?ticket=id.
func (h *FollowUpsHandler) NewForm(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	initial := dto.FollowUpFormInitial{User: principal.UserID()}
	if id, err := strconv.ParseInt(c.Query("ticket"), 10, 64); err == nil && id > 0 {
		initial.Ticket = &id
	}
	return c.JSON(fiber.Map{"data": initial})
}

// Create POST /followup/new/. The ticket comes from the form, falling back to the query string.
func (h *FollowUpsHandler) Create(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var form dto.FollowUpForm
	if err := parseBody(c, &form); err != nil {
		return err
	}
	rawTicket := stringValue(form.Ticket)
	if rawTicket == "" {
		rawTicket = c.Query("ticket")
	}
	ticketID, err := requiredID("ticket", rawTicket)
	if err != nil {
		return err
	}
	date, err := optionalDate("date", form.Date)
	if err != nil {
		return err
	}
	input := service.FollowUpCreateInput{
		TicketID: ticketID,
		Title:    stringValue(form.Title),
		Text:     form.Text,
		Date:     date,
	}
	if _, err := h.service.Create(c.UserContext(), principal, input); err != nil {
		return err
	}
	return redirectInbox(c)
}

// EditForm GET /followup/edit/:id/.
func (h *FollowUpsHandler) EditForm(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "followup")
	if err != nil {
		return err
	}
	followUp, err := h.service.Get(c.UserContext(), principal, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": followUpResponse(followUp)})
}

// Edit POST /followup/edit/:id/.
func (h *FollowUpsHandler) Edit(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "followup")
	if err != nil {
		return err
	}
	var form dto.FollowUpForm
	if err := parseBody(c, &form); err != nil {
		return err
	}
	input := service.FollowUpEditInput{
		Title: form.Title,
		Text:  form.Text,
	}
	if form.Ticket != nil {
		ticketID, err := requiredID("ticket", *form.Ticket)
		if err != nil {
			return err
		}
		input.TicketID = &ticketID
	}
	if input.Date, err = optionalDate("date", form.Date); err != nil {
		return err
	}
	if _, err := h.service.Edit(c.UserContext(), principal, id, input); err != nil {
		return err
	}
	return redirectInbox(c)
}
