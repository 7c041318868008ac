package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/pkg/util/validation"
)

// AttachmentsHandler accepts uploads and streams stored files back.
type AttachmentsHandler struct {
	service *service.AttachmentService
}

// NewAttachmentsHandler constructs handler.
func NewAttachmentsHandler(attachmentService *service.AttachmentService) *AttachmentsHandler {
	return &AttachmentsHandler{service: attachmentService}
}

// NewForm GET /attachment/new/?ticket=id.
func (h *AttachmentsHandler) NewForm(c *fiber.Ctx) error {
	if _, err := requirePrincipal(c); err != nil {
		return err
	}
	data := fiber.Map{"ticket": nil}
	if id, err := strconv.ParseInt(c.Query("ticket"), 10, 64); err == nil && id > 0 {
		data["ticket"] = id
	}
	return c.JSON(fiber.Map{"data": data})
}

// Create POST /attachment/new/ with a multipart "file" part.
func (h *AttachmentsHandler) Create(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	rawTicket := c.FormValue("ticket")
	if rawTicket == "" {
		rawTicket = c.Query("ticket")
	}
	ticketID, err := requiredID("ticket", rawTicket)
	if err != nil {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return validation.FieldError("file", "file field is required")
	}
	file, err := header.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = h.service.Create(c.UserContext(), principal, ticketID, service.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Size:        header.Size,
		Content:     file,
	})
	if err != nil {
		return err
	}
	return redirectInbox(c)
}

// Download GET /attachment/:id/download/.
func (h *AttachmentsHandler) Download(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "attachment")
	if err != nil {
		return err
	}
	attachment, content, err := h.service.Open(c.UserContext(), principal, id)
	if err != nil {
		return err
	}
	c.Attachment(attachment.Filename)
	if attachment.ContentType != "" {
		c.Set(fiber.HeaderContentType, attachment.ContentType)
	}
	// The row's size_bytes is stale once a later upload replaced the file.
	size := -1
	if content.Size >= 0 {
		size = int(content.Size)
	}
	// fasthttp closes the stream once the body is written.
	return c.SendStream(content, size)
}
