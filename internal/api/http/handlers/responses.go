package handlers

import (
	"strconv"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/domain"
)

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Status:      ticket.Status,
		Owner:       ticket.OwnerID,
		AssignedTo:  ticket.AssignedToID,
		WaitingFor:  ticket.WaitingForID,
		ClosedDate:  ticket.ClosedDate,
		Created:     ticket.CreatedAt,
		Updated:     ticket.UpdatedAt,
	}
}

func ticketResponses(tickets []domain.Ticket) []dto.TicketResponse {
	out := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, ticketResponse(&tickets[i]))
	}
	return out
}

func ticketDetail(detail *domain.TicketDetail) dto.TicketDetailResponse {
	attachments := make([]dto.AttachmentResponse, 0, len(detail.Attachments))
	for i := range detail.Attachments {
		attachments = append(attachments, attachmentResponse(&detail.Attachments[i]))
	}
	followUps := make([]dto.FollowUpResponse, 0, len(detail.FollowUps))
	for i := range detail.FollowUps {
		followUps = append(followUps, followUpResponse(&detail.FollowUps[i]))
	}
	return dto.TicketDetailResponse{
		Ticket:      ticketResponse(&detail.Ticket),
		Attachments: attachments,
		FollowUps:   followUps,
	}
}

func followUpResponse(f *domain.FollowUp) dto.FollowUpResponse {
	return dto.FollowUpResponse{
		ID:       f.ID,
		Ticket:   f.TicketID,
		Date:     f.Date,
		Title:    f.Title,
		Text:     f.Text,
		User:     f.UserID,
		Created:  f.CreatedAt,
		Modified: f.ModifiedAt,
	}
}

func attachmentResponse(a *domain.Attachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:          a.ID,
		Ticket:      a.TicketID,
		File:        a.FilePath,
		Filename:    a.Filename,
		ContentType: a.ContentType,
		SizeBytes:   a.SizeBytes,
		User:        a.UserID,
		Created:     a.CreatedAt,
		URL:         "/attachment/" + strconv.FormatInt(a.ID, 10) + "/download/",
	}
}

func userResponse(principal *domain.Principal, user *domain.User) dto.UserResponse {
	groups := principal.Groups
	if groups == nil {
		groups = []string{}
	}
	return dto.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		FullName:  user.FullName(),
		Groups:    groups,
	}
}
