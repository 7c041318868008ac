package domain

import (
	"path"
	"strconv"
	"strings"
	"time"
)

// Attachment is a file associated with a ticket.
type Attachment struct {
	ID          int64
	TicketID    int64
	FilePath    string
	Filename    string
	ContentType string
	SizeBytes   int64
	UserID      *int64
	CreatedAt   time.Time
}

// AttachmentFilename strips directory components from a client supplied name.
func AttachmentFilename(filename string) string {
	return path.Base(strings.ReplaceAll(filename, "\\", "/"))
}

// AttachmentPath derives the storage key for an uploaded file: tickets/<id>/<name>.
// Names that cannot be a path segment are stored as "upload".
func AttachmentPath(ticketID int64, filename string) string {
	name := AttachmentFilename(filename)
	if name == "." || name == "/" || name == ".." {
		name = "upload"
	}
	return path.Join("tickets", strconv.FormatInt(ticketID, 10), name)
}
