package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/storage"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
	"github.com/spec-kit/helpdesk/pkg/util/validation"
)

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// AttachmentService stores uploaded files and their metadata.
type AttachmentService struct {
	store   repository.Store
	objects storage.ObjectStore
	logger  *zap.Logger
}

// NewAttachmentService constructs the service.
func NewAttachmentService(store repository.Store, objects storage.ObjectStore, logger *zap.Logger) *AttachmentService {
	return &AttachmentService{store: store, objects: objects, logger: logger}
}

// Create writes the file under tickets/<id>/<name> and records it. A later upload with
// the same name replaces the stored content. The file write is not rolled back when
// the row insert fails.
func (s *AttachmentService) Create(ctx context.Context, principal *domain.Principal, ticketID int64, upload Upload) (*domain.Attachment, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}
	if upload.Content == nil || strings.TrimSpace(upload.Filename) == "" {
		return nil, validation.FieldError("file", "file field is required")
	}
	if _, err := s.store.Tickets().GetByID(ctx, ticketID); err != nil {
		return nil, notFound(err, "ticket", ticketID)
	}

	key := domain.AttachmentPath(ticketID, upload.Filename)
	if err := s.objects.Put(ctx, key, upload.Content, upload.Size, upload.ContentType); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	attachment := &domain.Attachment{
		TicketID:    ticketID,
		FilePath:    key,
		Filename:    domain.AttachmentFilename(upload.Filename),
		ContentType: upload.ContentType,
		SizeBytes:   upload.Size,
		UserID:      int64Ptr(principal.UserID()),
	}
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		return tx.Attachments().Create(ctx, attachment)
	})
	if err != nil {
		s.logger.Warn("attachment stored without metadata row",
			zap.String("file_path", key), zap.Int64("ticket_id", ticketID), zap.Error(err))
		return nil, err
	}
	return attachment, nil
}

// Open returns the attachment metadata and the content currently stored at its path.
func (s *AttachmentService) Open(ctx context.Context, principal *domain.Principal, id int64) (*domain.Attachment, *storage.Object, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, nil, err
	}
	attachment, err := s.store.Attachments().GetByID(ctx, id)
	if err != nil {
		return nil, nil, notFound(err, "attachment", id)
	}
	content, err := s.objects.Open(ctx, attachment.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, apperrors.NewNotFound("attachment file", map[string]any{"id": id})
		}
		return nil, nil, err
	}
	return attachment, content, nil
}
