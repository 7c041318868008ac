package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// Clock returns the current time. Services take one so edits can be pinned in tests.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

func requirePrincipal(principal *domain.Principal) error {
	if principal == nil || principal.User.ID == 0 {
		return apperrors.NewUnauthorized("authentication required")
	}
	return nil
}

func notFound(err error, resource string, id int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return err
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, clock Clock, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = clock.now()
	}
	_ = dispatcher.Publish(ctx, event)
}

func int64Ptr(v int64) *int64 {
	return &v
}
