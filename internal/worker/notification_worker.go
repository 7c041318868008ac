package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/service"
)

// StartNotificationWorker registers the follow-up notification handlers on the dispatcher.
// Delivery stays synchronous with the publishing request.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) {
	if notificationService == nil {
		logger.Warn("notification service not configured; follow-up emails disabled")
		return
	}
	notificationService.RegisterHandlers()
	logger.Info("notification handlers registered")
}
