package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/hospitality-auth/internal/config"
	"github.com/spec-kit/hospitality-auth/internal/events"
	"github.com/spec-kit/hospitality-auth/internal/service"
)

// StartNotificationWorker subscribes the account notification stubs to the dispatcher.
func StartNotificationWorker(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *service.NotificationService {
	svc := service.NewNotificationService(dispatcher, logger.Named("notifications"), cfg)
	svc.RegisterHandlers()
	logger.Info("notification worker started",
		zap.Bool("email", cfg.EmailFrom != ""),
		zap.Bool("webhook", cfg.WebhookURL != ""))
	return svc
}
