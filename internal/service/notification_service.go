package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/hospitality-auth/internal/config"
	"github.com/spec-kit/hospitality-auth/internal/events"
)

// NotificationService handles emitting notifications for account events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(n.handleEstablishmentRegistered, events.EventEstablishmentRegistered)
	n.dispatcher.Subscribe(n.handleEstablishmentReviewed, events.EventEstablishmentApproved, events.EventEstablishmentRejected)
	n.dispatcher.Subscribe(n.handleEmployeeRegistered, events.EventEmployeeRegistered)
}

func (n *NotificationService) handleEstablishmentRegistered(ctx context.Context, event events.Event) error {
	n.logger.Info("EstablishmentRegistered", zap.String("establishment_id", event.EstablishmentID), zap.Any("payload", event.Payload))
	// Platform operators review new tenants before their staff can sign in.
	n.sendWebhookNotificationStub(ctx, event)
	if p, ok := event.Payload.(events.EstablishmentRegisteredPayload); ok {
		n.sendEmailNotificationStub(ctx, event, p.OwnerEmail)
	}
	return nil
}

func (n *NotificationService) handleEstablishmentReviewed(ctx context.Context, event events.Event) error {
	n.logger.Info("EstablishmentReviewed", zap.String("establishment_id", event.EstablishmentID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleEmployeeRegistered(ctx context.Context, event events.Event) error {
	n.logger.Info("EmployeeRegistered", zap.String("establishment_id", event.EstablishmentID), zap.Any("payload", event.Payload))
	if p, ok := event.Payload.(events.EmployeeRegisteredPayload); ok {
		n.sendEmailNotificationStub(ctx, event, p.Email)
	}
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event, to string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" || to == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", to),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("establishment_id", event.EstablishmentID),
		zap.String("event_type", string(event.Type)))
}
