package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/hospitality-auth/internal/events"
)

// SessionAuditWorker writes an audit line for every terminal session start and end.
type SessionAuditWorker struct {
	logger   *zap.Logger
	terminal string
}

// StartSessionAuditWorker subscribes the audit worker to session events.
func StartSessionAuditWorker(dispatcher events.Dispatcher, logger *zap.Logger, terminal string) *SessionAuditWorker {
	w := &SessionAuditWorker{logger: logger.Named("audit"), terminal: terminal}
	if dispatcher == nil {
		return w
	}
	dispatcher.Subscribe(w.handle, events.SessionEvents...)
	return w
}

func (w *SessionAuditWorker) handle(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("terminal", w.terminal),
		zap.String("user_id", event.Actor.UserID),
		zap.String("role", string(event.Actor.Role)),
		zap.String("establishment_id", event.EstablishmentID),
		zap.Time("at", event.Timestamp),
	}
	switch p := event.Payload.(type) {
	case events.SessionCreatedPayload:
		fields = append(fields, zap.String("source", p.Source))
	case events.SessionDestroyedPayload:
		fields = append(fields, zap.String("reason", p.Reason))
	}
	w.logger.Info(string(event.Type), fields...)
	return nil
}
