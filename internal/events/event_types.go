package events

import (
	"time"

	"github.com/spec-kit/hospitality-auth/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventEstablishmentRegistered EventType = "establishment_registered"
	EventEstablishmentApproved   EventType = "establishment_approved"
	EventEstablishmentRejected   EventType = "establishment_rejected"
	EventEmployeeRegistered      EventType = "employee_registered"

	EventSessionCreated   EventType = "session_created"
	EventSessionDestroyed EventType = "session_destroyed"
)

// SessionEvents are published by a terminal's session manager, in the order sessions start and end.
var SessionEvents = []EventType{EventSessionCreated, EventSessionDestroyed}

// TenantEvents are published by the credential API as establishments and their staff change.
var TenantEvents = []EventType{
	EventEstablishmentRegistered,
	EventEstablishmentApproved,
	EventEstablishmentRejected,
	EventEmployeeRegistered,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services or the session manager.
type Event struct {
	ID              string      `json:"id"`
	Type            EventType   `json:"type"`
	EstablishmentID string      `json:"establishment_id,omitempty"`
	Actor           Actor       `json:"actor"`
	Timestamp       time.Time   `json:"timestamp"`
	Payload         interface{} `json:"payload"`
}

// EstablishmentRegisteredPayload payload.
type EstablishmentRegisteredPayload struct {
	Name       string                   `json:"name"`
	Type       domain.EstablishmentType `json:"type"`
	OwnerEmail string                   `json:"owner_email"`
}

// EstablishmentReviewedPayload payload for approval and rejection.
type EstablishmentReviewedPayload struct {
	Status domain.EstablishmentStatus `json:"status"`
}

// EmployeeRegisteredPayload payload.
type EmployeeRegisteredPayload struct {
	EmployeeID string      `json:"employee_id"`
	Email      string      `json:"email"`
	Role       domain.Role `json:"role"`
}

// SessionCreatedPayload payload; Source is "login" or "bootstrap".
type SessionCreatedPayload struct {
	Source string `json:"source"`
}

// SessionDestroyedPayload payload; Reason is one of the session end reasons.
type SessionDestroyedPayload struct {
	Reason string `json:"reason"`
}
