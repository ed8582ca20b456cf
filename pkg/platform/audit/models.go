// Package audit captures key domain actions as events. Events are emitted
// from services through a Publisher, drained by a background worker, and
// fanned out to a store and an optional Kafka sink.
package audit

import (
	"context"
	"time"

	id "github.com/WenyeZhou51/rcssa-match-backend/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose, enabling
// different retention policies and routing downstream.
type EventCategory string

const (
	// CategoryCompliance covers events about the existence and pairing of
	// registrant records.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events useful for debugging and operational
	// visibility, such as self-healing repairs.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic. Keep it transport-agnostic so stores
// and sinks can fan out.
type Event struct {
	Category     EventCategory
	Timestamp    time.Time
	RegistrantID id.RegistrantID
	// PartnerID is set on pairing events; nil UUID otherwise.
	PartnerID id.RegistrantID
	Action    string
	Email     string
	Reason    string
	RequestID string
}

// Actions emitted by the matching engine.
const (
	EventRegistrantRegistered = "registrant_registered"
	EventMatchCommitted       = "match_committed"
	EventMatchHealed          = "match_healed"
	EventRegistrantDeleted    = "registrant_deleted"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByRegistrant(ctx context.Context, registrantID id.RegistrantID) ([]Event, error)
}

// Publisher accepts events from domain logic without blocking request flow.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}
