package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent represents an event that occurred in the domain
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
}

// BaseDomainEvent provides common fields for all domain events
type BaseDomainEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	AggID     uuid.UUID `json:"aggregate_id"`
	AggType   string    `json:"aggregate_type"`
}

// EventID returns the unique event identifier
func (e *BaseDomainEvent) EventID() uuid.UUID {
	return e.ID
}

// EventType returns the type of the event
func (e *BaseDomainEvent) EventType() string {
	return e.Type
}

// OccurredAt returns when the event occurred
func (e *BaseDomainEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID returns the ID of the aggregate that produced this event
func (e *BaseDomainEvent) AggregateID() uuid.UUID {
	return e.AggID
}

// AggregateType returns the type of the aggregate
func (e *BaseDomainEvent) AggregateType() string {
	return e.AggType
}

// NewBaseDomainEvent creates a new base domain event
func NewBaseDomainEvent(eventType, aggType string, aggID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: Now(),
		AggID:     aggID,
		AggType:   aggType,
	}
}

// NewBaseDomainEventWithID creates a base event with a caller-supplied ID.
// Producers that retry delivery reuse the same ID so consumers can deduplicate.
func NewBaseDomainEventWithID(id uuid.UUID, eventType, aggType string, aggID uuid.UUID) BaseDomainEvent {
	e := NewBaseDomainEvent(eventType, aggType, aggID)
	if id != uuid.Nil {
		e.ID = id
	}
	return e
}

// EnsureDefaults fills in the type and timestamp of an event decoded from a payload that omitted them
func (e *BaseDomainEvent) EnsureDefaults(eventType string) {
	if e.Type == "" {
		e.Type = eventType
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = Now()
	}
}
