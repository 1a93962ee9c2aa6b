package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/erp/credit/internal/domain/shared"
	"github.com/google/uuid"
)

// EventSerializer decodes JSON payloads into registered event types.
// It is how integration events delivered over HTTP become typed events on the bus.
type EventSerializer struct {
	mu       sync.RWMutex
	registry map[string]reflect.Type
}

// NewEventSerializer creates a new event serializer
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{
		registry: make(map[string]reflect.Type),
	}
}

// Register binds eventType to the concrete type of eventInstance
func (s *EventSerializer) Register(eventType string, eventInstance shared.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := reflect.TypeOf(eventInstance)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s.registry[eventType] = t
}

// Serialize serializes an event to JSON
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	return json.Marshal(event)
}

// Deserialize decodes data as eventType. The payload must carry an event ID
// (deduplication keys on it) and its type, if present, must match eventType.
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	t, ok := s.registry[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, shared.NewDomainError("UNKNOWN_EVENT_TYPE", fmt.Sprintf("unknown event type: %s", eventType))
	}

	eventPtr := reflect.New(t).Interface()
	if err := json.Unmarshal(data, eventPtr); err != nil {
		return nil, shared.NewDomainError("INVALID_EVENT_PAYLOAD", fmt.Sprintf("invalid %s payload: %v", eventType, err))
	}

	event, ok := eventPtr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("registered type for %s does not implement DomainEvent", eventType)
	}
	if event.EventID() == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_EVENT_PAYLOAD", "event id is required")
	}
	if event.EventType() != "" && event.EventType() != eventType {
		return nil, shared.NewDomainError("INVALID_EVENT_PAYLOAD",
			fmt.Sprintf("payload type %s does not match %s", event.EventType(), eventType))
	}
	if base, ok := eventPtr.(interface{ EnsureDefaults(string) }); ok {
		base.EnsureDefaults(eventType)
	}
	return event, nil
}

// IsRegistered checks if an event type is registered
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registry[eventType]
	return ok
}

// RegisteredTypes returns all registered event types, sorted
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]string, 0, len(s.registry))
	for t := range s.registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
