package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/erp/fulfillment/internal/domain/trade"
)

// ErrUnknownEventType is returned for an outbox payload whose event type
// has no registered decoder
var ErrUnknownEventType = errors.New("unknown event type")

type decodeFunc func(payload []byte) (shared.DomainEvent, error)

// EventSerializer turns events into outbox payloads and back. Only types
// registered with Register can be decoded.
type EventSerializer struct {
	mu       sync.RWMutex
	decoders map[string]decodeFunc
}

// NewEventSerializer returns a serializer with no types registered
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{decoders: make(map[string]decodeFunc)}
}

// NewRegisteredSerializer returns a serializer that knows every event the
// stock ledger and the sales order lifecycle emit
func NewRegisteredSerializer() *EventSerializer {
	s := NewEventSerializer()

	Register[trade.SalesOrderCreatedEvent](s, trade.EventTypeSalesOrderCreated)
	Register[trade.SalesOrderStatusChangedEvent](s, trade.EventTypeSalesOrderStatusChanged)
	Register[trade.ExpectedReturnCreatedEvent](s, trade.EventTypeExpectedReturnCreated)
	Register[trade.ExpectedReturnReceivedEvent](s, trade.EventTypeExpectedReturnReceived)

	// every ledger movement shares one payload shape
	Register[inventory.StockLineRegisteredEvent](s, inventory.EventTypeStockLineRegistered)
	for _, eventType := range inventory.StockEventTypes {
		if eventType != inventory.EventTypeStockLineRegistered {
			Register[inventory.StockMovedEvent](s, eventType)
		}
	}
	return s
}

// Register binds eventType to the payload struct T. A later registration
// for the same type replaces the earlier one.
func Register[T any, P interface {
	*T
	shared.DomainEvent
}](s *EventSerializer, eventType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decoders[eventType] = func(payload []byte) (shared.DomainEvent, error) {
		event := P(new(T))
		if err := json.Unmarshal(payload, event); err != nil {
			return nil, err
		}
		return event, nil
	}
}

// Serialize encodes an event as its JSON payload
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	return json.Marshal(event)
}

// Deserialize decodes a payload into the concrete type registered for eventType
func (s *EventSerializer) Deserialize(eventType string, payload []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	decode, ok := s.decoders[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, eventType)
	}

	event, err := decode(payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", eventType, err)
	}
	return event, nil
}

// IsRegistered reports whether eventType can be decoded
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.decoders[eventType]
	return ok
}

// RegisteredTypes lists the decodable event types in sorted order
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.decoders))
}
