package event

import (
	"slices"
	"sync"

	"github.com/erp/fulfillment/internal/domain/shared"
)

// AllEvents subscribes a handler to every event type
const AllEvents = "*"

// subscriptions routes event types to handlers for the in-memory bus
type subscriptions struct {
	mu     sync.RWMutex
	byType map[string][]shared.EventHandler
}

func newSubscriptions() *subscriptions {
	return &subscriptions{byType: make(map[string][]shared.EventHandler)}
}

// add subscribes handler to eventTypes. No types, or AllEvents among them,
// subscribes it to everything.
func (s *subscriptions) add(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 || slices.Contains(eventTypes, AllEvents) {
		eventTypes = []string{AllEvents}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, eventType := range eventTypes {
		if !slices.Contains(s.byType[eventType], handler) {
			s.byType[eventType] = append(s.byType[eventType], handler)
		}
	}
}

// remove drops every subscription of handler
func (s *subscriptions) remove(handler shared.EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for eventType, handlers := range s.byType {
		handlers = slices.DeleteFunc(slices.Clone(handlers), func(h shared.EventHandler) bool {
			return h == handler
		})
		if len(handlers) == 0 {
			delete(s.byType, eventType)
			continue
		}
		s.byType[eventType] = handlers
	}
}

// match returns the handlers for eventType, type-specific ones first.
// The returned slice is owned by the caller.
func (s *subscriptions) match(eventType string) []shared.EventHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if eventType == AllEvents {
		return slices.Clone(s.byType[AllEvents])
	}
	return slices.Concat(s.byType[eventType], s.byType[AllEvents])
}

// count returns the number of distinct subscribed handlers
func (s *subscriptions) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[shared.EventHandler]struct{})
	for _, handlers := range s.byType {
		for _, h := range handlers {
			seen[h] = struct{}{}
		}
	}
	return len(seen)
}
