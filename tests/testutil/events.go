package testutil

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/google/uuid"
)

// MockEventHandler records the events the bus hands it. SetError makes
// every later delivery fail.
type MockEventHandler struct {
	eventTypes []string

	mu      sync.Mutex
	handled []shared.DomainEvent
	err     error
}

// NewMockEventHandler subscribes to eventTypes
func NewMockEventHandler(eventTypes ...string) *MockEventHandler {
	return &MockEventHandler{eventTypes: eventTypes}
}

func (h *MockEventHandler) EventTypes() []string { return h.eventTypes }

func (h *MockEventHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *MockEventHandler) SetError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

// Handled returns a copy of every event seen, failed deliveries included
func (h *MockEventHandler) Handled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.handled)
}

func (h *MockEventHandler) HandledCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

// HandledOfType returns the events of one type in delivery order
func (h *MockEventHandler) HandledOfType(eventType string) []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []shared.DomainEvent
	for _, e := range h.handled {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// WaitForEventCount waits until handler has seen at least count events
func WaitForEventCount(t *testing.T, handler *MockEventHandler, count int, timeout time.Duration) bool {
	t.Helper()
	return Eventually(t, timeout, func() bool { return handler.HandledCount() >= count })
}

// NewTestEvent returns a bare event envelope of eventType for a new sales order
func NewTestEvent(eventType string, tenantID uuid.UUID) shared.DomainEvent {
	e := shared.NewBaseDomainEvent(eventType, "SalesOrder", uuid.New(), tenantID)
	return &e
}
