package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventLinkProposed = "link_proposed"
	EventLinkAccepted = "link_accepted"
	EventLinkRejected = "link_rejected"
	EventLinkRemoved  = "link_removed"
	EventLinksReset   = "links_reset"

	EventScheduleCreated  = "schedule_created"
	EventScheduleApproved = "schedule_approved"
	EventScheduleRejected = "schedule_rejected"
	EventScheduleEdited   = "schedule_edited"
	EventScheduleDeleted  = "schedule_deleted"

	EventPaymentRecorded  = "payment_recorded"
	EventPaymentConfirmed = "payment_confirmed"
	EventPaymentRejected  = "payment_rejected"
	EventPaymentDeleted   = "payment_deleted"

	EventPaymentsReset   = "payments_reset"
	EventBalancesCleared = "balances_cleared"
)

// PairEventPayload is the minimal snapshot attached to every domain
// event: enough for consumers to know which two parties are affected.
type PairEventPayload struct {
	EntityID   string `json:"entity_id,omitempty"`
	EmployerID string `json:"employer_id"`
	NannyID    string `json:"nanny_id"`
	Status     string `json:"status,omitempty"`
	Amount     string `json:"amount,omitempty"`
	Hours      string `json:"hours,omitempty"`
	Rate       string `json:"rate,omitempty"`
	ChangedBy  string `json:"changed_by,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers a handler for every listed event type.
func (b *EventBus) SubscribeAll(eventTypes []string, handler EventHandler) {
	for _, t := range eventTypes {
		b.Subscribe(t, handler)
	}
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}

// AllEventTypes lists every domain event type, for consumers that watch
// the whole stream.
func AllEventTypes() []string {
	return []string{
		EventLinkProposed, EventLinkAccepted, EventLinkRejected, EventLinkRemoved, EventLinksReset,
		EventScheduleCreated, EventScheduleApproved, EventScheduleRejected, EventScheduleEdited, EventScheduleDeleted,
		EventPaymentRecorded, EventPaymentConfirmed, EventPaymentRejected, EventPaymentDeleted,
		EventPaymentsReset, EventBalancesCleared,
	}
}
