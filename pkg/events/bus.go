// Package events is the in-process publish-subscribe bus. Delivery is
// synchronous: side effects of a published event are visible before
// Publish returns, which downstream semantics rely on.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is one published message on a named topic.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	Topic     string         `json:"topic"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEvent builds an event with a fresh id and timestamp.
func NewEvent(topic string, payload map[string]any) Event {
	return Event{
		ID:        uuid.New(),
		Topic:     topic,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// Handler consumes one event. Handlers run in the publisher's
// goroutine and must not block indefinitely.
type Handler func(Event)

// Subscription identifies one handler registration for unsubscribe.
type Subscription struct {
	topic string
	id    uint64
}

type subscriber struct {
	id      uint64
	handler Handler
}

// Bus delivers events to topic subscribers synchronously. The lock
// serializes subscriber-list mutation only; delivery happens on a
// snapshot, so handlers may subscribe or unsubscribe reentrantly.
type Bus struct {
	mu     sync.RWMutex
	topics map[string][]subscriber
	nextID uint64
	logger *zap.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		topics: make(map[string][]subscriber),
		logger: logger.Named("events"),
	}
}

// Subscribe registers a handler for a topic.
func (b *Bus) Subscribe(topic string, handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.topics[topic] = append(b.topics[topic], subscriber{id: b.nextID, handler: handler})
	return Subscription{topic: topic, id: b.nextID}
}

// Unsubscribe removes a previously registered handler. Unknown
// subscriptions are ignored.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.topics[sub.topic]
	for i := range subs {
		if subs[i].id == sub.id {
			b.topics[sub.topic] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish delivers the event to every subscriber of its topic, in
// subscription order, before returning. A panicking handler is logged
// and skipped; it never reaches the publisher.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	subs := make([]subscriber, len(b.topics[event.Topic]))
	copy(subs, b.topics[event.Topic])
	b.mu.RUnlock()

	for _, s := range subs {
		b.deliver(s, event)
	}
}

func (b *Bus) deliver(s subscriber, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Event handler panicked",
				zap.String("topic", event.Topic),
				zap.String("event_id", event.ID.String()),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()
	s.handler(event)
}

// Subscribers reports the number of handlers per topic, for
// introspection and tests.
func (b *Bus) Subscribers() map[string]int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]int, len(b.topics))
	for topic, subs := range b.topics {
		if len(subs) > 0 {
			out[topic] = len(subs)
		}
	}
	return out
}
