package bus

import (
	"log/slog"
	"sync"
)

type Topic string

const (
	TopicTasksChanged    Topic = "tasks.changed"
	TopicPaymentsChanged Topic = "payments.changed"
	TopicWindowChanged   Topic = "window.changed"
)

type Event struct {
	Topic      Topic
	EmployeeID string
	EntityID   string
	Action     string
}

type Handler func(Event)

type subscription struct {
	id      int
	handler Handler
}

// Bus is the in-process synchronization bus. Publishers call Publish after a
// mutation has been committed; delivery is synchronous on the publishing
// goroutine and events are handed to subscribers in publish order. Handlers
// must not publish from within a delivery.
type Bus struct {
	mu        sync.Mutex
	deliverMu sync.Mutex
	nextID    int
	subs      map[Topic][]subscription
}

func New() *Bus {
	return &Bus{subs: make(map[Topic][]subscription)}
}

// Subscribe registers a handler for a topic and returns an unsubscribe func.
func (b *Bus) Subscribe(topic Topic, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		current := b.subs[topic]
		for i, sub := range current {
			if sub.id == id {
				b.subs[topic] = append(current[:i:i], current[i+1:]...)
				return
			}
		}
	}
}

func (b *Bus) Publish(evt Event) {
	b.mu.Lock()
	current := b.subs[evt.Topic]
	handlers := make([]Handler, len(current))
	for i, sub := range current {
		handlers[i] = sub.handler
	}
	b.mu.Unlock()

	// deliverMu keeps the fan-out of one event ahead of the next, so
	// subscribers observe events in commit order.
	b.deliverMu.Lock()
	defer b.deliverMu.Unlock()
	for _, handler := range handlers {
		handler(evt)
	}
	if len(handlers) == 0 {
		slog.Debug("event published with no subscribers", "topic", string(evt.Topic))
	}
}
