package service

import (
	"sync"
	"sync/atomic"
	"time"
)

// EventType names a catalog change
type EventType string

const (
	EventModelCreated   EventType = "model_created"
	EventModelsImported EventType = "models_imported"
	EventSchemaReloaded EventType = "schema_reloaded"
)

// Event is one change made through the catalog
type Event struct {
	Type    EventType `json:"type"`
	Model   string    `json:"model,omitempty"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload,omitempty"`
}

// EventBus fans catalog events out to channel subscribers.
// Publishing never blocks: a subscriber with a full channel misses the event.
type EventBus struct {
	mu      sync.RWMutex
	subs    map[int]chan<- Event
	next    int
	dropped atomic.Uint64
}

func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[int]chan<- Event)}
}

// Subscribe registers ch and returns a function that removes it
func (eb *EventBus) Subscribe(ch chan<- Event) (unsubscribe func()) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	id := eb.next
	eb.next++
	eb.subs[id] = ch

	return func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()
		delete(eb.subs, id)
	}
}

// Publish stamps the event time if unset and offers it to every subscriber.
// A nil bus drops the event.
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, ch := range eb.subs {
		select {
		case ch <- event:
		default:
			eb.dropped.Add(1)
		}
	}
}

// Dropped reports how many deliveries were skipped because a subscriber was full
func (eb *EventBus) Dropped() uint64 {
	return eb.dropped.Load()
}
