package bus

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Bus is an in-process publish/subscribe event bus. Subscribers name a
// kind prefix; delivery is non-blocking and drops events a slow
// subscriber cannot take.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]*subscriber
	nextID int
}

type subscriber struct {
	prefix string
	ch     chan Event
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[int]*subscriber)}
}

// Publish fans the event out to every subscriber whose prefix matches
// the event kind. The event id and timestamp are filled in if unset.
func (b *Bus) Publish(evt Event) {
	if evt.ID == "" {
		evt.ID = uuid.New().String()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if strings.HasPrefix(evt.Kind, sub.prefix) {
			select {
			case sub.ch <- evt:
			default:
			}
		}
	}
}

// Emit is shorthand for publishing a kind with a payload.
func (b *Bus) Emit(kind string, payload any) {
	b.Publish(Event{Kind: kind, Payload: payload})
}

// Subscribe registers a prefix subscription with the given channel
// buffer and returns the receive channel plus an unsubscribe func.
func (b *Bus) Subscribe(prefix string, buf int) (<-chan Event, func()) {
	ch := make(chan Event, buf)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = &subscriber{prefix: prefix, ch: ch}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}
