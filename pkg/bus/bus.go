// Package bus is a process-scoped publish/subscribe registry with typed topics.
//
// A [Bus] is constructed once by the host and passed to every collaborator that
// publishes or listens, so subscription lifetime is explicit: each
// [Subscribe] returns a [Subscription] that must be released with
// [Bus.Unsubscribe].
//
// Handlers run synchronously on the publishing goroutine, in subscription
// order. A handler may unsubscribe itself or others while being invoked.
//
//	b := bus.New()
//	sub := bus.Subscribe(b, bus.TilesDrawnEnd, func(e bus.TilesDrawn) { ... })
//	bus.Publish(b, bus.TilesDrawnEnd, bus.TilesDrawn{Source: "genes"})
//	b.Unsubscribe(sub)
package bus

import (
	"sync"

	"github.com/google/uuid"
)

// Topic names an event stream carrying payloads of type T.
type Topic[T any] struct {
	name string
}

// NewTopic returns a topic with the given name.
func NewTopic[T any](name string) Topic[T] {
	return Topic[T]{name: name}
}

// Name returns the topic name.
func (t Topic[T]) Name() string { return t.name }

// Subscription identifies a registered handler.
type Subscription struct {
	Topic string
	Token uuid.UUID
}

type handler struct {
	token uuid.UUID
	fn    any
}

// Bus routes published events to subscribed handlers. The zero value is not
// usable; create one with [New].
type Bus struct {
	mu     sync.RWMutex
	topics map[string][]handler
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{topics: make(map[string][]handler)}
}

// Subscribe registers fn for events on topic t.
func Subscribe[T any](b *Bus, t Topic[T], fn func(T)) Subscription {
	sub := Subscription{Topic: t.name, Token: uuid.New()}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics[t.name] = append(b.topics[t.name], handler{token: sub.Token, fn: fn})
	return sub
}

// Publish delivers v to every handler subscribed to t at the time of the call.
func Publish[T any](b *Bus, t Topic[T], v T) {
	b.mu.RLock()
	hs := append([]handler(nil), b.topics[t.name]...)
	b.mu.RUnlock()

	for _, h := range hs {
		if fn, ok := h.fn.(func(T)); ok {
			fn(v)
		}
	}
}

// Unsubscribe removes the handler registered under s. It reports whether a
// handler was removed; releasing the same subscription twice is a no-op.
func (b *Bus) Unsubscribe(s Subscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	hs := b.topics[s.Topic]
	for i, h := range hs {
		if h.token != s.Token {
			continue
		}
		hs = append(hs[:i:i], hs[i+1:]...)
		if len(hs) == 0 {
			delete(b.topics, s.Topic)
		} else {
			b.topics[s.Topic] = hs
		}
		return true
	}
	return false
}

// Subscribers returns the number of handlers registered for the named topic.
func (b *Bus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

// Len returns the total number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, hs := range b.topics {
		n += len(hs)
	}
	return n
}
