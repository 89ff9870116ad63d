// Package events implements a small in-process pub/sub bus carrying the
// scheduler's observer notifications.
package events

import "sync"

// Type enumerates scheduler event categories.
type Type string

const (
	// TypeSegmentStarted carries a scheduler.SegmentInfo payload.
	TypeSegmentStarted Type = "segment_started"
	// TypePlaybackError carries a human-readable message string.
	TypePlaybackError Type = "playback_error"
	// TypeQueueEmpty carries no payload.
	TypeQueueEmpty Type = "queue_empty"
)

// Event pairs a type with its payload.
type Event struct {
	Type    Type
	Payload any
}

// Subscriber receives events.
type Subscriber chan Event

// Bus implements a simple in-process pubsub. Slow subscribers drop
// events instead of blocking the publisher.
type Bus struct {
	mu   sync.RWMutex
	subs map[Type][]Subscriber
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Type][]Subscriber)}
}

// Subscribe registers a subscriber for an event type.
func (b *Bus) Subscribe(t Type) Subscriber {
	ch := make(Subscriber, 8)
	b.mu.Lock()
	b.subs[t] = append(b.subs[t], ch)
	b.mu.Unlock()
	return ch
}

// Publish sends the payload to all subscribers of the type.
func (b *Bus) Publish(t Type, payload any) {
	b.mu.RLock()
	subs := append([]Subscriber(nil), b.subs[t]...)
	b.mu.RUnlock()
	for _, sub := range subs {
		select {
		case sub <- Event{Type: t, Payload: payload}:
		default:
		}
	}
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus) Unsubscribe(t Type, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[t]
	for i, candidate := range subs {
		if candidate == sub {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	b.subs[t] = subs
	close(sub)
}
