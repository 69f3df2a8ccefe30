// Package events is the realtime channel: repositories' callers publish row
// inserts and subscribers react, typically by invalidating cached queries.
package events

import (
	"sync"
	"time"

	"diligence-tracker/internal/logger"
)

// Type names an event.
type Type string

const (
	CommentCreated  Type = "comment.created"
	MessageCreated  Type = "message.created"
	RequestChanged  Type = "request.changed"
	DocumentChanged Type = "document.changed"
)

// Event carries the ids of the row that changed.
type Event struct {
	Type      Type
	DealID    uint
	RequestID uint
	RowID     uint
	Timestamp time.Time
}

// Handler reacts to an event.
type Handler func(Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus fans events out to subscribers.
type Bus struct {
	mu          sync.RWMutex
	nextID      uint64
	subscribers map[Type][]subscription
	wg          sync.WaitGroup
}

func NewBus() *Bus {
	return &Bus{subscribers: make(map[Type][]subscription)}
}

// Subscribe registers handler for t and returns a function that removes it.
func (b *Bus) Subscribe(t Type, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subscribers[t] = append(b.subscribers[t], subscription{id: id, handler: handler})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subscribers[t]
		for i, s := range subs {
			if s.id == id {
				b.subscribers[t] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers the event to every subscriber on its own goroutine.
func (b *Bus) Publish(e Event) {
	handlers := b.handlers(&e)
	logger.Debug("publish %s deal=%d request=%d row=%d handlers=%d", e.Type, e.DealID, e.RequestID, e.RowID, len(handlers))
	for _, h := range handlers {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			h(e)
		}(h)
	}
}

// PublishSync delivers the event on the caller's goroutine.
func (b *Bus) PublishSync(e Event) {
	for _, h := range b.handlers(&e) {
		h(e)
	}
}

// Wait blocks until handlers started by Publish have returned.
func (b *Bus) Wait() {
	b.wg.Wait()
}

func (b *Bus) handlers(e *Event) []Handler {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	subs := b.subscribers[e.Type]
	out := make([]Handler, len(subs))
	for i, s := range subs {
		out[i] = s.handler
	}
	return out
}
