package events

import (
	"sync/atomic"
	"testing"
)

func TestPublishReachesSubscribers(t *testing.T) {
	bus := NewBus()
	var comments, messages atomic.Int32
	bus.Subscribe(CommentCreated, func(e Event) {
		if e.RequestID == 7 {
			comments.Add(1)
		}
	})
	bus.Subscribe(MessageCreated, func(Event) { messages.Add(1) })

	bus.Publish(Event{Type: CommentCreated, RequestID: 7})
	bus.Wait()

	if comments.Load() != 1 {
		t.Fatalf("expected 1 comment event, got %d", comments.Load())
	}
	if messages.Load() != 0 {
		t.Fatalf("message subscriber should not fire, got %d", messages.Load())
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()
	var calls atomic.Int32
	stop := bus.Subscribe(MessageCreated, func(Event) { calls.Add(1) })
	bus.Subscribe(MessageCreated, func(Event) { calls.Add(10) })

	stop()
	bus.PublishSync(Event{Type: MessageCreated})

	if calls.Load() != 10 {
		t.Fatalf("expected only the remaining subscriber to fire, got %d", calls.Load())
	}
}

func TestPublishSetsTimestamp(t *testing.T) {
	bus := NewBus()
	var stamped atomic.Bool
	bus.Subscribe(RequestChanged, func(e Event) { stamped.Store(!e.Timestamp.IsZero()) })

	bus.PublishSync(Event{Type: RequestChanged})

	if !stamped.Load() {
		t.Fatal("expected timestamp to be set")
	}
}
