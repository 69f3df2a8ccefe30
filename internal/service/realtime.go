package service

import (
	"context"
	"fmt"

	"diligence-tracker/internal/cache"
	"diligence-tracker/internal/events"
	"diligence-tracker/internal/notify"
)

// WireRealtime subscribes cache invalidation to row-change events so that
// writes from other producers (the bot, another process sharing the bus)
// reach readers. New broker messages also raise a notification. The returned
// function unsubscribes everything.
func WireRealtime(bus *events.Bus, qc *cache.QueryCache, notifier notify.Notifier) func() {
	unsubs := []func(){
		bus.Subscribe(events.RequestChanged, func(e events.Event) {
			qc.Invalidate(requestsKey(e.DealID))
		}),
		bus.Subscribe(events.CommentCreated, func(e events.Event) {
			qc.Invalidate(commentsKey(e.RequestID))
		}),
		bus.Subscribe(events.DocumentChanged, func(e events.Event) {
			qc.Invalidate(documentsKey(e.RequestID))
		}),
		bus.Subscribe(events.MessageCreated, func(e events.Event) {
			qc.Invalidate(keyMessages)
			if notifier != nil {
				notifier.Notify(context.Background(), notify.Notification{
					Level:   notify.Info,
					Message: fmt.Sprintf("New broker message #%d", e.RowID),
					DealID:  e.DealID,
				})
			}
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
