// Package notify delivers short user-facing notifications ("toasts"). Backend
// error details never reach the message text.
package notify

import (
	"context"
	"log"
	"sync"
	"time"
)

// Level of a notification.
type Level string

const (
	Success Level = "success"
	Info    Level = "info"
	Warning Level = "warning"
	Error   Level = "error"
)

// Notification is one toast. MemberID addresses it to a single team member;
// zero means everyone.
type Notification struct {
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	DealID    uint      `json:"deal_id,omitempty"`
	MemberID  uint      `json:"member_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, n Notification)

func (f Func) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, x := range m {
		if x != nil {
			x.Notify(ctx, n)
		}
	}
}

// Log writes notifications to the standard logger.
type Log struct{}

func (Log) Notify(_ context.Context, n Notification) {
	log.Printf("[%s] %s", n.Level, n.Message)
}

type toast struct {
	seq uint64
	n   Notification
}

// Toasts keeps the most recent notifications until they are drained. An
// addressed notification is handed to its member once; a shared one is
// handed once to every member that drains.
type Toasts struct {
	mu    sync.Mutex
	limit int
	seq   uint64
	items []toast
	seen  map[uint]uint64
}

func NewToasts(limit int) *Toasts {
	if limit <= 0 {
		limit = 100
	}
	return &Toasts{limit: limit, seen: make(map[uint]uint64)}
}

func (t *Toasts) Notify(_ context.Context, n Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	t.items = append(t.items, toast{seq: t.seq, n: n})
	if over := len(t.items) - t.limit; over > 0 {
		t.items = append([]toast(nil), t.items[over:]...)
	}
}

// Drain returns the notifications addressed to member and the shared ones
// it has not seen yet, oldest first.
func (t *Toasts) Drain(member uint) []Notification {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := []Notification{}
	kept := t.items[:0]
	for _, it := range t.items {
		switch it.n.MemberID {
		case 0:
			if it.seq > t.seen[member] {
				out = append(out, it.n)
			}
			kept = append(kept, it)
		case member:
			out = append(out, it.n)
		default:
			kept = append(kept, it)
		}
	}
	t.items = kept
	t.seen[member] = t.seq
	return out
}
