package service

import (
	"context"
	"log"
	"slices"
	"sync"
	"time"

	"diligence-tracker/internal/model"
	"diligence-tracker/internal/notify"
)

// Backend persists request changes.
type Backend interface {
	ApplyChange(ctx context.Context, id uint, ch Change, actor uint) error
}

// MsgUpdateFailed is shown when a background update is rejected.
const MsgUpdateFailed = "Failed to update request"

type overrideKey struct {
	id    uint
	field Field
}

type override struct {
	change Change
	gen    uint64
}

// Mutator applies request edits optimistically. Apply records the new value
// as an override before the backend call and returns at once; readers see
// it through Overlay until the call settles. A newer edit of the same field
// replaces the override, and only the newest edit may remove it. A rejected
// edit drops its override so reads fall back to the stored request.
type Mutator struct {
	backend  Backend
	notifier notify.Notifier
	now      func() time.Time

	mu        sync.Mutex
	gen       uint64
	overrides map[overrideKey]override
	wg        sync.WaitGroup
}

func NewMutator(backend Backend, notifier notify.Notifier) *Mutator {
	return &Mutator{
		backend:   backend,
		notifier:  notifier,
		now:       func() time.Time { return time.Now().UTC() },
		overrides: make(map[overrideKey]override),
	}
}

// Apply validates ch, records the override and issues the update in the
// background. Validation errors are returned without touching the backend.
// The change is stamped with the edit time unless it carries one, so the
// overlay and the stored row agree on derived dates. A failure is addressed
// to actor. The update is not cancelled when ctx is.
func (m *Mutator) Apply(ctx context.Context, id uint, ch Change, actor uint) error {
	if err := ch.Validate(); err != nil {
		return err
	}
	if ch.At.IsZero() {
		ch.At = m.now()
	}
	key := overrideKey{id: id, field: ch.Field}

	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.overrides[key] = override{change: ch, gen: gen}
	m.mu.Unlock()

	bg := context.WithoutCancel(ctx)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		err := m.backend.ApplyChange(bg, id, ch, actor)
		m.settle(key, gen)
		if err != nil {
			log.Printf("[warn] update request %d %s: %v", id, ch.Field, err)
			m.notifier.Notify(bg, notify.Notification{Level: notify.Error, Message: MsgUpdateFailed, MemberID: actor})
		}
	}()
	return nil
}

func (m *Mutator) settle(key overrideKey, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.overrides[key]; ok && o.gen == gen {
		delete(m.overrides, key)
	}
}

// Overlay returns r with any pending overrides applied.
func (m *Mutator) Overlay(r model.Request) model.Request {
	m.mu.Lock()
	var pending []override
	for k, o := range m.overrides {
		if k.id == r.ID {
			pending = append(pending, o)
		}
	}
	m.mu.Unlock()

	slices.SortFunc(pending, func(a, b override) int {
		switch {
		case a.gen < b.gen:
			return -1
		case a.gen > b.gen:
			return 1
		}
		return 0
	})
	for _, o := range pending {
		o.change.ApplyTo(&r, o.change.At)
	}
	return r
}

// OverlayAll applies Overlay to every request.
func (m *Mutator) OverlayAll(requests []model.Request) []model.Request {
	out := make([]model.Request, len(requests))
	for i, r := range requests {
		out[i] = m.Overlay(r)
	}
	return out
}

// Pending lists the fields of request id with unsettled edits.
func (m *Mutator) Pending(id uint) []Field {
	m.mu.Lock()
	defer m.mu.Unlock()
	var fields []Field
	for k := range m.overrides {
		if k.id == id {
			fields = append(fields, k.field)
		}
	}
	slices.Sort(fields)
	return fields
}

// Wait blocks until every issued update has settled.
func (m *Mutator) Wait() {
	m.wg.Wait()
}
