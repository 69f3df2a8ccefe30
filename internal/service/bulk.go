package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"diligence-tracker/internal/notify"
)

// BulkKind names a bulk action.
type BulkKind string

const (
	BulkStatus   BulkKind = "status"
	BulkAssign   BulkKind = "assign"
	BulkPriority BulkKind = "priority"
	BulkDelete   BulkKind = "delete"
)

// BulkAction describes what to do with every selected request.
type BulkAction struct {
	Kind       BulkKind `json:"action"`
	Status     string   `json:"status,omitempty"`
	Priority   string   `json:"priority,omitempty"`
	AssigneeID uint     `json:"assignee_id,omitempty"`
	Confirmed  bool     `json:"confirmed,omitempty"`
}

func (a BulkAction) change() (Change, error) {
	var ch Change
	switch a.Kind {
	case BulkStatus:
		ch = SetStatus(a.Status)
	case BulkPriority:
		ch = SetPriority(a.Priority)
	case BulkAssign:
		if a.AssigneeID == 0 {
			return Change{}, invalid("assignee is required")
		}
		ch = SetAssignees(a.AssigneeID)
	default:
		return Change{}, invalid("unknown bulk action %q", a.Kind)
	}
	return ch, ch.Validate()
}

// BulkFailure records why one request was not updated.
type BulkFailure struct {
	ID     uint   `json:"id"`
	Reason string `json:"reason"`
}

// BulkResult lists the outcome for every id, in input order.
type BulkResult struct {
	Succeeded []uint        `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

// BulkBackend persists bulk changes.
type BulkBackend interface {
	Backend
	Delete(ctx context.Context, id, actor uint) error
}

// BulkExecutor runs one action over many requests concurrently. There is no
// rollback: requests that were updated stay updated when others fail.
type BulkExecutor struct {
	backend  BulkBackend
	notifier notify.Notifier
}

func NewBulkExecutor(backend BulkBackend, notifier notify.Notifier) *BulkExecutor {
	return &BulkExecutor{backend: backend, notifier: notifier}
}

// Run applies action to ids and waits for every call to settle. Input errors
// (empty ids, bad values, an unconfirmed delete) are returned before any
// request is touched; per-request failures are reported in the result and
// summed up in one notification addressed to actor.
func (b *BulkExecutor) Run(ctx context.Context, ids []uint, action BulkAction, actor uint) (BulkResult, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return BulkResult{}, ErrEmptySelection
	}

	var apply func(ctx context.Context, id uint) error
	if action.Kind == BulkDelete {
		if !action.Confirmed {
			return BulkResult{}, ErrConfirmationRequired
		}
		apply = func(ctx context.Context, id uint) error {
			return b.backend.Delete(ctx, id, actor)
		}
	} else {
		ch, err := action.change()
		if err != nil {
			return BulkResult{}, err
		}
		apply = func(ctx context.Context, id uint) error {
			return b.backend.ApplyChange(ctx, id, ch, actor)
		}
	}

	bg := context.WithoutCancel(ctx)
	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id uint) {
			defer wg.Done()
			errs[i] = apply(bg, id)
		}(i, id)
	}
	wg.Wait()

	res := BulkResult{Succeeded: []uint{}, Failed: []BulkFailure{}}
	for i, id := range ids {
		if errs[i] == nil {
			res.Succeeded = append(res.Succeeded, id)
			continue
		}
		log.Printf("[warn] bulk %s request %d: %v", action.Kind, id, errs[i])
		res.Failed = append(res.Failed, BulkFailure{ID: id, Reason: failureReason(errs[i])})
	}
	n := bulkNotification(action.Kind, res, len(ids))
	n.MemberID = actor
	b.notifier.Notify(bg, n)
	return res, nil
}

// RunSelection runs action over sel and clears it once the batch settles.
// The selection is kept when the batch is rejected up front.
func (b *BulkExecutor) RunSelection(ctx context.Context, sel *Selection, action BulkAction, actor uint) (BulkResult, error) {
	res, err := b.Run(ctx, sel.IDs(), action, actor)
	if err != nil {
		return res, err
	}
	sel.Clear()
	return res, nil
}

func bulkNotification(kind BulkKind, res BulkResult, total int) notify.Notification {
	if len(res.Failed) > 0 {
		return notify.Notification{
			Level:   notify.Warning,
			Message: fmt.Sprintf("Some updates failed (%d of %d)", len(res.Failed), total),
		}
	}
	verb := "Updated"
	if kind == BulkDelete {
		verb = "Deleted"
	}
	return notify.Notification{
		Level:   notify.Success,
		Message: fmt.Sprintf("%s %d requests", verb, total),
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, ErrValidation):
		return "invalid value"
	default:
		return "update failed"
	}
}
