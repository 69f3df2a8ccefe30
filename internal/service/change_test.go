package service

import (
	"errors"
	"testing"
	"time"

	"diligence-tracker/internal/model"
)

func TestChangeCompletingSetsCompletionDate(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	r := model.Request{ID: 1, Status: model.StatusOpen}

	SetStatus(model.StatusCompleted).ApplyTo(&r, now)

	if r.Status != model.StatusCompleted {
		t.Fatalf("status = %q", r.Status)
	}
	want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	if r.CompletedAt == nil || !r.CompletedAt.Equal(want) {
		t.Fatalf("CompletedAt = %v, want %v", r.CompletedAt, want)
	}

	cols := SetStatus(model.StatusCompleted).Columns(now)
	if got, ok := cols["completed_at"].(time.Time); !ok || !got.Equal(want) {
		t.Fatalf("completed_at column = %v, want %v", cols["completed_at"], want)
	}
}

func TestChangeReopeningClearsCompletionDate(t *testing.T) {
	done := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	r := model.Request{ID: 1, Status: model.StatusCompleted, CompletedAt: &done}

	SetStatus(model.StatusInProgress).ApplyTo(&r, time.Now())

	if r.CompletedAt != nil {
		t.Fatalf("CompletedAt = %v, want nil", r.CompletedAt)
	}
	cols := SetStatus(model.StatusInProgress).Columns(time.Now())
	v, ok := cols["completed_at"]
	if !ok || v != nil {
		t.Fatalf("completed_at column = %v (present %v), want explicit nil", v, ok)
	}
	if cols["status"] != model.StatusInProgress {
		t.Fatalf("status column = %v", cols["status"])
	}
}

func TestChangeValidate(t *testing.T) {
	tests := []struct {
		name    string
		change  Change
		wantErr bool
	}{
		{"valid status", SetStatus(model.StatusBlocked), false},
		{"bad status", SetStatus("done"), true},
		{"valid priority", SetPriority(model.PriorityLow), false},
		{"bad priority", SetPriority("urgent"), true},
		{"clear due date", SetDueDate(nil), false},
		{"description", SetDescription(""), false},
		{"unknown field", Change{Field: "title"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.change.Validate()
			if tt.wantErr != (err != nil) {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Fatalf("error %v is not ErrValidation", err)
			}
		})
	}
}

func TestSetAssigneesKeepsOrderWithoutDuplicates(t *testing.T) {
	ch := SetAssignees(3, 1, 3, 0, 2)
	want := model.IDList{3, 1, 2}
	if len(ch.Assignees) != len(want) {
		t.Fatalf("assignees = %v, want %v", ch.Assignees, want)
	}
	for i := range want {
		if ch.Assignees[i] != want[i] {
			t.Fatalf("assignees = %v, want %v", ch.Assignees, want)
		}
	}
	r := model.Request{}
	ch.ApplyTo(&r, time.Now())
	if id, ok := r.PrimaryAssignee(); !ok || id != 3 {
		t.Fatalf("primary = %d, %v", id, ok)
	}
}
