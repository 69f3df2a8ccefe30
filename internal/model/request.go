package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// Request statuses.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusBlocked    = "blocked"
)

// Request priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Statuses lists every valid request status.
var Statuses = []string{StatusOpen, StatusInProgress, StatusCompleted, StatusBlocked}

// Priorities lists every valid request priority, highest first.
var Priorities = []string{PriorityHigh, PriorityMedium, PriorityLow}

// ValidStatus reports whether s is one of Statuses.
func ValidStatus(s string) bool {
	return slices.Contains(Statuses, s)
}

// ValidPriority reports whether p is one of Priorities.
func ValidPriority(p string) bool {
	return slices.Contains(Priorities, p)
}

// PriorityRank orders priorities high(0) < medium(1) < low(2). Unknown values
// rank after low.
func PriorityRank(p string) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Request is a single due-diligence checklist item tracked against a deal.
type Request struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	DealID         uint       `gorm:"index;not null" json:"deal_id"`
	CategoryID     uint       `gorm:"index;not null" json:"category_id"`
	SubcategoryID  *uint      `gorm:"index" json:"subcategory_id,omitempty"`
	Title          string     `gorm:"not null" json:"title"`
	Description    string     `json:"description,omitempty"`
	Status         string     `gorm:"default:open;index" json:"status"`
	Priority       string     `gorm:"default:medium" json:"priority"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Assignees      IDList     `gorm:"type:text" json:"assignees"`
	Reviewers      IDList     `gorm:"type:text" json:"reviewers"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
	CreatedBy      *uint      `json:"created_by,omitempty"`
	UpdatedBy      *uint      `json:"updated_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsCompleted reports whether the request is in the completed status.
func (r Request) IsCompleted() bool {
	return r.Status == StatusCompleted
}

// PrimaryAssignee returns the first assignee, if any.
func (r Request) PrimaryAssignee() (uint, bool) {
	if len(r.Assignees) == 0 {
		return 0, false
	}
	return r.Assignees[0], true
}

// IDList is an ordered list of member ids stored as a JSON array.
type IDList []uint

// Value implements driver.Valuer.
func (l IDList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]uint(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *IDList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = IDList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("scan id list: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*l = IDList{}
		return nil
	}
	var ids []uint
	if err := json.Unmarshal(raw, &ids); err != nil {
		return fmt.Errorf("scan id list: %w", err)
	}
	*l = ids
	return nil
}

// Contains reports whether id is in the list.
func (l IDList) Contains(id uint) bool {
	return slices.Contains(l, id)
}
