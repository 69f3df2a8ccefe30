package service

import (
	"time"

	"diligence-tracker/internal/model"
)

// Field names a request field that can be edited in place.
type Field string

const (
	FieldStatus      Field = "status"
	FieldPriority    Field = "priority"
	FieldDueDate     Field = "due_date"
	FieldAssignees   Field = "assignees"
	FieldDescription Field = "description"
)

// Change is a single-field edit of a request. At is when the edit was made;
// zero means when it is written.
type Change struct {
	Field       Field
	At          time.Time
	Status      string
	Priority    string
	DueDate     *time.Time
	Assignees   model.IDList
	Description string
}

func SetStatus(status string) Change {
	return Change{Field: FieldStatus, Status: status}
}

func SetPriority(priority string) Change {
	return Change{Field: FieldPriority, Priority: priority}
}

// SetDueDate sets or, with nil, clears the due date.
func SetDueDate(due *time.Time) Change {
	return Change{Field: FieldDueDate, DueDate: due}
}

// SetAssignees replaces the assignee list; the first id is the primary assignee.
func SetAssignees(ids ...uint) Change {
	return Change{Field: FieldAssignees, Assignees: dedupe(ids)}
}

func SetDescription(description string) Change {
	return Change{Field: FieldDescription, Description: description}
}

// Validate checks the new value against the field's domain.
func (c Change) Validate() error {
	switch c.Field {
	case FieldStatus:
		if !model.ValidStatus(c.Status) {
			return invalid("unknown status %q", c.Status)
		}
	case FieldPriority:
		if !model.ValidPriority(c.Priority) {
			return invalid("unknown priority %q", c.Priority)
		}
	case FieldDueDate, FieldAssignees, FieldDescription:
	default:
		return invalid("field %q cannot be edited", c.Field)
	}
	return nil
}

// Columns returns the database columns written by the change. A status
// change always carries the completion date with it: completing sets it to
// the current date, any other status clears it.
func (c Change) Columns(now time.Time) map[string]any {
	now = c.stamp(now)
	switch c.Field {
	case FieldStatus:
		cols := map[string]any{"status": c.Status, "completed_at": nil}
		if c.Status == model.StatusCompleted {
			cols["completed_at"] = completionDate(now)
		}
		return cols
	case FieldPriority:
		return map[string]any{"priority": c.Priority}
	case FieldDueDate:
		if c.DueDate == nil {
			return map[string]any{"due_date": nil}
		}
		return map[string]any{"due_date": c.DueDate.UTC()}
	case FieldAssignees:
		return map[string]any{"assignees": c.Assignees}
	case FieldDescription:
		return map[string]any{"description": c.Description}
	}
	return nil
}

// ApplyTo writes the change into r the same way Columns writes it to storage.
func (c Change) ApplyTo(r *model.Request, now time.Time) {
	now = c.stamp(now)
	switch c.Field {
	case FieldStatus:
		r.Status = c.Status
		r.CompletedAt = nil
		if c.Status == model.StatusCompleted {
			d := completionDate(now)
			r.CompletedAt = &d
		}
	case FieldPriority:
		r.Priority = c.Priority
	case FieldDueDate:
		r.DueDate = c.DueDate
	case FieldAssignees:
		r.Assignees = append(model.IDList{}, c.Assignees...)
	case FieldDescription:
		r.Description = c.Description
	}
}

// stamp returns the edit time, falling back to now.
func (c Change) stamp(now time.Time) time.Time {
	if c.At.IsZero() {
		return now
	}
	return c.At
}

// completionDate is the calendar date of now, at midnight UTC.
func completionDate(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dedupe(ids []uint) model.IDList {
	out := make(model.IDList, 0, len(ids))
	for _, id := range ids {
		if id != 0 && !out.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}
