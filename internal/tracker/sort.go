package tracker

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"diligence-tracker/internal/model"
)

// SortField names a sortable request column.
type SortField string

const (
	SortTitle        SortField = "title"
	SortStatus       SortField = "status"
	SortPriority     SortField = "priority"
	SortDueDate      SortField = "due_date"
	SortLastActivity SortField = "last_activity_at"
)

// Direction is the order applied to the chosen field.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Order is a sort field plus direction.
type Order struct {
	Field     SortField
	Direction Direction
}

// DefaultOrder is used when the caller does not pick a column.
var DefaultOrder = Order{Field: SortDueDate, Direction: Asc}

// ParseOrder validates raw query values. Empty values fall back to DefaultOrder.
func ParseOrder(field, direction string) (Order, error) {
	o := DefaultOrder
	if field != "" {
		switch f := SortField(field); f {
		case SortTitle, SortStatus, SortPriority, SortDueDate, SortLastActivity:
			o.Field = f
		default:
			return o, fmt.Errorf("unknown sort field %q", field)
		}
	}
	if direction != "" {
		switch d := Direction(direction); d {
		case Asc, Desc:
			o.Direction = d
		default:
			return o, fmt.Errorf("unknown sort direction %q", direction)
		}
	}
	return o, nil
}

// Sort returns a stably ordered copy of requests. Open work always comes
// before completed work; the chosen field and direction only order requests
// within those two partitions.
func Sort(requests []model.Request, o Order) []model.Request {
	out := slices.Clone(requests)
	coll := collate.New(language.English)
	slices.SortStableFunc(out, func(a, b model.Request) int {
		if a.IsCompleted() != b.IsCompleted() {
			if a.IsCompleted() {
				return 1
			}
			return -1
		}
		c := compareField(coll, a, b, o.Field)
		if o.Direction == Desc {
			return -c
		}
		return c
	})
	return out
}

func compareField(coll *collate.Collator, a, b model.Request, f SortField) int {
	switch f {
	case SortTitle:
		return coll.CompareString(a.Title, b.Title)
	case SortStatus:
		return cmp.Compare(a.Status, b.Status)
	case SortPriority:
		return cmp.Compare(model.PriorityRank(a.Priority), model.PriorityRank(b.Priority))
	case SortDueDate:
		return compareDue(a.DueDate, b.DueDate)
	case SortLastActivity:
		return activityTime(a.LastActivityAt).Compare(activityTime(b.LastActivityAt))
	default:
		return 0
	}
}

// compareDue treats a missing due date as later than any concrete date.
func compareDue(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return a.Compare(*b)
	}
}

func activityTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// Apply filters and then sorts requests.
func Apply(requests []model.Request, c Criteria, o Order) []model.Request {
	return Sort(Filter(requests, c), o)
}
