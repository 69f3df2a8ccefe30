// Package tracker holds the pure derivations applied to request lists before
// they are shown: filtering, ordering and grouping by category. Every function
// takes explicit inputs and returns a new slice; callers own all state.
package tracker

import (
	"strings"

	"diligence-tracker/internal/model"
)

// All disables the status or priority filter.
const All = "all"

// Criteria selects which requests are visible.
type Criteria struct {
	CategoryID    *uint
	SubcategoryID *uint
	Status        string
	Priority      string
	Search        string
}

// Active reports whether any filter is set.
func (c Criteria) Active() bool {
	return c.CategoryID != nil || c.SubcategoryID != nil ||
		!isAll(c.Status) || !isAll(c.Priority) || c.Search != ""
}

// Matches reports whether r passes every active filter.
func (c Criteria) Matches(r model.Request) bool {
	if c.CategoryID != nil && r.CategoryID != *c.CategoryID {
		return false
	}
	if c.SubcategoryID != nil && (r.SubcategoryID == nil || *r.SubcategoryID != *c.SubcategoryID) {
		return false
	}
	if !isAll(c.Status) && r.Status != c.Status {
		return false
	}
	if !isAll(c.Priority) && r.Priority != c.Priority {
		return false
	}
	if c.Search == "" {
		return true
	}
	needle := strings.ToLower(c.Search)
	return strings.Contains(strings.ToLower(r.Title), needle) ||
		strings.Contains(strings.ToLower(r.Description), needle)
}

// Filter returns the requests that match c, in input order.
func Filter(requests []model.Request, c Criteria) []model.Request {
	out := make([]model.Request, 0, len(requests))
	for _, r := range requests {
		if c.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

func isAll(v string) bool {
	return v == "" || v == All
}
