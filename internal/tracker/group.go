package tracker

import (
	"cmp"
	"slices"

	"diligence-tracker/internal/model"
)

// OtherName labels buckets for requests whose category is unknown.
const OtherName = "Other"

// Group is one section of a grouped request list.
type Group struct {
	CategoryID uint            `json:"category_id"`
	Name       string          `json:"name"`
	Other      bool            `json:"other,omitempty"`
	Requests   []model.Request `json:"requests"`
}

// OrderCategories orders categories by OrderIndex when every category has
// one, otherwise alphabetically by name. A partial set of indexes is ignored.
func OrderCategories(categories []model.Category) []model.Category {
	out := slices.Clone(categories)
	indexed := len(out) > 0
	for _, c := range out {
		if c.OrderIndex == nil {
			indexed = false
			break
		}
	}
	slices.SortStableFunc(out, func(a, b model.Category) int {
		if indexed {
			if c := cmp.Compare(*a.OrderIndex, *b.OrderIndex); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// GroupByCategory splits an already sorted list into category sections.
// Sections follow OrderCategories and keep the input order of their requests.
// Requests pointing at an unknown category land in trailing "Other" sections,
// one per unknown id, in the order those ids are first seen. Categories
// without requests are left out.
func GroupByCategory(requests []model.Request, categories []model.Category) []Group {
	buckets := make(map[uint]*Group)
	var orphans []uint
	known := make(map[uint]string, len(categories))
	for _, c := range categories {
		known[c.ID] = c.Name
	}

	for _, r := range requests {
		g, ok := buckets[r.CategoryID]
		if !ok {
			name, isKnown := known[r.CategoryID]
			g = &Group{CategoryID: r.CategoryID, Name: name}
			if !isKnown {
				g.Name = OtherName
				g.Other = true
				orphans = append(orphans, r.CategoryID)
			}
			buckets[r.CategoryID] = g
		}
		g.Requests = append(g.Requests, r)
	}

	groups := make([]Group, 0, len(buckets))
	for _, c := range OrderCategories(categories) {
		if g, ok := buckets[c.ID]; ok {
			groups = append(groups, *g)
		}
	}
	for _, id := range orphans {
		groups = append(groups, *buckets[id])
	}
	return groups
}

// SubGroup is a subcategory section inside a category group. Requests without
// a subcategory use SubcategoryID 0 and an empty name.
type SubGroup struct {
	SubcategoryID uint            `json:"subcategory_id"`
	Name          string          `json:"name"`
	Requests      []model.Request `json:"requests"`
}

// GroupBySubcategory splits one category section by subcategory. Unassigned
// requests come first, then subcategories by name, then unknown ids labelled
// OtherName.
func GroupBySubcategory(requests []model.Request, subcategories []model.Subcategory) []SubGroup {
	known := make(map[uint]string, len(subcategories))
	for _, s := range subcategories {
		known[s.ID] = s.Name
	}
	buckets := make(map[uint]*SubGroup)
	var seen []uint
	for _, r := range requests {
		var id uint
		if r.SubcategoryID != nil {
			id = *r.SubcategoryID
		}
		g, ok := buckets[id]
		if !ok {
			g = &SubGroup{SubcategoryID: id}
			if id != 0 {
				if name, isKnown := known[id]; isKnown {
					g.Name = name
				} else {
					g.Name = OtherName
				}
			}
			buckets[id] = g
			seen = append(seen, id)
		}
		g.Requests = append(g.Requests, r)
	}

	slices.SortStableFunc(seen, func(a, b uint) int {
		ra, rb := subRank(a, known), subRank(b, known)
		if ra != rb {
			return cmp.Compare(ra, rb)
		}
		if ra == 1 {
			return cmp.Compare(known[a], known[b])
		}
		return 0
	})

	out := make([]SubGroup, 0, len(seen))
	for _, id := range seen {
		out = append(out, *buckets[id])
	}
	return out
}

func subRank(id uint, known map[uint]string) int {
	if id == 0 {
		return 0
	}
	if _, ok := known[id]; ok {
		return 1
	}
	return 2
}
