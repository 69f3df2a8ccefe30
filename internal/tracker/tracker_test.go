package tracker

import (
	"math/rand"
	"testing"
	"time"

	"diligence-tracker/internal/model"
)

func uintPtr(v uint) *uint { return &v }

func intPtr(v int) *int { return &v }

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func titles(requests []model.Request) []string {
	out := make([]string, len(requests))
	for i, r := range requests {
		out[i] = r.Title
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// randomRequests builds a deterministic mixed list for property checks.
func randomRequests(seed int64, n int) []model.Request {
	rng := rand.New(rand.NewSource(seed))
	words := []string{"Audit", "lease", "Tax", "payroll", "IP", "contracts", "Board", "minutes"}
	out := make([]model.Request, n)
	for i := range out {
		r := model.Request{
			ID:          uint(i + 1),
			CategoryID:  uint(rng.Intn(4) + 1),
			Title:       words[rng.Intn(len(words))] + " " + words[rng.Intn(len(words))],
			Description: words[rng.Intn(len(words))],
			Status:      model.Statuses[rng.Intn(len(model.Statuses))],
			Priority:    model.Priorities[rng.Intn(len(model.Priorities))],
		}
		if rng.Intn(3) > 0 {
			r.DueDate = day(time.Date(2024, time.Month(rng.Intn(12)+1), rng.Intn(28)+1, 0, 0, 0, 0, time.UTC).Format("2006-01-02"))
		}
		if rng.Intn(2) == 0 {
			ts := time.Date(2024, 1, 1, rng.Intn(24), 0, 0, 0, time.UTC)
			r.LastActivityAt = &ts
		}
		if rng.Intn(3) == 0 {
			r.SubcategoryID = uintPtr(uint(rng.Intn(3) + 10))
		}
		out[i] = r
	}
	return out
}

func TestFilterCaseInsensitiveSearch(t *testing.T) {
	requests := []model.Request{
		{ID: 1, Title: "Audited Financial Statements", Status: model.StatusOpen, Priority: model.PriorityHigh},
		{ID: 2, Title: "Lease agreements", Description: "all FINANCIAL STATEMENTS referenced", Status: model.StatusOpen, Priority: model.PriorityLow},
		{ID: 3, Title: "Cap table", Status: model.StatusOpen, Priority: model.PriorityLow},
	}

	got := Filter(requests, Criteria{Search: "financial statements"})

	if !equalStrings(titles(got), []string{"Audited Financial Statements", "Lease agreements"}) {
		t.Fatalf("unexpected result %v", titles(got))
	}
}

func TestFilterCombinesPredicates(t *testing.T) {
	requests := []model.Request{
		{ID: 1, CategoryID: 1, SubcategoryID: uintPtr(5), Title: "A", Status: model.StatusOpen, Priority: model.PriorityHigh},
		{ID: 2, CategoryID: 1, Title: "B", Status: model.StatusOpen, Priority: model.PriorityHigh},
		{ID: 3, CategoryID: 2, Title: "C", Status: model.StatusOpen, Priority: model.PriorityHigh},
		{ID: 4, CategoryID: 1, SubcategoryID: uintPtr(5), Title: "D", Status: model.StatusBlocked, Priority: model.PriorityHigh},
		{ID: 5, CategoryID: 1, SubcategoryID: uintPtr(5), Title: "E", Status: model.StatusOpen, Priority: model.PriorityLow},
	}
	c := Criteria{
		CategoryID:    uintPtr(1),
		SubcategoryID: uintPtr(5),
		Status:        model.StatusOpen,
		Priority:      model.PriorityHigh,
	}

	got := Filter(requests, c)

	if !equalStrings(titles(got), []string{"A"}) {
		t.Fatalf("expected only A, got %v", titles(got))
	}
}

func TestFilterAllMeansNoFilter(t *testing.T) {
	requests := randomRequests(7, 20)
	got := Filter(requests, Criteria{Status: All, Priority: All})
	if len(got) != len(requests) {
		t.Fatalf("expected %d requests, got %d", len(requests), len(got))
	}
	if (Criteria{Status: All, Priority: ""}).Active() {
		t.Fatal("criteria with only 'all' values should be inactive")
	}
}

func TestFilterProperties(t *testing.T) {
	requests := randomRequests(42, 200)
	criteria := []Criteria{
		{Search: "audit"},
		{CategoryID: uintPtr(2), Status: model.StatusOpen},
		{Priority: model.PriorityLow, Search: "TAX"},
		{SubcategoryID: uintPtr(11)},
	}
	for _, c := range criteria {
		got := Filter(requests, c)

		included := make(map[uint]bool, len(got))
		for _, r := range got {
			if !c.Matches(r) {
				t.Fatalf("request %d included but does not match %+v", r.ID, c)
			}
			included[r.ID] = true
		}
		for _, r := range requests {
			if !included[r.ID] && c.Matches(r) {
				t.Fatalf("request %d excluded but matches %+v", r.ID, c)
			}
		}

		again := Filter(got, c)
		if len(again) != len(got) {
			t.Fatalf("filter is not idempotent: %d vs %d", len(again), len(got))
		}
	}
}

func TestSortCompletedAlwaysLast(t *testing.T) {
	requests := randomRequests(3, 100)
	fields := []SortField{SortTitle, SortStatus, SortPriority, SortDueDate, SortLastActivity}
	for _, f := range fields {
		for _, d := range []Direction{Asc, Desc} {
			got := Sort(requests, Order{Field: f, Direction: d})
			seenCompleted := false
			for _, r := range got {
				if r.IsCompleted() {
					seenCompleted = true
				} else if seenCompleted {
					t.Fatalf("%s %s: open request %d after a completed one", f, d, r.ID)
				}
			}
		}
	}
}

func TestSortPriorityAscending(t *testing.T) {
	requests := randomRequests(9, 100)
	got := Sort(requests, Order{Field: SortPriority, Direction: Asc})
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		if prev.IsCompleted() != cur.IsCompleted() {
			continue
		}
		if model.PriorityRank(prev.Priority) > model.PriorityRank(cur.Priority) {
			t.Fatalf("priority out of order at %d: %s before %s", i, prev.Priority, cur.Priority)
		}
	}
}

func TestSortTitleScenario(t *testing.T) {
	requests := []model.Request{
		{Title: "A", Status: model.StatusCompleted, Priority: model.PriorityLow},
		{Title: "B", Status: model.StatusOpen, Priority: model.PriorityHigh},
	}

	got := Sort(requests, Order{Field: SortTitle, Direction: Asc})

	if !equalStrings(titles(got), []string{"B", "A"}) {
		t.Fatalf("expected [B A], got %v", titles(got))
	}
}

func TestSortDueDateMissingLast(t *testing.T) {
	requests := []model.Request{
		{Title: "none", Status: model.StatusOpen},
		{Title: "jan", Status: model.StatusOpen, DueDate: day("2024-01-01")},
	}

	got := Sort(requests, Order{Field: SortDueDate, Direction: Asc})

	if !equalStrings(titles(got), []string{"jan", "none"}) {
		t.Fatalf("expected [jan none], got %v", titles(got))
	}
}

func TestSortLastActivityMissingEarliest(t *testing.T) {
	requests := []model.Request{
		{Title: "recent", Status: model.StatusOpen, LastActivityAt: day("2024-03-01")},
		{Title: "never", Status: model.StatusOpen},
	}

	got := Sort(requests, Order{Field: SortLastActivity, Direction: Asc})

	if !equalStrings(titles(got), []string{"never", "recent"}) {
		t.Fatalf("expected [never recent], got %v", titles(got))
	}
}

func TestSortDescKeepsPartition(t *testing.T) {
	requests := []model.Request{
		{Title: "a", Status: model.StatusOpen},
		{Title: "z", Status: model.StatusCompleted},
		{Title: "m", Status: model.StatusBlocked},
	}

	got := Sort(requests, Order{Field: SortTitle, Direction: Desc})

	if !equalStrings(titles(got), []string{"m", "a", "z"}) {
		t.Fatalf("expected [m a z], got %v", titles(got))
	}
}

func TestSortIsStable(t *testing.T) {
	requests := []model.Request{
		{ID: 1, Title: "first", Status: model.StatusOpen, Priority: model.PriorityHigh},
		{ID: 2, Title: "second", Status: model.StatusOpen, Priority: model.PriorityHigh},
		{ID: 3, Title: "third", Status: model.StatusOpen, Priority: model.PriorityHigh},
	}
	for _, d := range []Direction{Asc, Desc} {
		got := Sort(requests, Order{Field: SortPriority, Direction: d})
		if !equalStrings(titles(got), []string{"first", "second", "third"}) {
			t.Fatalf("%s: equal keys reordered: %v", d, titles(got))
		}
	}
}

func TestSortDoesNotMutateInput(t *testing.T) {
	requests := []model.Request{
		{Title: "b", Status: model.StatusOpen},
		{Title: "a", Status: model.StatusOpen},
	}
	_ = Sort(requests, Order{Field: SortTitle, Direction: Asc})
	if requests[0].Title != "b" {
		t.Fatal("Sort reordered its input")
	}
}

func TestParseOrder(t *testing.T) {
	o, err := ParseOrder("", "")
	if err != nil || o != DefaultOrder {
		t.Fatalf("expected default order, got %+v (%v)", o, err)
	}
	o, err = ParseOrder("priority", "desc")
	if err != nil || o.Field != SortPriority || o.Direction != Desc {
		t.Fatalf("unexpected order %+v (%v)", o, err)
	}
	if _, err := ParseOrder("assignee", ""); err == nil {
		t.Fatal("expected error for unknown field")
	}
	if _, err := ParseOrder("title", "up"); err == nil {
		t.Fatal("expected error for unknown direction")
	}
}

func TestOrderCategoriesAllOrNothing(t *testing.T) {
	indexed := []model.Category{
		{ID: 1, Name: "Legal", OrderIndex: intPtr(2)},
		{ID: 2, Name: "Financial", OrderIndex: intPtr(1)},
		{ID: 3, Name: "Tax", OrderIndex: intPtr(0)},
	}
	got := OrderCategories(indexed)
	if got[0].Name != "Tax" || got[1].Name != "Financial" || got[2].Name != "Legal" {
		t.Fatalf("expected order index ordering, got %v", got)
	}

	mixed := []model.Category{
		{ID: 1, Name: "Legal", OrderIndex: intPtr(0)},
		{ID: 2, Name: "Financial"},
		{ID: 3, Name: "Tax", OrderIndex: intPtr(1)},
	}
	got = OrderCategories(mixed)
	if got[0].Name != "Financial" || got[1].Name != "Legal" || got[2].Name != "Tax" {
		t.Fatalf("expected alphabetical fallback, got %v", got)
	}
}

func TestGroupByCategory(t *testing.T) {
	categories := []model.Category{
		{ID: 1, Name: "Legal"},
		{ID: 2, Name: "Financial"},
		{ID: 3, Name: "Empty"},
	}
	requests := []model.Request{
		{ID: 1, CategoryID: 1, Title: "l1"},
		{ID: 2, CategoryID: 99, Title: "o1"},
		{ID: 3, CategoryID: 2, Title: "f1"},
		{ID: 4, CategoryID: 1, Title: "l2"},
		{ID: 5, CategoryID: 77, Title: "o2"},
		{ID: 6, CategoryID: 99, Title: "o3"},
	}

	groups := GroupByCategory(requests, categories)

	if len(groups) != 4 {
		t.Fatalf("expected 4 groups, got %d: %+v", len(groups), groups)
	}
	if groups[0].Name != "Financial" || groups[1].Name != "Legal" {
		t.Fatalf("named groups out of order: %s, %s", groups[0].Name, groups[1].Name)
	}
	if !equalStrings(titles(groups[1].Requests), []string{"l1", "l2"}) {
		t.Fatalf("legal group reordered: %v", titles(groups[1].Requests))
	}
	if !groups[2].Other || groups[2].CategoryID != 99 || !equalStrings(titles(groups[2].Requests), []string{"o1", "o3"}) {
		t.Fatalf("unexpected first orphan group %+v", groups[2])
	}
	if !groups[3].Other || groups[3].CategoryID != 77 || groups[3].Name != OtherName {
		t.Fatalf("unexpected second orphan group %+v", groups[3])
	}
}

func TestGroupPreservesElements(t *testing.T) {
	categories := []model.Category{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "C"}}
	sorted := Sort(randomRequests(11, 80), Order{Field: SortDueDate, Direction: Asc})

	groups := GroupByCategory(sorted, categories)

	position := make(map[uint]int, len(sorted))
	for i, r := range sorted {
		position[r.ID] = i
	}
	count := 0
	trailing := false
	for _, g := range groups {
		if g.Other {
			trailing = true
		} else if trailing {
			t.Fatal("named group after an orphan group")
		}
		for i, r := range g.Requests {
			count++
			if i > 0 && position[g.Requests[i-1].ID] > position[r.ID] {
				t.Fatalf("group %s reordered requests", g.Name)
			}
		}
	}
	if count != len(sorted) {
		t.Fatalf("expected %d grouped requests, got %d", len(sorted), count)
	}
}

func TestGroupBySubcategory(t *testing.T) {
	subs := []model.Subcategory{{ID: 10, Name: "Tax returns"}, {ID: 11, Name: "Audits"}}
	requests := []model.Request{
		{ID: 1, Title: "t", SubcategoryID: uintPtr(10)},
		{ID: 2, Title: "x", SubcategoryID: uintPtr(55)},
		{ID: 3, Title: "a", SubcategoryID: uintPtr(11)},
		{ID: 4, Title: "none"},
	}

	groups := GroupBySubcategory(requests, subs)

	want := []string{"", "Audits", "Tax returns", OtherName}
	if len(groups) != len(want) {
		t.Fatalf("expected %d groups, got %d", len(want), len(groups))
	}
	for i, g := range groups {
		if g.Name != want[i] {
			t.Fatalf("group %d: expected %q, got %q", i, want[i], g.Name)
		}
	}
}
