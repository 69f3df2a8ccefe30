package service

import (
	"context"
	"time"

	"diligence-tracker/internal/model"
	"diligence-tracker/internal/tracker"
)

// CardKind names a dashboard metric card.
type CardKind string

const (
	CardTotal        CardKind = "total"
	CardOpen         CardKind = "open"
	CardInProgress   CardKind = "in_progress"
	CardBlocked      CardKind = "blocked"
	CardCompleted    CardKind = "completed"
	CardHighPriority CardKind = "high_priority"
)

// Card is a metric tile. Selecting it filters the request list.
type Card struct {
	Kind  CardKind `json:"kind"`
	Label string   `json:"label"`
	Value int      `json:"value"`
}

// Criteria returns the filter a card toggles on.
func (c Card) Criteria() tracker.Criteria {
	switch c.Kind {
	case CardOpen:
		return tracker.Criteria{Status: model.StatusOpen}
	case CardInProgress:
		return tracker.Criteria{Status: model.StatusInProgress}
	case CardBlocked:
		return tracker.Criteria{Status: model.StatusBlocked}
	case CardCompleted:
		return tracker.Criteria{Status: model.StatusCompleted}
	case CardHighPriority:
		return tracker.Criteria{Priority: model.PriorityHigh}
	}
	return tracker.Criteria{}
}

// CategoryProgress is the completion of one category section.
type CategoryProgress struct {
	CategoryID uint   `json:"category_id"`
	Name       string `json:"name"`
	Total      int    `json:"total"`
	Completed  int    `json:"completed"`
	Percent    int    `json:"percent"`
}

// Dashboard summarises the requests of a deal.
type Dashboard struct {
	DealID      uint               `json:"deal_id"`
	Total       int                `json:"total"`
	Completed   int                `json:"completed"`
	Percent     int                `json:"percent"`
	ByStatus    map[string]int     `json:"by_status"`
	ByPriority  map[string]int     `json:"by_priority"`
	Overdue     int                `json:"overdue"`
	DueThisWeek int                `json:"due_this_week"`
	Unassigned  int                `json:"unassigned"`
	Categories  []CategoryProgress `json:"categories"`
	Cards       []Card             `json:"cards"`
}

// Summarize computes the dashboard of a request list. A request is overdue
// when it is not completed and its due date falls before today; it is due
// this week when the due date is within the next seven days.
func Summarize(dealID uint, requests []model.Request, categories []model.Category, now time.Time) Dashboard {
	d := Dashboard{
		DealID:     dealID,
		Total:      len(requests),
		ByStatus:   make(map[string]int, len(model.Statuses)),
		ByPriority: make(map[string]int, len(model.Priorities)),
		Categories: []CategoryProgress{},
	}
	for _, s := range model.Statuses {
		d.ByStatus[s] = 0
	}
	for _, p := range model.Priorities {
		d.ByPriority[p] = 0
	}

	today := completionDate(now)
	weekEnd := today.AddDate(0, 0, 7)
	for _, r := range requests {
		d.ByStatus[r.Status]++
		d.ByPriority[r.Priority]++
		if r.IsCompleted() {
			d.Completed++
			continue
		}
		if len(r.Assignees) == 0 {
			d.Unassigned++
		}
		if r.DueDate == nil {
			continue
		}
		due := r.DueDate.UTC()
		switch {
		case due.Before(today):
			d.Overdue++
		case due.Before(weekEnd):
			d.DueThisWeek++
		}
	}
	d.Percent = model.ProgressPercent(d.Completed, d.Total)

	for _, g := range tracker.GroupByCategory(requests, categories) {
		p := CategoryProgress{CategoryID: g.CategoryID, Name: g.Name, Total: len(g.Requests)}
		for _, r := range g.Requests {
			if r.IsCompleted() {
				p.Completed++
			}
		}
		p.Percent = model.ProgressPercent(p.Completed, p.Total)
		d.Categories = append(d.Categories, p)
	}

	d.Cards = []Card{
		{Kind: CardTotal, Label: "Total requests", Value: d.Total},
		{Kind: CardOpen, Label: "Open", Value: d.ByStatus[model.StatusOpen]},
		{Kind: CardInProgress, Label: "In progress", Value: d.ByStatus[model.StatusInProgress]},
		{Kind: CardBlocked, Label: "Blocked", Value: d.ByStatus[model.StatusBlocked]},
		{Kind: CardCompleted, Label: "Completed", Value: d.Completed},
		{Kind: CardHighPriority, Label: "High priority", Value: d.ByPriority[model.PriorityHigh]},
	}
	return d
}

// DashboardService computes deal dashboards from cached request lists.
type DashboardService struct {
	requests   *RequestService
	categories *CategoryService
	now        func() time.Time
}

func NewDashboardService(requests *RequestService, categories *CategoryService) *DashboardService {
	return &DashboardService{requests: requests, categories: categories, now: time.Now}
}

func (s *DashboardService) ForDeal(ctx context.Context, dealID uint) (Dashboard, error) {
	if _, err := s.requests.deals.Get(ctx, dealID); err != nil {
		return Dashboard{}, err
	}
	requests, err := s.requests.All(ctx, dealID)
	if err != nil {
		return Dashboard{}, err
	}
	categories, err := s.categories.List(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return Summarize(dealID, requests, categories, s.now()), nil
}
