package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"diligence-tracker/internal/cache"
	"diligence-tracker/internal/events"
	"diligence-tracker/internal/model"
	"diligence-tracker/internal/repository"
	"diligence-tracker/internal/tracker"
)

// RequestInput represents data required to create a request.
type RequestInput struct {
	CategoryID    uint
	SubcategoryID *uint
	Title         string
	Description   string
	Status        string
	Priority      string
	DueDate       *time.Time
	Assignees     []uint
	Reviewers     []uint
}

// RequestService wraps request-related business logic. Every write bumps the
// request's activity time, invalidates the deal's cached list and publishes
// events.RequestChanged.
type RequestService struct {
	requests   *repository.RequestRepository
	categories *CategoryService
	deals      *DealService
	cache      *cache.QueryCache
	bus        *events.Bus
	onDelete   []func(ctx context.Context, requestID uint) error
	now        func() time.Time
}

func NewRequestService(requests *repository.RequestRepository, categories *CategoryService, deals *DealService, qc *cache.QueryCache, bus *events.Bus) *RequestService {
	return &RequestService{
		requests:   requests,
		categories: categories,
		deals:      deals,
		cache:      qc,
		bus:        bus,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// OnDelete registers cleanup that runs after a request row is removed.
// Cleanup failures are logged; the request stays deleted.
func (s *RequestService) OnDelete(fn func(ctx context.Context, requestID uint) error) {
	s.onDelete = append(s.onDelete, fn)
}

func (s *RequestService) Create(ctx context.Context, dealID uint, in RequestInput, actor uint) (*model.Request, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, invalid("title is required")
	}
	if in.CategoryID == 0 {
		return nil, invalid("category is required")
	}
	if in.Status == "" {
		in.Status = model.StatusOpen
	}
	if !model.ValidStatus(in.Status) {
		return nil, invalid("unknown status %q", in.Status)
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	if !model.ValidPriority(in.Priority) {
		return nil, invalid("unknown priority %q", in.Priority)
	}
	if _, err := s.deals.Get(ctx, dealID); err != nil {
		return nil, err
	}
	if err := s.categories.CheckPlacement(ctx, in.CategoryID, in.SubcategoryID); err != nil {
		return nil, err
	}

	now := s.now()
	req := model.Request{
		DealID:         dealID,
		CategoryID:     in.CategoryID,
		SubcategoryID:  in.SubcategoryID,
		Title:          in.Title,
		Description:    in.Description,
		Status:         in.Status,
		Priority:       in.Priority,
		DueDate:        in.DueDate,
		Assignees:      dedupe(in.Assignees),
		Reviewers:      dedupe(in.Reviewers),
		LastActivityAt: &now,
		CreatedBy:      actorRef(actor),
	}
	if req.IsCompleted() {
		d := completionDate(now)
		req.CompletedAt = &d
	}
	if err := s.requests.Create(ctx, &req); err != nil {
		return nil, err
	}
	s.changed(ctx, dealID, req.ID, true)
	return &req, nil
}

func (s *RequestService) Get(ctx context.Context, id uint) (*model.Request, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "request")
	}
	return req, nil
}

// All returns the canonical request list of a deal, shared through the cache.
func (s *RequestService) All(ctx context.Context, dealID uint) ([]model.Request, error) {
	return cache.Load(ctx, s.cache, requestsKey(dealID), func(ctx context.Context) ([]model.Request, error) {
		return s.requests.ListByDeal(ctx, dealID, repository.RequestQuery{})
	})
}

// List filters and orders the deal's requests.
func (s *RequestService) List(ctx context.Context, dealID uint, c tracker.Criteria, o tracker.Order) ([]model.Request, error) {
	all, err := s.All(ctx, dealID)
	if err != nil {
		return nil, err
	}
	return tracker.Apply(all, c, o), nil
}

// Grouped is List bucketed by category.
func (s *RequestService) Grouped(ctx context.Context, dealID uint, c tracker.Criteria, o tracker.Order) ([]tracker.Group, error) {
	visible, err := s.List(ctx, dealID, c, o)
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	return tracker.GroupByCategory(visible, categories), nil
}

// Where runs the equality filters in the database, bypassing the cache.
func (s *RequestService) Where(ctx context.Context, dealID uint, q repository.RequestQuery) ([]model.Request, error) {
	reqs, err := s.requests.ListByDeal(ctx, dealID, q)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return reqs, nil
}

// ApplyChange writes a single-field change as one update.
func (s *RequestService) ApplyChange(ctx context.Context, id uint, ch Change, actor uint) error {
	if err := ch.Validate(); err != nil {
		return err
	}
	req, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	now := s.now()
	cols := ch.Columns(now)
	cols["last_activity_at"] = now
	if actor != 0 {
		cols["updated_by"] = actor
	}
	if err := s.requests.Update(ctx, id, cols); err != nil {
		return notFound(err, "request")
	}
	s.changed(ctx, req.DealID, id, ch.Field == FieldStatus)
	return nil
}

// AssignToMe makes member the primary assignee, keeping the others after it.
func (s *RequestService) AssignToMe(ctx context.Context, id, member uint) error {
	if member == 0 {
		return invalid("member is required")
	}
	req, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	ids := append([]uint{member}, req.Assignees...)
	return s.ApplyChange(ctx, id, SetAssignees(ids...), member)
}

func (s *RequestService) Delete(ctx context.Context, id, actor uint) error {
	req, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requests.Delete(ctx, id); err != nil {
		return notFound(err, "request")
	}
	log.Printf("[info] request %d deleted by member %d", id, actor)
	for _, fn := range s.onDelete {
		if err := fn(ctx, id); err != nil {
			log.Printf("[warn] clean up request %d: %v", id, err)
		}
	}
	s.changed(ctx, req.DealID, id, true)
	return nil
}

// Touch records activity on a request, e.g. a new comment or document.
func (s *RequestService) Touch(ctx context.Context, id uint) error {
	req, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requests.Touch(ctx, id, s.now()); err != nil {
		return err
	}
	s.changed(ctx, req.DealID, id, false)
	return nil
}

// ApplyTemplate creates the template's requests for a deal. Categories and
// subcategories named by the template are created when missing.
func (s *RequestService) ApplyTemplate(ctx context.Context, dealID uint, tpl model.RequestTemplate, actor uint) ([]model.Request, error) {
	if len(tpl.Requests) == 0 {
		return nil, invalid("template %q has no requests", tpl.Name)
	}
	if _, err := s.deals.Get(ctx, dealID); err != nil {
		return nil, err
	}
	now := s.now()
	reqs := make([]model.Request, 0, len(tpl.Requests))
	for i, d := range tpl.Requests {
		title := strings.TrimSpace(d.Title)
		if title == "" {
			return nil, invalid("template %q entry %d: title is required", tpl.Name, i+1)
		}
		priority := d.Priority
		if priority == "" {
			priority = model.PriorityMedium
		}
		if !model.ValidPriority(priority) {
			return nil, invalid("template %q entry %d: unknown priority %q", tpl.Name, i+1, priority)
		}
		categoryID, subcategoryID, err := s.categories.Resolve(ctx, d.Category, d.Subcategory)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, model.Request{
			DealID:         dealID,
			CategoryID:     categoryID,
			SubcategoryID:  subcategoryID,
			Title:          title,
			Description:    d.Description,
			Status:         model.StatusOpen,
			Priority:       priority,
			Assignees:      model.IDList{},
			Reviewers:      model.IDList{},
			LastActivityAt: &now,
			CreatedBy:      actorRef(actor),
		})
	}
	if err := s.requests.CreateBatch(ctx, reqs); err != nil {
		return nil, err
	}
	log.Printf("[info] template %q applied to deal %d: %d requests", tpl.Name, dealID, len(reqs))
	s.changed(ctx, dealID, 0, true)
	return reqs, nil
}

func (s *RequestService) changed(ctx context.Context, dealID, requestID uint, recompute bool) {
	s.cache.Invalidate(requestsKey(dealID))
	if recompute {
		if err := s.deals.RecomputeProgress(ctx, dealID); err != nil {
			log.Printf("[warn] recompute deal %d: %v", dealID, err)
		}
	}
	s.bus.Publish(events.Event{Type: events.RequestChanged, DealID: dealID, RequestID: requestID, RowID: requestID})
}

func actorRef(actor uint) *uint {
	if actor == 0 {
		return nil
	}
	return &actor
}
