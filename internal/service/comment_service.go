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
	"diligence-tracker/internal/notify"
	"diligence-tracker/internal/repository"
)

// CommentService manages request comments. Threads are one level deep.
type CommentService struct {
	comments *repository.CommentRepository
	requests *RequestService
	cache    *cache.QueryCache
	bus      *events.Bus
	customer notify.Notifier
	now      func() time.Time
}

func NewCommentService(comments *repository.CommentRepository, requests *RequestService, qc *cache.QueryCache, bus *events.Bus, customer notify.Notifier) *CommentService {
	return &CommentService{
		comments: comments,
		requests: requests,
		cache:    qc,
		bus:      bus,
		customer: customer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create adds a root comment, or a reply when parentID is set.
func (s *CommentService) Create(ctx context.Context, requestID, author uint, content string, parentID *uint) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("comment is empty")
	}
	if author == 0 {
		return nil, invalid("author is required")
	}
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if parentID != nil {
		parent, err := s.Get(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.RequestID != requestID {
			return nil, invalid("comment %d belongs to another request", parent.ID)
		}
		if parent.Kind() == model.CommentReply {
			return nil, ErrNestedReply
		}
	}

	c := model.Comment{
		RequestID: requestID,
		AuthorID:  author,
		Content:   content,
		Type:      model.CommentInternal,
		ParentID:  parentID,
	}
	if err := s.comments.Create(ctx, &c); err != nil {
		return nil, err
	}
	s.changed(ctx, req.DealID, requestID, c.ID, events.CommentCreated)
	return &c, nil
}

func (s *CommentService) Get(ctx context.Context, id uint) (*model.Comment, error) {
	c, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "comment")
	}
	return c, nil
}

// Threads returns the request's root comments in creation order, each with
// its replies.
func (s *CommentService) Threads(ctx context.Context, requestID uint) ([]model.Thread, error) {
	comments, err := cache.Load(ctx, s.cache, commentsKey(requestID), func(ctx context.Context) ([]model.Comment, error) {
		return s.comments.ListByRequest(ctx, requestID)
	})
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return buildThreads(comments), nil
}

func buildThreads(comments []model.Comment) []model.Thread {
	threads := []model.Thread{}
	index := make(map[uint]int)
	for _, c := range comments {
		if c.Kind() == model.CommentRoot {
			index[c.ID] = len(threads)
			threads = append(threads, model.Thread{Comment: c, Replies: []model.Comment{}})
		}
	}
	for _, c := range comments {
		if c.Kind() != model.CommentReply {
			continue
		}
		if i, ok := index[*c.ParentID]; ok {
			threads[i].Replies = append(threads[i].Replies, c)
		}
	}
	return threads
}

// Approve marks an internal comment as approved for the customer.
func (s *CommentService) Approve(ctx context.Context, id, approver uint) (*model.Comment, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Type == model.CommentApproved {
		return c, nil
	}
	now := s.now()
	if err := s.comments.Update(ctx, id, map[string]any{
		"type":        model.CommentApproved,
		"approved_by": approver,
		"approved_at": now,
	}); err != nil {
		return nil, notFound(err, "comment")
	}
	c.Type = model.CommentApproved
	c.ApprovedBy = actorRef(approver)
	c.ApprovedAt = &now
	s.cache.Invalidate(commentsKey(c.RequestID))
	return c, nil
}

// SendToCustomer delivers an approved comment and records when it was sent.
func (s *CommentService) SendToCustomer(ctx context.Context, id uint) (*model.Comment, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Type != model.CommentApproved {
		return nil, ErrNotApproved
	}
	req, err := s.requests.Get(ctx, c.RequestID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.comments.Update(ctx, id, map[string]any{"sent_to_customer": true, "sent_at": now}); err != nil {
		return nil, notFound(err, "comment")
	}
	c.SentToCustomer = true
	c.SentAt = &now
	s.cache.Invalidate(commentsKey(c.RequestID))
	if s.customer != nil {
		s.customer.Notify(ctx, notify.Notification{
			Level:   notify.Info,
			Message: fmt.Sprintf("%s\n\n%s", req.Title, c.Content),
			DealID:  req.DealID,
		})
	}
	log.Printf("[info] comment %d sent to customer", id)
	return c, nil
}

// Delete removes a comment and its replies.
func (s *CommentService) Delete(ctx context.Context, id uint) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return notFound(err, "comment")
	}
	s.cache.Invalidate(commentsKey(c.RequestID))
	if err := s.requests.Touch(ctx, c.RequestID); err != nil {
		log.Printf("[warn] touch request %d: %v", c.RequestID, err)
	}
	return nil
}

// Approved returns the approved comments of the given requests.
func (s *CommentService) Approved(ctx context.Context, requestIDs []uint) ([]model.Comment, error) {
	comments, err := s.comments.ListApprovedByRequests(ctx, requestIDs)
	if err != nil {
		return nil, fmt.Errorf("list approved comments: %w", err)
	}
	return comments, nil
}

// RemoveForRequest deletes every comment of a request.
func (s *CommentService) RemoveForRequest(ctx context.Context, requestID uint) error {
	if err := s.comments.DeleteByRequest(ctx, requestID); err != nil {
		return err
	}
	s.cache.Invalidate(commentsKey(requestID))
	return nil
}

func (s *CommentService) changed(ctx context.Context, dealID, requestID, rowID uint, t events.Type) {
	s.cache.Invalidate(commentsKey(requestID))
	if err := s.requests.Touch(ctx, requestID); err != nil {
		log.Printf("[warn] touch request %d: %v", requestID, err)
	}
	s.bus.Publish(events.Event{Type: t, DealID: dealID, RequestID: requestID, RowID: rowID})
}
