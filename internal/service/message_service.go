package service

import (
	"context"
	"fmt"
	"strings"

	"diligence-tracker/internal/cache"
	"diligence-tracker/internal/events"
	"diligence-tracker/internal/model"
	"diligence-tracker/internal/repository"
)

// DefaultInboxLimit bounds List when no limit is given.
const DefaultInboxLimit = 50

// MessageService is the broker inbox.
type MessageService struct {
	messages *repository.MessageRepository
	cache    *cache.QueryCache
	bus      *events.Bus
}

func NewMessageService(messages *repository.MessageRepository, qc *cache.QueryCache, bus *events.Bus) *MessageService {
	return &MessageService{messages: messages, cache: qc, bus: bus}
}

func (s *MessageService) Post(ctx context.Context, m *model.BrokerMessage) error {
	m.Sender = strings.TrimSpace(m.Sender)
	m.Body = strings.TrimSpace(m.Body)
	if m.Sender == "" {
		return invalid("sender is required")
	}
	if m.Body == "" {
		return invalid("message body is empty")
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return err
	}
	s.cache.Invalidate(keyMessages)
	var dealID uint
	if m.DealID != nil {
		dealID = *m.DealID
	}
	s.bus.Publish(events.Event{Type: events.MessageCreated, DealID: dealID, RowID: m.ID})
	return nil
}

// List returns the newest messages first, optionally for one deal.
func (s *MessageService) List(ctx context.Context, dealID *uint, limit int) ([]model.BrokerMessage, error) {
	if limit <= 0 {
		limit = DefaultInboxLimit
	}
	if dealID != nil {
		return s.messages.Recent(ctx, dealID, limit)
	}
	key := fmt.Sprintf("%s:limit=%d", keyMessages, limit)
	return cache.Load(ctx, s.cache, key, func(ctx context.Context) ([]model.BrokerMessage, error) {
		return s.messages.Recent(ctx, nil, limit)
	})
}

// After returns messages with ids greater than afterID, oldest first.
func (s *MessageService) After(ctx context.Context, afterID uint) ([]model.BrokerMessage, error) {
	return s.messages.After(ctx, afterID)
}

func (s *MessageService) MarkRead(ctx context.Context, id uint) error {
	if err := s.messages.MarkRead(ctx, id); err != nil {
		return notFound(err, "message")
	}
	s.cache.Invalidate(keyMessages)
	return nil
}

func (s *MessageService) Unread(ctx context.Context) (int64, error) {
	return s.messages.CountUnread(ctx)
}
