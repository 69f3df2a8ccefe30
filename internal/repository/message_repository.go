package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"diligence-tracker/internal/model"
)

// MessageRepository handles the broker inbox.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, m *model.BrokerMessage) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// Recent returns the newest messages, newest first.
func (r *MessageRepository) Recent(ctx context.Context, dealID *uint, limit int) ([]model.BrokerMessage, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit)
	if dealID != nil {
		q = q.Where("deal_id = ?", *dealID)
	}
	var msgs []model.BrokerMessage
	if err := q.Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// After returns messages with an id greater than afterID in chronological order.
func (r *MessageRepository) After(ctx context.Context, afterID uint) ([]model.BrokerMessage, error) {
	var msgs []model.BrokerMessage
	if err := r.db.WithContext(ctx).Where("id > ?", afterID).Order("id ASC").Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *MessageRepository) MarkRead(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&model.BrokerMessage{}).Where("id = ?", id).Update("read", true)
	if res.Error != nil {
		return fmt.Errorf("mark message read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *MessageRepository) CountUnread(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.BrokerMessage{}).Where("read = ?", false).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

