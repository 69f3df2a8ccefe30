package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"diligence-tracker/internal/model"
)

// CommentRepository handles request comments.
type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, c *model.Comment) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) FindByID(ctx context.Context, id uint) (*model.Comment, error) {
	var c model.Comment
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByRequest returns all comments of a request, oldest first.
func (r *CommentRepository) ListByRequest(ctx context.Context, requestID uint) ([]model.Comment, error) {
	var comments []model.Comment
	if err := r.db.WithContext(ctx).Where("request_id = ?", requestID).
		Order("created_at ASC, id ASC").Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// ListApprovedByRequests returns approved comments for a set of requests.
func (r *CommentRepository) ListApprovedByRequests(ctx context.Context, requestIDs []uint) ([]model.Comment, error) {
	if len(requestIDs) == 0 {
		return nil, nil
	}
	var comments []model.Comment
	if err := r.db.WithContext(ctx).Where("request_id IN ? AND type = ?", requestIDs, model.CommentApproved).
		Order("created_at ASC, id ASC").Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *CommentRepository) Update(ctx context.Context, id uint, changes map[string]any) error {
	res := r.db.WithContext(ctx).Model(&model.Comment{}).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return fmt.Errorf("update comment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a comment together with its replies.
func (r *CommentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parent_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return fmt.Errorf("delete replies: %w", err)
		}
		res := tx.Delete(&model.Comment{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete comment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// DeleteByRequest removes every comment of a request.
func (r *CommentRepository) DeleteByRequest(ctx context.Context, requestID uint) error {
	if err := r.db.WithContext(ctx).Where("request_id = ?", requestID).Delete(&model.Comment{}).Error; err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}
	return nil
}
