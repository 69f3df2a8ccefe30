package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"diligence-tracker/internal/model"
)

// DocumentRepository tracks document metadata. Blob bytes live elsewhere.
type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, d *model.Document) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) FindByID(ctx context.Context, id uint) (*model.Document, error) {
	var d model.Document
	if err := r.db.WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// ListByRequests returns documents attached to any of the given requests, newest first.
func (r *DocumentRepository) ListByRequests(ctx context.Context, requestIDs ...uint) ([]model.Document, error) {
	if len(requestIDs) == 0 {
		return nil, nil
	}
	var docs []model.Document
	if err := r.db.WithContext(ctx).Where("request_id IN ?", requestIDs).
		Order("created_at DESC, id DESC").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Document{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete document: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
