package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"diligence-tracker/internal/model"
)

// DealRepository handles deals and their derived aggregates.
type DealRepository struct {
	db *gorm.DB
}

func NewDealRepository(db *gorm.DB) *DealRepository {
	return &DealRepository{db: db}
}

func (r *DealRepository) Create(ctx context.Context, deal *model.Deal) error {
	if err := r.db.WithContext(ctx).Create(deal).Error; err != nil {
		return fmt.Errorf("create deal: %w", err)
	}
	return nil
}

func (r *DealRepository) FindByID(ctx context.Context, id uint) (*model.Deal, error) {
	var deal model.Deal
	if err := r.db.WithContext(ctx).First(&deal, id).Error; err != nil {
		return nil, err
	}
	return &deal, nil
}

// List returns deals, optionally restricted to one status.
func (r *DealRepository) List(ctx context.Context, status string) ([]model.Deal, error) {
	q := r.db.WithContext(ctx).Order("company_name ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var deals []model.Deal
	if err := q.Find(&deals).Error; err != nil {
		return nil, err
	}
	return deals, nil
}

// UpdateAggregates stores recomputed request counters and progress.
func (r *DealRepository) UpdateAggregates(ctx context.Context, id uint, total, completed int) error {
	res := r.db.WithContext(ctx).Model(&model.Deal{}).Where("id = ?", id).Updates(map[string]any{
		"total_requests":     total,
		"completed_requests": completed,
		"progress":           model.ProgressPercent(completed, total),
	})
	if res.Error != nil {
		return fmt.Errorf("update deal aggregates: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
