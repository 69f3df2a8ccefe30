package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"diligence-tracker/internal/model"
)

// RequestQuery holds the equality filters pushed down to the database.
type RequestQuery struct {
	CategoryID    *uint
	SubcategoryID *uint
	Status        string
	Priority      string
}

// RequestRepository handles CRUD for requests.
type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) Create(ctx context.Context, req *model.Request) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}

// CreateBatch inserts several requests in one transaction.
func (r *RequestRepository) CreateBatch(ctx context.Context, reqs []model.Request) error {
	if len(reqs) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&reqs).Error
	}); err != nil {
		return fmt.Errorf("create requests: %w", err)
	}
	return nil
}

func (r *RequestRepository) FindByID(ctx context.Context, id uint) (*model.Request, error) {
	var req model.Request
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// ListByDeal returns the deal's requests in creation order.
func (r *RequestRepository) ListByDeal(ctx context.Context, dealID uint, q RequestQuery) ([]model.Request, error) {
	db := r.db.WithContext(ctx).Where("deal_id = ?", dealID)
	if q.CategoryID != nil {
		db = db.Where("category_id = ?", *q.CategoryID)
	}
	if q.SubcategoryID != nil {
		db = db.Where("subcategory_id = ?", *q.SubcategoryID)
	}
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.Priority != "" {
		db = db.Where("priority = ?", q.Priority)
	}
	var reqs []model.Request
	if err := db.Order("created_at ASC, id ASC").Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

// ListOverdue returns open requests of a deal whose due date is before now.
func (r *RequestRepository) ListOverdue(ctx context.Context, dealID uint, now time.Time) ([]model.Request, error) {
	var reqs []model.Request
	if err := r.db.WithContext(ctx).
		Where("deal_id = ? AND status <> ? AND due_date IS NOT NULL AND due_date < ?", dealID, model.StatusCompleted, now).
		Order("due_date ASC").
		Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

// Update applies a set of column changes as one statement.
func (r *RequestRepository) Update(ctx context.Context, id uint, changes map[string]any) error {
	res := r.db.WithContext(ctx).Model(&model.Request{}).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return fmt.Errorf("update request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Touch records activity on a request without bumping other fields.
func (r *RequestRepository) Touch(ctx context.Context, id uint, at time.Time) error {
	if err := r.db.WithContext(ctx).Model(&model.Request{}).Where("id = ?", id).
		UpdateColumn("last_activity_at", at).Error; err != nil {
		return fmt.Errorf("touch request: %w", err)
	}
	return nil
}

func (r *RequestRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Request{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountByDeal returns the total and completed request counts of a deal.
func (r *RequestRepository) CountByDeal(ctx context.Context, dealID uint) (total, completed int, err error) {
	var row struct {
		Total     int
		Completed int
	}
	err = r.db.WithContext(ctx).Model(&model.Request{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed", model.StatusCompleted).
		Where("deal_id = ?", dealID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, fmt.Errorf("count requests: %w", err)
	}
	return row.Total, row.Completed, nil
}
