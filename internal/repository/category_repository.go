package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"diligence-tracker/internal/model"
)

// CategoryRepository manages categories and their subcategories.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// GetOrCreate returns the category with the given name, creating it if needed.
func (r *CategoryRepository) GetOrCreate(ctx context.Context, name string) (*model.Category, error) {
	if name == "" {
		return nil, nil
	}

	var category model.Category
	db := r.db.WithContext(ctx)
	err := db.Where("name = ?", name).First(&category).Error
	switch {
	case err == nil:
		return &category, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		category = model.Category{Name: name}
		if err := db.Create(&category).Error; err != nil {
			return nil, fmt.Errorf("create category: %w", err)
		}
		return &category, nil
	default:
		return nil, fmt.Errorf("find category: %w", err)
	}
}

// GetOrCreateSubcategory returns the named subcategory of categoryID, creating it if needed.
func (r *CategoryRepository) GetOrCreateSubcategory(ctx context.Context, categoryID uint, name string) (*model.Subcategory, error) {
	if name == "" {
		return nil, nil
	}

	var sub model.Subcategory
	db := r.db.WithContext(ctx)
	err := db.Where("category_id = ? AND name = ?", categoryID, name).First(&sub).Error
	switch {
	case err == nil:
		return &sub, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		sub = model.Subcategory{CategoryID: categoryID, Name: name}
		if err := db.Create(&sub).Error; err != nil {
			return nil, fmt.Errorf("create subcategory: %w", err)
		}
		return &sub, nil
	default:
		return nil, fmt.Errorf("find subcategory: %w", err)
	}
}

func (r *CategoryRepository) Create(ctx context.Context, category *model.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// List returns every category with its subcategories.
func (r *CategoryRepository) List(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Preload("Subcategories", func(db *gorm.DB) *gorm.DB {
		return db.Order("name ASC")
	}).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id uint) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) GetSubcategory(ctx context.Context, id uint) (*model.Subcategory, error) {
	var sub model.Subcategory
	if err := r.db.WithContext(ctx).First(&sub, id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListSubcategories returns every subcategory, optionally restricted to one category.
func (r *CategoryRepository) ListSubcategories(ctx context.Context, categoryID *uint) ([]model.Subcategory, error) {
	q := r.db.WithContext(ctx).Order("name ASC")
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}
	var subs []model.Subcategory
	if err := q.Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}
