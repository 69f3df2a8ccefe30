package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"diligence-tracker/internal/cache"
	"diligence-tracker/internal/model"
	"diligence-tracker/internal/repository"
)

// CategoryService provides helpers around categories.
type CategoryService struct {
	repo  *repository.CategoryRepository
	cache *cache.QueryCache
}

func NewCategoryService(repo *repository.CategoryRepository, qc *cache.QueryCache) *CategoryService {
	return &CategoryService{repo: repo, cache: qc}
}

// List returns every category with its subcategories. The result is shared
// through the query cache.
func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	return cache.Load(ctx, s.cache, keyCategories, s.repo.List)
}

func (s *CategoryService) Create(ctx context.Context, c *model.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return invalid("category name is required")
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return err
	}
	s.cache.Invalidate(keyCategories)
	return nil
}

// Subcategories flattens the subcategories of all categories.
func (s *CategoryService) Subcategories(ctx context.Context) ([]model.Subcategory, error) {
	categories, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Subcategory
	for _, c := range categories {
		out = append(out, c.Subcategories...)
	}
	return out, nil
}

// Names maps category ids to names.
func (s *CategoryService) Names(ctx context.Context) (map[uint]string, error) {
	categories, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names, nil
}

// CheckPlacement verifies that the category exists and that the subcategory,
// when given, belongs to it.
func (s *CategoryService) CheckPlacement(ctx context.Context, categoryID uint, subcategoryID *uint) error {
	if _, err := s.repo.GetByID(ctx, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("unknown category %d", categoryID)
		}
		return fmt.Errorf("find category: %w", err)
	}
	if subcategoryID == nil {
		return nil
	}
	sub, err := s.repo.GetSubcategory(ctx, *subcategoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("unknown subcategory %d", *subcategoryID)
		}
		return fmt.Errorf("find subcategory: %w", err)
	}
	if sub.CategoryID != categoryID {
		return invalid("subcategory %d is not in category %d", sub.ID, categoryID)
	}
	return nil
}

// Resolve finds or creates a category and optional subcategory by name.
func (s *CategoryService) Resolve(ctx context.Context, category, subcategory string) (uint, *uint, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return 0, nil, invalid("category is required")
	}
	c, err := s.repo.GetOrCreate(ctx, category)
	if err != nil {
		return 0, nil, err
	}
	defer s.cache.Invalidate(keyCategories)
	subcategory = strings.TrimSpace(subcategory)
	if subcategory == "" {
		return c.ID, nil, nil
	}
	sub, err := s.repo.GetOrCreateSubcategory(ctx, c.ID, subcategory)
	if err != nil {
		return 0, nil, err
	}
	return c.ID, &sub.ID, nil
}
