package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"diligence-tracker/internal/cache"
	"diligence-tracker/internal/model"
	"diligence-tracker/internal/repository"
)

// DealService reads deals and keeps their request aggregates current.
type DealService struct {
	deals    *repository.DealRepository
	requests *repository.RequestRepository
	cache    *cache.QueryCache
}

func NewDealService(deals *repository.DealRepository, requests *repository.RequestRepository, qc *cache.QueryCache) *DealService {
	return &DealService{deals: deals, requests: requests, cache: qc}
}

func (s *DealService) List(ctx context.Context) ([]model.Deal, error) {
	return cache.Load(ctx, s.cache, keyDeals, func(ctx context.Context) ([]model.Deal, error) {
		return s.deals.List(ctx, "")
	})
}

func (s *DealService) Get(ctx context.Context, id uint) (*model.Deal, error) {
	deal, err := s.deals.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "deal")
	}
	return deal, nil
}

func (s *DealService) Create(ctx context.Context, deal *model.Deal) error {
	deal.CompanyName = strings.TrimSpace(deal.CompanyName)
	if deal.CompanyName == "" {
		return invalid("company name is required")
	}
	if deal.Status == "" {
		deal.Status = model.DealActive
	}
	if err := s.deals.Create(ctx, deal); err != nil {
		return err
	}
	s.cache.Invalidate(keyDeals)
	return nil
}

// RecomputeProgress recounts the deal's requests and stores the totals.
func (s *DealService) RecomputeProgress(ctx context.Context, dealID uint) error {
	total, completed, err := s.requests.CountByDeal(ctx, dealID)
	if err != nil {
		return err
	}
	if err := s.deals.UpdateAggregates(ctx, dealID, total, completed); err != nil {
		return notFound(err, "deal")
	}
	s.cache.Invalidate(keyDeals)
	return nil
}

// RecomputeAll refreshes every deal's aggregates, continuing past failures.
func (s *DealService) RecomputeAll(ctx context.Context) error {
	deals, err := s.deals.List(ctx, "")
	if err != nil {
		return fmt.Errorf("list deals: %w", err)
	}
	var failed int
	for _, d := range deals {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.RecomputeProgress(ctx, d.ID); err != nil {
			log.Printf("[warn] recompute deal %d: %v", d.ID, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("recompute: %d of %d deals failed", failed, len(deals))
	}
	return nil
}
