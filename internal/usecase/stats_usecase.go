package usecase

import (
	"context"
	"fmt"
	"time"

	"storefront-backend/internal/domain"
	"storefront-backend/pkg/cache"
	"storefront-backend/pkg/logger"
)

const statsCachePrefix = "stats:"

// StatsUsecase validates report parameters and caches report results.
type StatsUsecase struct {
	statsRepo domain.StatsRepository
	cache     cache.CacheService
	ttl       time.Duration
}

func NewStatsUsecase(statsRepo domain.StatsRepository, cache cache.CacheService, ttl time.Duration) *StatsUsecase {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &StatsUsecase{statsRepo: statsRepo, cache: cache, ttl: ttl}
}

func validateRange(start, end time.Time) error {
	if end.Before(start) {
		return fmt.Errorf("%w: end date must be after start date", domain.ErrInvalidInput)
	}
	if end.Sub(start) > 366*24*time.Hour {
		return fmt.Errorf("%w: date range cannot exceed 1 year", domain.ErrInvalidInput)
	}
	return nil
}

// GetRevenueKPIs covers [start, end).
func (uc *StatsUsecase) GetRevenueKPIs(ctx context.Context, start, end time.Time) (*domain.RevenueKPIs, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf(statsCachePrefix+"kpis:%s:%s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	if kpis, found := cache.GetAs[*domain.RevenueKPIs](uc.cache, cacheKey); found {
		return kpis, nil
	}

	kpis, err := uc.statsRepo.GetRevenueKPIs(ctx, start, end)
	if err != nil {
		return nil, err
	}
	uc.cache.Set(cacheKey, kpis, uc.ttl)
	return kpis, nil
}

func (uc *StatsUsecase) GetPromoSummary(ctx context.Context, start, end time.Time, limit int) ([]domain.PromoSummary, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	if limit < 1 || limit > 500 {
		return nil, fmt.Errorf("%w: limit must be 1-500", domain.ErrInvalidInput)
	}

	cacheKey := fmt.Sprintf(statsCachePrefix+"promos:%s:%s:%d", start.Format("2006-01-02"), end.Format("2006-01-02"), limit)
	if rows, found := cache.GetAs[[]domain.PromoSummary](uc.cache, cacheKey); found {
		return rows, nil
	}

	rows, err := uc.statsRepo.GetPromoSummary(ctx, start, end, limit)
	if err != nil {
		return nil, err
	}
	uc.cache.Set(cacheKey, rows, uc.ttl)
	return rows, nil
}

// GetLowStockVariants is cached briefly since stock moves with every order.
func (uc *StatsUsecase) GetLowStockVariants(ctx context.Context, threshold, limit int) ([]domain.LowStockVariant, error) {
	if threshold < 0 {
		return nil, fmt.Errorf("%w: threshold must be non-negative", domain.ErrInvalidInput)
	}
	if limit < 1 || limit > 500 {
		return nil, fmt.Errorf("%w: limit must be 1-500", domain.ErrInvalidInput)
	}

	cacheKey := fmt.Sprintf(statsCachePrefix+"low_stock:%d:%d", threshold, limit)
	if rows, found := cache.GetAs[[]domain.LowStockVariant](uc.cache, cacheKey); found {
		return rows, nil
	}

	rows, err := uc.statsRepo.GetLowStockVariants(ctx, threshold, limit)
	if err != nil {
		return nil, err
	}
	uc.cache.Set(cacheKey, rows, 5*time.Minute)
	return rows, nil
}

// Invalidate drops every cached report.
func (uc *StatsUsecase) Invalidate(ctx context.Context) {
	n := uc.cache.DeletePrefix(statsCachePrefix)
	logger.WithContext(ctx).Debug().Int("keys", n).Msg("Stats cache invalidated")
}
