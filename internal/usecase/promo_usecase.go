package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-backend/internal/domain"
	"storefront-backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const msgPromoNotFound = "Promo code not found or expired"

// PromoUsecase evaluates promo codes and handles their admin management.
type PromoUsecase struct {
	promoRepo domain.PromoRepository
	now       func() time.Time
}

func NewPromoUsecase(promoRepo domain.PromoRepository) *PromoUsecase {
	return &PromoUsecase{
		promoRepo: promoRepo,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Validate checks code against an order total without side effects. A code
// that does not apply is reported through the result, not the error.
func (uc *PromoUsecase) Validate(ctx context.Context, code string, total decimal.Decimal, userID string) (*domain.PromoValidationResult, error) {
	return uc.evaluate(ctx, uc.promoRepo.GetActiveByCode, code, total, userID)
}

// validateLocked is Validate holding the promo row lock for the rest of the
// surrounding transaction.
func (uc *PromoUsecase) validateLocked(ctx context.Context, code string, total decimal.Decimal, userID string) (*domain.PromoValidationResult, error) {
	return uc.evaluate(ctx, uc.promoRepo.LockActiveByCode, code, total, userID)
}

type promoLookup func(ctx context.Context, code string, at time.Time) (*domain.PromoCode, error)

func (uc *PromoUsecase) evaluate(ctx context.Context, lookup promoLookup, code string, total decimal.Decimal, userID string) (*domain.PromoValidationResult, error) {
	code = domain.NormalizePromoCode(code)
	if code == "" {
		return &domain.PromoValidationResult{Valid: false, Message: msgPromoNotFound}, nil
	}

	promo, err := lookup(ctx, code, uc.now())
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.PromoValidationResult{Valid: false, Message: msgPromoNotFound}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup promo code: %w", err)
	}

	res := promo.Evaluate(total)
	logger.WithContext(ctx).Debug().
		Str("code", code).
		Str("user_id", userID).
		Bool("valid", res.Valid).
		Str("total", total.StringFixed(domain.MoneyPlaces)).
		Msg("Promo code evaluated")
	return &res, nil
}

// --- Admin ---

// PromoCodeRequest is the admin input for creating or updating a code.
type PromoCodeRequest struct {
	Code              string           `json:"code"`
	Description       string           `json:"description"`
	DiscountType      string           `json:"discountType"` // "percentage" or "fixed"
	DiscountValue     decimal.Decimal  `json:"discountValue"`
	MinPurchaseAmount *decimal.Decimal `json:"minPurchaseAmount"`
	MaxDiscountAmount *decimal.Decimal `json:"maxDiscountAmount"`
	UsageLimit        *int             `json:"usageLimit"`
	IsActive          *bool            `json:"isActive"`
	ValidFrom         string           `json:"validFrom"`  // ISO8601
	ValidUntil        string           `json:"validUntil"` // ISO8601
}

func (req PromoCodeRequest) toDomain() (*domain.PromoCode, error) {
	promo := &domain.PromoCode{
		Code:              domain.NormalizePromoCode(req.Code),
		Description:       strings.TrimSpace(req.Description),
		DiscountType:      domain.DiscountType(strings.ToLower(strings.TrimSpace(req.DiscountType))),
		DiscountValue:     req.DiscountValue,
		MinPurchaseAmount: req.MinPurchaseAmount,
		MaxDiscountAmount: req.MaxDiscountAmount,
		UsageLimit:        req.UsageLimit,
		IsActive:          true,
	}
	if req.IsActive != nil {
		promo.IsActive = *req.IsActive
	}
	// A cap only means something for percentage codes.
	if promo.DiscountType == domain.DiscountFixed {
		promo.MaxDiscountAmount = nil
	}

	var err error
	if promo.ValidFrom, err = parseISO8601(req.ValidFrom); err != nil {
		return nil, fmt.Errorf("%w: validFrom: %v", domain.ErrInvalidInput, err)
	}
	if promo.ValidUntil, err = parseISO8601(req.ValidUntil); err != nil {
		return nil, fmt.Errorf("%w: validUntil: %v", domain.ErrInvalidInput, err)
	}

	if err := promo.Validate(); err != nil {
		return nil, err
	}
	return promo, nil
}

func (uc *PromoUsecase) CreatePromoCode(ctx context.Context, req PromoCodeRequest) (*domain.PromoCode, error) {
	promo, err := req.toDomain()
	if err != nil {
		return nil, err
	}
	if err := uc.promoRepo.Create(ctx, promo); err != nil {
		return nil, fmt.Errorf("failed to create promo code: %w", err)
	}
	logger.WithContext(ctx).Info().Str("code", promo.Code).Msg("Promo code created")
	return promo, nil
}

func (uc *PromoUsecase) UpdatePromoCode(ctx context.Context, id string, req PromoCodeRequest) (*domain.PromoCode, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: invalid promo code ID", domain.ErrInvalidInput)
	}
	existing, err := uc.promoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	promo, err := req.toDomain()
	if err != nil {
		return nil, err
	}
	promo.ID = existing.ID
	promo.CreatedAt = existing.CreatedAt
	if promo.UsageLimit != nil && *promo.UsageLimit < existing.UsedCount {
		return nil, fmt.Errorf("%w: usage limit cannot be below the %d redemptions already made", domain.ErrInvalidInput, existing.UsedCount)
	}

	if err := uc.promoRepo.Update(ctx, promo); err != nil {
		return nil, fmt.Errorf("failed to update promo code: %w", err)
	}
	return promo, nil
}

func (uc *PromoUsecase) GetPromoCode(ctx context.Context, id string) (*domain.PromoCode, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: invalid promo code ID", domain.ErrInvalidInput)
	}
	return uc.promoRepo.GetByID(ctx, id)
}

// ListPromoCodes returns a page of codes and the total matching count.
func (uc *PromoUsecase) ListPromoCodes(ctx context.Context, search string, limit, offset int) ([]domain.PromoCode, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	filter := domain.PromoFilter{Search: strings.TrimSpace(search), Limit: limit, Offset: offset}

	promos, err := uc.promoRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list promo codes: %w", err)
	}
	total, err := uc.promoRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count promo codes: %w", err)
	}
	return promos, total, nil
}

func (uc *PromoUsecase) DeletePromoCode(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: invalid promo code ID", domain.ErrInvalidInput)
	}
	return uc.promoRepo.Delete(ctx, id)
}

func (uc *PromoUsecase) ListUsages(ctx context.Context, promoID string, limit, offset int) ([]domain.PromoCodeUsage, error) {
	if _, err := uuid.Parse(promoID); err != nil {
		return nil, fmt.Errorf("%w: invalid promo code ID", domain.ErrInvalidInput)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return uc.promoRepo.ListUsages(ctx, promoID, limit, offset)
}

// parseISO8601 parses an ISO8601 date string into UTC.
func parseISO8601(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("date is required")
	}
	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date format %q", s)
}
