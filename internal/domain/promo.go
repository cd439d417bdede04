package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type PromoCode struct {
	ID                string           `json:"id"`
	Code              string           `json:"code"`
	Description       string           `json:"description"`
	DiscountType      DiscountType     `json:"discountType"`
	DiscountValue     decimal.Decimal  `json:"discountValue"`
	MinPurchaseAmount *decimal.Decimal `json:"minPurchaseAmount"`
	MaxDiscountAmount *decimal.Decimal `json:"maxDiscountAmount"` // percentage only
	UsageLimit        *int             `json:"usageLimit"`
	UsedCount         int              `json:"usedCount"`
	IsActive          bool             `json:"isActive"`
	ValidFrom         time.Time        `json:"validFrom"`
	ValidUntil        time.Time        `json:"validUntil"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

// NormalizePromoCode is the canonical stored form of a code.
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ActiveAt reports whether the code is switched on and t lies inside
// [ValidFrom, ValidUntil].
func (p *PromoCode) ActiveAt(t time.Time) bool {
	return p.IsActive && !t.Before(p.ValidFrom) && !t.After(p.ValidUntil)
}

func (p *PromoCode) UsageExhausted() bool {
	return p.UsageLimit != nil && p.UsedCount >= *p.UsageLimit
}

// Evaluate checks usage and minimum-purchase rules against total and computes
// the bounded discount. The activity window is the caller's concern because
// it is enforced by the lookup.
func (p *PromoCode) Evaluate(total decimal.Decimal) PromoValidationResult {
	if p.UsageExhausted() {
		return PromoValidationResult{Valid: false, Message: "Promo code usage limit reached"}
	}
	if p.MinPurchaseAmount != nil && total.LessThan(*p.MinPurchaseAmount) {
		return PromoValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("Minimum purchase amount of %s required", p.MinPurchaseAmount.StringFixed(MoneyPlaces)),
		}
	}

	var discount decimal.Decimal
	switch p.DiscountType {
	case DiscountPercentage:
		discount = Percent(total, p.DiscountValue)
		if p.MaxDiscountAmount != nil {
			discount = decimal.Min(discount, *p.MaxDiscountAmount)
		}
	default:
		discount = RoundMoney(p.DiscountValue)
	}

	discount = decimal.Min(discount, total)
	if discount.IsNegative() {
		discount = decimal.Zero
	}

	return PromoValidationResult{
		Valid:          true,
		DiscountAmount: &discount,
		PromoCode:      p,
		Message:        "Promo code applied successfully",
	}
}

// Validate checks the admin-supplied definition of a promo code.
func (p *PromoCode) Validate() error {
	if p.Code == "" {
		return fmt.Errorf("%w: promo code is required", ErrInvalidInput)
	}
	if p.DiscountType != DiscountPercentage && p.DiscountType != DiscountFixed {
		return fmt.Errorf("%w: discount type must be 'percentage' or 'fixed'", ErrInvalidInput)
	}
	if !p.DiscountValue.IsPositive() {
		return fmt.Errorf("%w: discount value must be greater than 0", ErrInvalidInput)
	}
	if p.DiscountType == DiscountPercentage && p.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: percentage discount cannot exceed 100%%", ErrInvalidInput)
	}
	if p.MinPurchaseAmount != nil && p.MinPurchaseAmount.IsNegative() {
		return fmt.Errorf("%w: minimum purchase amount must not be negative", ErrInvalidInput)
	}
	if p.MaxDiscountAmount != nil && p.MaxDiscountAmount.IsNegative() {
		return fmt.Errorf("%w: maximum discount amount must not be negative", ErrInvalidInput)
	}
	if p.UsageLimit != nil && *p.UsageLimit < 0 {
		return fmt.Errorf("%w: usage limit must not be negative", ErrInvalidInput)
	}
	if p.ValidUntil.Before(p.ValidFrom) {
		return fmt.Errorf("%w: valid_until must not be before valid_from", ErrInvalidInput)
	}
	return nil
}

// PromoCodeUsage is an append-only redemption record.
type PromoCodeUsage struct {
	ID             string          `json:"id"`
	PromoCodeID    string          `json:"promoCodeId"`
	UserID         *string         `json:"userId"`
	OrderID        string          `json:"orderId"`
	OrderNumber    string          `json:"orderNumber,omitempty"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	UsedAt         time.Time       `json:"usedAt"`
}

type PromoValidationResult struct {
	Valid          bool             `json:"valid"`
	DiscountAmount *decimal.Decimal `json:"discountAmount,omitempty"`
	Message        string           `json:"message"`
	PromoCode      *PromoCode       `json:"-"`
}

type PromoFilter struct {
	Search string
	Limit  int
	Offset int
}

type PromoRepository interface {
	// GetActiveByCode returns the active code whose window contains at,
	// or ErrNotFound.
	GetActiveByCode(ctx context.Context, code string, at time.Time) (*PromoCode, error)
	// LockActiveByCode is GetActiveByCode holding a row lock until the
	// surrounding transaction ends.
	LockActiveByCode(ctx context.Context, code string, at time.Time) (*PromoCode, error)
	// IncrementUsage bumps used_count unless the limit is already reached,
	// in which case it returns ErrPromoUsageExhausted.
	IncrementUsage(ctx context.Context, id string) error
	CreateUsage(ctx context.Context, usage *PromoCodeUsage) error
	ListUsages(ctx context.Context, promoID string, limit, offset int) ([]PromoCodeUsage, error)

	Create(ctx context.Context, promo *PromoCode) error
	Update(ctx context.Context, promo *PromoCode) error
	GetByID(ctx context.Context, id string) (*PromoCode, error)
	List(ctx context.Context, filter PromoFilter) ([]PromoCode, error)
	Count(ctx context.Context, filter PromoFilter) (int64, error)
	Delete(ctx context.Context, id string) error
}
