package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type RevenueKPIs struct {
	TotalOrders    int64           `json:"totalOrders"`
	GrossRevenue   decimal.Decimal `json:"grossRevenue"` // before discount
	NetRevenue     decimal.Decimal `json:"netRevenue"`
	TotalDiscounts decimal.Decimal `json:"totalDiscounts"`
	AvgOrderValue  decimal.Decimal `json:"avgOrderValue"`
}

type PromoSummary struct {
	PromoCodeID    string          `json:"promoCodeId"`
	Code           string          `json:"code"`
	Redemptions    int64           `json:"redemptions"`
	TotalDiscounts decimal.Decimal `json:"totalDiscounts"`
}

type LowStockVariant struct {
	VariantID     string `json:"variantId"`
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	StockQuantity int    `json:"stockQuantity"`
}

// StatsRepository runs read-only reporting queries. Cancelled orders are
// excluded from revenue figures.
type StatsRepository interface {
	GetRevenueKPIs(ctx context.Context, start, end time.Time) (*RevenueKPIs, error)
	GetPromoSummary(ctx context.Context, start, end time.Time, limit int) ([]PromoSummary, error)
	GetLowStockVariants(ctx context.Context, threshold, limit int) ([]LowStockVariant, error)
}
