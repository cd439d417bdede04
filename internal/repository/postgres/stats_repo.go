package pgrepo

import (
	"context"
	"time"

	"storefront-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type statsRepository struct {
	db *pgxpool.Pool
}

func NewStatsRepository(db *pgxpool.Pool) domain.StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) GetRevenueKPIs(ctx context.Context, start, end time.Time) (*domain.RevenueKPIs, error) {
	var (
		kpis           domain.RevenueKPIs
		net, discounts pgtype.Numeric
	)
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_amount), 0), COALESCE(SUM(discount_amount), 0)
		 FROM orders
		 WHERE status <> $3 AND created_at >= $1 AND created_at < $2`,
		start, end, domain.OrderStatusCancelled,
	).Scan(&kpis.TotalOrders, &net, &discounts)
	if err != nil {
		return nil, err
	}
	kpis.NetRevenue = numericToDecimal(net)
	kpis.TotalDiscounts = numericToDecimal(discounts)
	kpis.GrossRevenue = kpis.NetRevenue.Add(kpis.TotalDiscounts)
	if kpis.TotalOrders > 0 {
		kpis.AvgOrderValue = domain.RoundMoney(kpis.NetRevenue.Div(decimal.NewFromInt(kpis.TotalOrders)))
	}
	return &kpis, nil
}

func (r *statsRepository) GetPromoSummary(ctx context.Context, start, end time.Time, limit int) ([]domain.PromoSummary, error) {
	rows, err := conn(ctx, r.db).Query(ctx,
		`SELECT p.id, p.code, COUNT(u.id), COALESCE(SUM(u.discount_amount), 0)
		 FROM promo_code_usages u
		 JOIN promo_codes p ON p.id = u.promo_code_id
		 WHERE u.used_at >= $1 AND u.used_at < $2
		 GROUP BY p.id, p.code
		 ORDER BY COUNT(u.id) DESC, p.code
		 LIMIT $3`, start, end, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.PromoSummary{}
	for rows.Next() {
		var (
			s     domain.PromoSummary
			id    pgtype.UUID
			total pgtype.Numeric
		)
		if err := rows.Scan(&id, &s.Code, &s.Redemptions, &total); err != nil {
			return nil, err
		}
		s.PromoCodeID = uuidToString(id)
		s.TotalDiscounts = numericToDecimal(total)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *statsRepository) GetLowStockVariants(ctx context.Context, threshold, limit int) ([]domain.LowStockVariant, error) {
	rows, err := conn(ctx, r.db).Query(ctx,
		`SELECT id, sku, name, stock_quantity FROM variants
		 WHERE stock_quantity <= $1
		 ORDER BY stock_quantity, sku
		 LIMIT $2`, threshold, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.LowStockVariant{}
	for rows.Next() {
		var (
			v     domain.LowStockVariant
			id    pgtype.UUID
			stock int32
		)
		if err := rows.Scan(&id, &v.SKU, &v.Name, &stock); err != nil {
			return nil, err
		}
		v.VariantID = uuidToString(id)
		v.StockQuantity = int(stock)
		out = append(out, v)
	}
	return out, rows.Err()
}
