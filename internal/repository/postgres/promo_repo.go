package pgrepo

import (
	"context"
	"time"

	"storefront-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type promoRepository struct {
	db *pgxpool.Pool
}

func NewPromoRepository(db *pgxpool.Pool) domain.PromoRepository {
	return &promoRepository{db: db}
}

const promoColumns = `id, code, description, discount_type, discount_value, min_purchase_amount,
	max_discount_amount, usage_limit, used_count, is_active, valid_from, valid_until, created_at, updated_at`

func scanPromo(row pgx.Row) (*domain.PromoCode, error) {
	var (
		p                      domain.PromoCode
		id                     pgtype.UUID
		discountType           string
		value, minAmt, maxDisc pgtype.Numeric
		usageLimit             pgtype.Int4
		usedCount              int32
	)
	err := row.Scan(&id, &p.Code, &p.Description, &discountType, &value, &minAmt, &maxDisc,
		&usageLimit, &usedCount, &p.IsActive, &p.ValidFrom, &p.ValidUntil, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.ID = uuidToString(id)
	p.DiscountType = domain.DiscountType(discountType)
	p.DiscountValue = numericToDecimal(value)
	p.MinPurchaseAmount = numericToDecimalPtr(minAmt)
	p.MaxDiscountAmount = numericToDecimalPtr(maxDisc)
	p.UsageLimit = int4ToIntPtr(usageLimit)
	p.UsedCount = int(usedCount)
	return &p, nil
}

const activePromoQuery = `SELECT ` + promoColumns + ` FROM promo_codes
	WHERE code = $1 AND is_active AND valid_from <= $2 AND valid_until >= $2`

func (r *promoRepository) GetActiveByCode(ctx context.Context, code string, at time.Time) (*domain.PromoCode, error) {
	p, err := scanPromo(conn(ctx, r.db).QueryRow(ctx, activePromoQuery, domain.NormalizePromoCode(code), at))
	if err != nil {
		return nil, translateError(err)
	}
	return p, nil
}

func (r *promoRepository) LockActiveByCode(ctx context.Context, code string, at time.Time) (*domain.PromoCode, error) {
	p, err := scanPromo(conn(ctx, r.db).QueryRow(ctx, activePromoQuery+` FOR UPDATE`, domain.NormalizePromoCode(code), at))
	if err != nil {
		return nil, translateError(err)
	}
	return p, nil
}

// IncrementUsage is conditional on the limit observed at write time.
func (r *promoRepository) IncrementUsage(ctx context.Context, id string) error {
	tag, err := conn(ctx, r.db).Exec(ctx,
		`UPDATE promo_codes SET used_count = used_count + 1, updated_at = NOW()
		 WHERE id = $1 AND (usage_limit IS NULL OR used_count < usage_limit)`, stringToUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPromoUsageExhausted
	}
	return nil
}

func (r *promoRepository) CreateUsage(ctx context.Context, usage *domain.PromoCodeUsage) error {
	var id pgtype.UUID
	err := conn(ctx, r.db).QueryRow(ctx,
		`INSERT INTO promo_code_usages (promo_code_id, user_id, order_id, discount_amount)
		 VALUES ($1, $2, $3, $4) RETURNING id, used_at`,
		stringToUUID(usage.PromoCodeID), stringPtrToUUID(usage.UserID), stringToUUID(usage.OrderID),
		decimalToNumeric(usage.DiscountAmount),
	).Scan(&id, &usage.UsedAt)
	if err != nil {
		return err
	}
	usage.ID = uuidToString(id)
	return nil
}

func (r *promoRepository) ListUsages(ctx context.Context, promoID string, limit, offset int) ([]domain.PromoCodeUsage, error) {
	rows, err := conn(ctx, r.db).Query(ctx,
		`SELECT u.id, u.promo_code_id, u.user_id, u.order_id, o.order_number, u.discount_amount, u.used_at
		 FROM promo_code_usages u
		 JOIN orders o ON o.id = u.order_id
		 WHERE u.promo_code_id = $1
		 ORDER BY u.used_at DESC
		 LIMIT $2 OFFSET $3`, stringToUUID(promoID), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	usages := []domain.PromoCodeUsage{}
	for rows.Next() {
		var (
			u                        domain.PromoCodeUsage
			id, pid, userID, orderID pgtype.UUID
			amount                   pgtype.Numeric
		)
		if err := rows.Scan(&id, &pid, &userID, &orderID, &u.OrderNumber, &amount, &u.UsedAt); err != nil {
			return nil, err
		}
		u.ID = uuidToString(id)
		u.PromoCodeID = uuidToString(pid)
		u.UserID = uuidToStringPtr(userID)
		u.OrderID = uuidToString(orderID)
		u.DiscountAmount = numericToDecimal(amount)
		usages = append(usages, u)
	}
	return usages, rows.Err()
}

// --- Admin ---

func (r *promoRepository) Create(ctx context.Context, promo *domain.PromoCode) error {
	var id pgtype.UUID
	err := conn(ctx, r.db).QueryRow(ctx,
		`INSERT INTO promo_codes (code, description, discount_type, discount_value, min_purchase_amount,
			max_discount_amount, usage_limit, is_active, valid_from, valid_until)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, used_count, created_at, updated_at`,
		promo.Code, promo.Description, string(promo.DiscountType), decimalToNumeric(promo.DiscountValue),
		decimalPtrToNumeric(promo.MinPurchaseAmount), decimalPtrToNumeric(promo.MaxDiscountAmount),
		intPtrToInt4(promo.UsageLimit), promo.IsActive, promo.ValidFrom, promo.ValidUntil,
	).Scan(&id, &promo.UsedCount, &promo.CreatedAt, &promo.UpdatedAt)
	if err != nil {
		return translateError(err)
	}
	promo.ID = uuidToString(id)
	return nil
}

func (r *promoRepository) Update(ctx context.Context, promo *domain.PromoCode) error {
	err := conn(ctx, r.db).QueryRow(ctx,
		`UPDATE promo_codes SET code = $2, description = $3, discount_type = $4, discount_value = $5,
			min_purchase_amount = $6, max_discount_amount = $7, usage_limit = $8, is_active = $9,
			valid_from = $10, valid_until = $11, updated_at = NOW()
		 WHERE id = $1
		 RETURNING used_count, updated_at`,
		stringToUUID(promo.ID), promo.Code, promo.Description, string(promo.DiscountType),
		decimalToNumeric(promo.DiscountValue), decimalPtrToNumeric(promo.MinPurchaseAmount),
		decimalPtrToNumeric(promo.MaxDiscountAmount), intPtrToInt4(promo.UsageLimit), promo.IsActive,
		promo.ValidFrom, promo.ValidUntil,
	).Scan(&promo.UsedCount, &promo.UpdatedAt)
	return translateError(err)
}

func (r *promoRepository) GetByID(ctx context.Context, id string) (*domain.PromoCode, error) {
	p, err := scanPromo(conn(ctx, r.db).QueryRow(ctx, `SELECT `+promoColumns+` FROM promo_codes WHERE id = $1`, stringToUUID(id)))
	if err != nil {
		return nil, translateError(err)
	}
	return p, nil
}

func (r *promoRepository) List(ctx context.Context, filter domain.PromoFilter) ([]domain.PromoCode, error) {
	rows, err := conn(ctx, r.db).Query(ctx,
		`SELECT `+promoColumns+` FROM promo_codes
		 WHERE ($1 = '' OR code ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, filter.Search, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	promos := []domain.PromoCode{}
	for rows.Next() {
		p, err := scanPromo(rows)
		if err != nil {
			return nil, err
		}
		promos = append(promos, *p)
	}
	return promos, rows.Err()
}

func (r *promoRepository) Count(ctx context.Context, filter domain.PromoFilter) (int64, error) {
	var count int64
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT COUNT(*) FROM promo_codes
		 WHERE ($1 = '' OR code ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')`,
		filter.Search).Scan(&count)
	return count, err
}

func (r *promoRepository) Delete(ctx context.Context, id string) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM promo_codes WHERE id = $1`, stringToUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
