package pgrepo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"storefront-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type inventoryRepository struct {
	db *pgxpool.Pool
}

func NewInventoryRepository(db *pgxpool.Pool) domain.InventoryLedger {
	return &inventoryRepository{db: db}
}

const variantColumns = `id, product_id, sku, name, price, stock_quantity`

func scanVariant(row pgx.Row) (domain.Variant, error) {
	var (
		v        domain.Variant
		id, prod pgtype.UUID
		price    pgtype.Numeric
		stock    int32
	)
	if err := row.Scan(&id, &prod, &v.SKU, &v.Name, &price, &stock); err != nil {
		return domain.Variant{}, err
	}
	v.ID = uuidToString(id)
	v.ProductID = uuidToString(prod)
	v.Price = numericToDecimal(price)
	v.StockQuantity = int(stock)
	return v, nil
}

func (r *inventoryRepository) GetVariant(ctx context.Context, id string) (*domain.Variant, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `SELECT `+variantColumns+` FROM variants WHERE id = $1`, stringToUUID(id))
	v, err := scanVariant(row)
	if err != nil {
		return nil, translateError(err)
	}
	return &v, nil
}

// LockVariants takes row locks in id order so concurrent checkouts over
// overlapping carts cannot deadlock.
func (r *inventoryRepository) LockVariants(ctx context.Context, ids []string) (map[string]domain.Variant, error) {
	rows, err := conn(ctx, r.db).Query(ctx,
		`SELECT `+variantColumns+` FROM variants WHERE id = ANY($1) ORDER BY id FOR UPDATE`,
		stringsToUUIDs(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]domain.Variant, len(ids))
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		out[v.ID] = v
	}
	return out, rows.Err()
}

func (r *inventoryRepository) Reserve(ctx context.Context, lines []domain.StockLine, reason, referenceID string) error {
	q := conn(ctx, r.db)

	ordered := append([]domain.StockLine(nil), lines...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].VariantID < ordered[j].VariantID })

	for _, line := range ordered {
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
		}
		id := stringToUUID(line.VariantID)

		tag, err := q.Exec(ctx,
			`UPDATE variants SET stock_quantity = stock_quantity - $2, updated_at = NOW()
			 WHERE id = $1 AND stock_quantity >= $2`,
			id, line.Quantity)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return r.insufficient(ctx, q, line)
		}

		if _, err := q.Exec(ctx,
			`INSERT INTO inventory_logs (variant_id, change_amount, reason, reference_id) VALUES ($1, $2, $3, $4)`,
			id, -line.Quantity, reason, referenceID); err != nil {
			return err
		}
	}
	return nil
}

func (r *inventoryRepository) insufficient(ctx context.Context, q DBTX, line domain.StockLine) error {
	stockErr := &domain.InsufficientStockError{VariantID: line.VariantID, SKU: line.VariantID, Requested: line.Quantity}
	var stock int32
	err := q.QueryRow(ctx, `SELECT sku, stock_quantity FROM variants WHERE id = $1`, stringToUUID(line.VariantID)).
		Scan(&stockErr.SKU, &stock)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	stockErr.Available = int(stock)
	return stockErr
}
