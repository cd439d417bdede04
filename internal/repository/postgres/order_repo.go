package pgrepo

import (
	"context"
	"fmt"
	"strings"

	"storefront-backend/internal/domain"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type orderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) domain.OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, order_number, user_id, status, total_amount, discount_amount, promo_code_id,
	payment_method, payment_reference, shipping_address, shipping_address_id, created_at, updated_at`

// --- Mappers ---

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o                           domain.Order
		id, userID, promoID, addrID pgtype.UUID
		total, discount             pgtype.Numeric
		address                     []byte
	)
	err := row.Scan(&id, &o.OrderNumber, &userID, &o.Status, &total, &discount, &promoID,
		&o.PaymentMethod, &o.PaymentReference, &address, &addrID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.ID = uuidToString(id)
	o.UserID = uuidToString(userID)
	o.TotalAmount = numericToDecimal(total)
	o.DiscountAmount = numericToDecimalPtr(discount)
	o.PromoCodeID = uuidToStringPtr(promoID)
	o.ShippingAddressID = uuidToStringPtr(addrID)
	if len(address) > 0 {
		if err := json.Unmarshal(address, &o.ShippingAddress); err != nil {
			return nil, fmt.Errorf("decode shipping address: %w", err)
		}
	}
	o.Items = []domain.OrderItem{}
	return &o, nil
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	q := conn(ctx, r.db)

	address, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return err
	}

	var id pgtype.UUID
	err = q.QueryRow(ctx,
		`INSERT INTO orders (order_number, user_id, status, total_amount, discount_amount, promo_code_id,
			payment_method, payment_reference, shipping_address, shipping_address_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at, updated_at`,
		order.OrderNumber,
		stringToUUID(order.UserID),
		order.Status,
		decimalToNumeric(order.TotalAmount),
		decimalPtrToNumeric(order.DiscountAmount),
		stringPtrToUUID(order.PromoCodeID),
		order.PaymentMethod,
		order.PaymentReference,
		address,
		stringPtrToUUID(order.ShippingAddressID),
	).Scan(&id, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return translateError(err)
	}
	order.ID = uuidToString(id)

	batch := &pgx.Batch{}
	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		batch.Queue(
			`INSERT INTO order_items (order_id, variant_id, sku, name, quantity, price_at_purchase)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			id, stringToUUID(item.VariantID), item.SKU, item.Name, item.Quantity, decimalToNumeric(item.PriceAtPurchase),
		).QueryRow(func(row pgx.Row) error {
			var itemID pgtype.UUID
			if err := row.Scan(&itemID); err != nil {
				return err
			}
			item.ID = uuidToString(itemID)
			return nil
		})
	}
	return q.SendBatch(ctx, batch).Close()
}

func (r *orderRepository) OrderNumberExists(ctx context.Context, orderNumber string) (bool, error) {
	var exists bool
	err := conn(ctx, r.db).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE order_number = $1)`, orderNumber).Scan(&exists)
	return exists, err
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	q := conn(ctx, r.db)
	order, err := scanOrder(q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, stringToUUID(id)))
	if err != nil {
		return nil, translateError(err)
	}
	if err := r.attachItems(ctx, q, []*domain.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetByUserID(ctx context.Context, userID string) ([]domain.Order, error) {
	q := conn(ctx, r.db)
	rows, err := q.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, stringToUUID(userID))
	if err != nil {
		return nil, err
	}
	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, q, orders); err != nil {
		return nil, err
	}
	return derefOrders(orders), nil
}

// --- Admin Methods ---

func (r *orderRepository) GetAll(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	q := conn(ctx, r.db)
	limit, offset := limitOffset(filter.Page, filter.Limit)

	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("(order_number ILIKE $%d OR shipping_address->>'full_name' ILIKE $%d)", len(args), len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		where = append(where, fmt.Sprintf("created_at < $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var count int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+clause, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := q.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
			orderColumns, clause, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	orders, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachItems(ctx, q, orders); err != nil {
		return nil, 0, err
	}
	return derefOrders(orders), count, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := conn(ctx, r.db).Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, stringToUUID(id), status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *orderRepository) Delete(ctx context.Context, id string) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM orders WHERE id = $1`, stringToUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *orderRepository) CreateOrderHistory(ctx context.Context, history *domain.OrderHistory) error {
	var id pgtype.UUID
	err := conn(ctx, r.db).QueryRow(ctx,
		`INSERT INTO order_history (order_id, previous_status, new_status, reason, created_by)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		stringToUUID(history.OrderID), history.PreviousStatus, history.NewStatus, history.Reason,
		stringPtrToUUID(history.CreatedBy),
	).Scan(&id, &history.CreatedAt)
	if err != nil {
		return err
	}
	history.ID = uuidToString(id)
	return nil
}

func (r *orderRepository) GetOrderHistory(ctx context.Context, orderID string) ([]domain.OrderHistory, error) {
	rows, err := conn(ctx, r.db).Query(ctx,
		`SELECT h.id, h.order_id, h.previous_status, h.new_status, h.reason, h.created_by, h.created_at,
			NULLIF(u.full_name, ''), u.email
		 FROM order_history h
		 LEFT JOIN users u ON u.id = h.created_by
		 WHERE h.order_id = $1
		 ORDER BY h.created_at`, stringToUUID(orderID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []domain.OrderHistory{}
	for rows.Next() {
		var (
			h                  domain.OrderHistory
			id, oid, createdBy pgtype.UUID
			fullName, email    *string
		)
		if err := rows.Scan(&id, &oid, &h.PreviousStatus, &h.NewStatus, &h.Reason, &createdBy, &h.CreatedAt, &fullName, &email); err != nil {
			return nil, err
		}
		h.ID = uuidToString(id)
		h.OrderID = uuidToString(oid)
		h.CreatedBy = uuidToStringPtr(createdBy)
		if fullName != nil {
			h.CreatedName = fullName
		} else {
			h.CreatedName = email
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// --- Helpers ---

func collectOrders(rows pgx.Rows) ([]*domain.Order, error) {
	defer rows.Close()
	var orders []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func derefOrders(orders []*domain.Order) []domain.Order {
	out := make([]domain.Order, len(orders))
	for i, o := range orders {
		out[i] = *o
	}
	return out
}

// attachItems loads the lines of every order with a single query.
func (r *orderRepository) attachItems(ctx context.Context, q DBTX, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Order, len(orders))
	ids := make([]pgtype.UUID, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, stringToUUID(o.ID))
	}

	rows, err := q.Query(ctx,
		`SELECT id, order_id, variant_id, sku, name, quantity, price_at_purchase
		 FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, sku`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item                   domain.OrderItem
			id, orderID, variantID pgtype.UUID
			qty                    int32
			price                  pgtype.Numeric
		)
		if err := rows.Scan(&id, &orderID, &variantID, &item.SKU, &item.Name, &qty, &price); err != nil {
			return err
		}
		item.ID = uuidToString(id)
		item.OrderID = uuidToString(orderID)
		item.VariantID = uuidToString(variantID)
		item.Quantity = int(qty)
		item.PriceAtPurchase = numericToDecimal(price)
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}
