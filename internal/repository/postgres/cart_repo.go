package pgrepo

import (
	"context"
	"fmt"

	"storefront-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type cartRepository struct {
	db *pgxpool.Pool
}

func NewCartRepository(db *pgxpool.Pool) domain.CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) GetByOwner(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	return r.getByOwner(ctx, owner, false)
}

func (r *cartRepository) LockByOwner(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	return r.getByOwner(ctx, owner, true)
}

// getByOwner reads the cart row, optionally FOR UPDATE, and then its lines in
// a separate statement. Under READ COMMITTED that second statement sees
// whatever the previous lock holder committed.
func (r *cartRepository) getByOwner(ctx context.Context, owner domain.CartOwner, lock bool) (*domain.Cart, error) {
	q := conn(ctx, r.db)

	var (
		query string
		arg   any
	)
	switch {
	case owner.UserID != "":
		query, arg = `SELECT id, user_id, session_id, created_at, updated_at FROM carts WHERE user_id = $1`, stringToUUID(owner.UserID)
	case owner.SessionID != "":
		query, arg = `SELECT id, user_id, session_id, created_at, updated_at FROM carts WHERE session_id = $1`, owner.SessionID
	default:
		return nil, domain.ErrNotFound
	}
	if lock {
		query += ` FOR UPDATE`
	}

	var (
		cart   domain.Cart
		id     pgtype.UUID
		userID pgtype.UUID
	)
	if err := q.QueryRow(ctx, query, arg).Scan(&id, &userID, &cart.SessionID, &cart.CreatedAt, &cart.UpdatedAt); err != nil {
		return nil, translateError(err)
	}
	cart.ID = uuidToString(id)
	cart.UserID = uuidToStringPtr(userID)

	rows, err := q.Query(ctx,
		`SELECT ci.id, ci.variant_id, ci.quantity, v.product_id, v.sku, v.name, v.price, v.stock_quantity
		 FROM cart_items ci
		 JOIN variants v ON v.id = ci.variant_id
		 WHERE ci.cart_id = $1
		 ORDER BY ci.created_at, ci.id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cart.Items = []domain.CartItem{}
	for rows.Next() {
		var (
			itemID, variantID, productID pgtype.UUID
			qty, stock                   int32
			price                        pgtype.Numeric
			v                            domain.Variant
		)
		if err := rows.Scan(&itemID, &variantID, &qty, &productID, &v.SKU, &v.Name, &price, &stock); err != nil {
			return nil, err
		}
		v.ID = uuidToString(variantID)
		v.ProductID = uuidToString(productID)
		v.Price = numericToDecimal(price)
		v.StockQuantity = int(stock)

		cart.Items = append(cart.Items, domain.CartItem{
			ID:        uuidToString(itemID),
			CartID:    cart.ID,
			VariantID: v.ID,
			Variant:   &v,
			Quantity:  int(qty),
		})
	}
	return &cart, rows.Err()
}

func (r *cartRepository) Create(ctx context.Context, cart *domain.Cart) error {
	var id pgtype.UUID
	err := conn(ctx, r.db).QueryRow(ctx,
		`INSERT INTO carts (user_id, session_id) VALUES ($1, $2) RETURNING id, created_at, updated_at`,
		stringPtrToUUID(cart.UserID), cart.SessionID).
		Scan(&id, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return err
	}
	cart.ID = uuidToString(id)
	cart.Items = []domain.CartItem{}
	return nil
}

func (r *cartRepository) AddItem(ctx context.Context, cartID, variantID string, quantity int) error {
	q := conn(ctx, r.db)
	_, err := q.Exec(ctx,
		`INSERT INTO cart_items (cart_id, variant_id, quantity) VALUES ($1, $2, $3)
		 ON CONFLICT (cart_id, variant_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		stringToUUID(cartID), stringToUUID(variantID), quantity)
	if err != nil {
		return err
	}
	return r.touch(ctx, q, cartID)
}

func (r *cartRepository) SetItemQuantity(ctx context.Context, cartID, itemID string, quantity int) error {
	q := conn(ctx, r.db)
	tag, err := q.Exec(ctx, `UPDATE cart_items SET quantity = $3 WHERE id = $2 AND cart_id = $1`,
		stringToUUID(cartID), stringToUUID(itemID), quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cart item: %w", domain.ErrNotFound)
	}
	return r.touch(ctx, q, cartID)
}

func (r *cartRepository) RemoveItem(ctx context.Context, cartID, itemID string) error {
	q := conn(ctx, r.db)
	tag, err := q.Exec(ctx, `DELETE FROM cart_items WHERE id = $2 AND cart_id = $1`,
		stringToUUID(cartID), stringToUUID(itemID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cart item: %w", domain.ErrNotFound)
	}
	return r.touch(ctx, q, cartID)
}

func (r *cartRepository) ClearItems(ctx context.Context, cartID string) (int, error) {
	q := conn(ctx, r.db)
	tag, err := q.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, stringToUUID(cartID))
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), r.touch(ctx, q, cartID)
}

func (r *cartRepository) MergeInto(ctx context.Context, fromCartID, toCartID string) error {
	q := conn(ctx, r.db)
	from, to := stringToUUID(fromCartID), stringToUUID(toCartID)

	if _, err := q.Exec(ctx,
		`INSERT INTO cart_items (cart_id, variant_id, quantity)
		 SELECT $2, variant_id, quantity FROM cart_items WHERE cart_id = $1
		 ON CONFLICT (cart_id, variant_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		from, to); err != nil {
		return err
	}
	if _, err := q.Exec(ctx, `DELETE FROM carts WHERE id = $1`, from); err != nil {
		return err
	}
	return r.touch(ctx, q, toCartID)
}

func (r *cartRepository) AssignToUser(ctx context.Context, cartID, userID string) error {
	tag, err := conn(ctx, r.db).Exec(ctx,
		`UPDATE carts SET user_id = $2, session_id = NULL, updated_at = NOW() WHERE id = $1`,
		stringToUUID(cartID), stringToUUID(userID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cart: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *cartRepository) touch(ctx context.Context, q DBTX, cartID string) error {
	_, err := q.Exec(ctx, `UPDATE carts SET updated_at = NOW() WHERE id = $1`, stringToUUID(cartID))
	return err
}
