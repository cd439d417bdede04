package pgrepo

import (
	"errors"

	"storefront-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation = "23505"

	orderNumberConstraint = "orders_order_number_key"
	promoCodeConstraint   = "promo_codes_code_key"
)

// translateError maps driver errors onto domain errors.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case orderNumberConstraint:
			return domain.ErrDuplicateOrderNumber
		case promoCodeConstraint:
			return domain.ErrDuplicatePromoCode
		}
	}
	return err
}
