package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")

	// Checkout
	ErrEmptyCart              = errors.New("cart is empty")
	ErrCartChanged            = errors.New("cart changed during checkout, please review it and retry")
	ErrCartItemUnavailable    = errors.New("cart item is no longer available")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrMissingShippingAddress = errors.New("shipping address is required: provide shippingAddress or shippingAddressId")
	ErrAddressNotOwned        = errors.New("invalid shipping address")
	ErrOrderNumberAllocation  = errors.New("could not allocate order number")
	ErrDuplicateOrderNumber   = errors.New("order number already exists")
	ErrPaymentAuthorization   = errors.New("payment authorization failed")

	// Promo codes
	ErrPromoInvalid        = errors.New("promo code is not applicable")
	ErrPromoUsageExhausted = errors.New("promo code usage limit reached")
	ErrDuplicatePromoCode  = errors.New("promo code already exists")

	// Orders
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

// InsufficientStockError names the variant that could not be reserved.
type InsufficientStockError struct {
	VariantID string
	SKU       string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (requested %d, available %d)", e.SKU, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
