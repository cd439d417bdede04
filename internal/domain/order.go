package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderFilter struct {
	Page     int
	Limit    int
	Status   string
	Search   string // order number or shipping name
	DateFrom *time.Time
	DateTo   *time.Time
}

// --- Order Entities ---

type Order struct {
	ID                string           `json:"id"`
	OrderNumber       string           `json:"orderNumber"`
	UserID            string           `json:"userId"`
	Status            string           `json:"status"`
	TotalAmount       decimal.Decimal  `json:"totalAmount"` // after discount
	DiscountAmount    *decimal.Decimal `json:"discountAmount"`
	PromoCodeID       *string          `json:"promoCodeId"`
	PaymentMethod     string           `json:"paymentMethod"`
	PaymentReference  *string          `json:"paymentReference"`
	ShippingAddress   JSONB            `json:"shippingAddress"`
	ShippingAddressID *string          `json:"shippingAddressId"`
	Items             []OrderItem      `json:"items"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

type OrderItem struct {
	ID              string          `json:"id"`
	OrderID         string          `json:"orderId"`
	VariantID       string          `json:"variantId"`
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"priceAtPurchase"`
}

// Subtotal is the sum of frozen line prices.
func (o *Order) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.PriceAtPurchase.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return RoundMoney(total)
}

type OrderHistory struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"orderId"`
	PreviousStatus *string   `json:"previousStatus"`
	NewStatus      string    `json:"newStatus"`
	Reason         *string   `json:"reason"`
	CreatedBy      *string   `json:"createdBy"`             // UserID
	CreatedName    *string   `json:"createdName,omitempty"` // Enriched
	CreatedAt      time.Time `json:"createdAt"`
}

var statusWeight = map[string]int{
	OrderStatusPending:    0,
	OrderStatusPaid:       1,
	OrderStatusProcessing: 2,
	OrderStatusShipped:    3,
	OrderStatusDelivered:  4,
	OrderStatusCompleted:  5,
}

// ValidateStatusTransition allows forward moves along the fulfilment path
// and cancellation of anything not yet shipped.
func ValidateStatusTransition(from, to string) error {
	if !IsValidOrderStatus(to) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, to)
	}
	if from == to {
		return fmt.Errorf("%w: order is already %s", ErrInvalidStatusTransition, from)
	}
	if from == OrderStatusCancelled || from == OrderStatusCompleted {
		return fmt.Errorf("%w: %s orders are final", ErrInvalidStatusTransition, from)
	}
	if to == OrderStatusCancelled {
		if statusWeight[from] >= statusWeight[OrderStatusShipped] {
			return fmt.Errorf("%w: cannot cancel a %s order", ErrInvalidStatusTransition, from)
		}
		return nil
	}
	if statusWeight[to] <= statusWeight[from] {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, from, to)
	}
	return nil
}

// --- Interfaces ---

type OrderRepository interface {
	// Create persists the order and its items. A clash on order number
	// surfaces as ErrDuplicateOrderNumber.
	Create(ctx context.Context, order *Order) error
	OrderNumberExists(ctx context.Context, orderNumber string) (bool, error)
	GetByID(ctx context.Context, id string) (*Order, error)
	GetByUserID(ctx context.Context, userID string) ([]Order, error)
	GetAll(ctx context.Context, filter OrderFilter) ([]Order, int64, error)
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error

	CreateOrderHistory(ctx context.Context, history *OrderHistory) error
	GetOrderHistory(ctx context.Context, orderID string) ([]OrderHistory, error)
}
