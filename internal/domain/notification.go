package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type OrderEvent struct {
	Type          string          `json:"type"`
	OrderID       string          `json:"orderId"`
	OrderNumber   string          `json:"orderNumber"`
	Status        string          `json:"status"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	CustomerEmail string          `json:"customerEmail,omitempty"`
	CustomerName  string          `json:"customerName,omitempty"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

const (
	OrderEventPlaced        = "order.placed"
	OrderEventStatusChanged = "order.status_changed"
)

// OrderNotifier dispatches order events. Callers log failures and move on.
type OrderNotifier interface {
	Notify(ctx context.Context, event OrderEvent) error
}

// CheckoutMetrics records checkout outcomes.
type CheckoutMetrics interface {
	ObserveCheckout(outcome string, duration time.Duration)
	PromoRedeemed(code string)
}
