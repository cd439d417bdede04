package domain

// Order Statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusPaid       = "paid"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// Payment Methods
const (
	PaymentMethodCOD    = "cod"
	PaymentMethodEsewa  = "esewa"
	PaymentMethodKhalti = "khalti"
	PaymentMethodCard   = "card"
)

// Inventory log reasons
const (
	StockReasonOrderPlaced = "order_placed"
)

// List Exports for API
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// DefaultOfflinePaymentMethods are settled outside the payment gateway.
var DefaultOfflinePaymentMethods = []string{
	PaymentMethodCOD,
	PaymentMethodEsewa,
	PaymentMethodKhalti,
}

// IsValidOrderStatus reports whether s is a known order status.
func IsValidOrderStatus(s string) bool {
	for _, st := range OrderStatuses {
		if st == s {
			return true
		}
	}
	return false
}
