package notification

import (
	"context"

	"storefront-backend/internal/domain"
	"storefront-backend/pkg/logger"
)

// LogNotifier writes order events to the application log. Used when no
// broker is configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (LogNotifier) Notify(ctx context.Context, event domain.OrderEvent) error {
	logger.WithContext(ctx).Info().
		Str("event", event.Type).
		Str("order_id", event.OrderID).
		Str("order_number", event.OrderNumber).
		Str("status", event.Status).
		Str("total", event.TotalAmount.StringFixed(domain.MoneyPlaces)).
		Str("customer_email", event.CustomerEmail).
		Msg("Order event")
	return nil
}

func (LogNotifier) Close() error { return nil }
