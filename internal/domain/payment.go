package domain

import "context"

type PaymentAuthorization struct {
	ReferenceID string `json:"referenceId"`
	Status      string `json:"status"`
}

// PaymentGateway is the external card processor. Amounts are minor units.
type PaymentGateway interface {
	Authorize(ctx context.Context, amountMinor int64, metadata map[string]string) (*PaymentAuthorization, error)
	Void(ctx context.Context, referenceID string) error
}
