package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// --- Interfaces ---

type TransactionManager interface {
	// Do runs fn in a transaction. Called with a ctx already inside one, fn
	// runs in a savepoint: its failure undoes only its own writes and the
	// outer transaction stays usable.
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Variant is a purchasable SKU. StockQuantity never goes negative.
type Variant struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"productId"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
}

// StockLine is one (variant, quantity) demand against the ledger.
type StockLine struct {
	VariantID string
	Quantity  int
}

type InventoryLog struct {
	ID           int64     `json:"id"`
	VariantID    string    `json:"variantId"`
	ChangeAmount int       `json:"changeAmount"` // +10 or -5
	Reason       string    `json:"reason"`
	ReferenceID  string    `json:"referenceId"` // OrderID
	CreatedAt    time.Time `json:"createdAt"`
}

// InventoryLedger is the sole authority on whether a purchase is fulfillable.
// Both methods join the transaction carried by ctx.
type InventoryLedger interface {
	GetVariant(ctx context.Context, id string) (*Variant, error)
	// LockVariants loads the variants and holds row locks on them until the
	// transaction ends. Unknown ids are absent from the result.
	LockVariants(ctx context.Context, ids []string) (map[string]Variant, error)
	// Reserve decrements stock for every line or fails with
	// *InsufficientStockError. Deductions are conditioned on the stock
	// observed at write time.
	Reserve(ctx context.Context, lines []StockLine, reason, referenceID string) error
}
