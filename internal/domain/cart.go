package domain

import (
	"context"
	"time"
)

// CartOwner identifies a cart by user or, for guests, by session.
type CartOwner struct {
	UserID    string
	SessionID string
}

func (o CartOwner) IsZero() bool {
	return o.UserID == "" && o.SessionID == ""
}

type Cart struct {
	ID        string     `json:"id"`
	UserID    *string    `json:"userId"`
	SessionID *string    `json:"-"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type CartItem struct {
	ID        string   `json:"id"`
	CartID    string   `json:"cartId"`
	VariantID string   `json:"variantId"`
	Variant   *Variant `json:"variant,omitempty"`
	Quantity  int      `json:"quantity"`
}

// Label names the line for error messages: the SKU when the variant was
// loaded with it, else the variant id.
func (i CartItem) Label() string {
	if i.Variant != nil && i.Variant.SKU != "" {
		return i.Variant.SKU
	}
	return "variant " + i.VariantID
}

// StockLines returns the cart as ledger demands, one per line.
func (c *Cart) StockLines() []StockLine {
	lines := make([]StockLine, 0, len(c.Items))
	for _, item := range c.Items {
		lines = append(lines, StockLine{VariantID: item.VariantID, Quantity: item.Quantity})
	}
	return lines
}

type CartRepository interface {
	// GetByOwner returns the cart with its items or ErrNotFound.
	GetByOwner(ctx context.Context, owner CartOwner) (*Cart, error)
	// LockByOwner is GetByOwner holding a row lock on the cart until the
	// surrounding transaction ends. Lines are read after the lock is taken,
	// so a competing checkout that already consumed them is observed.
	LockByOwner(ctx context.Context, owner CartOwner) (*Cart, error)
	Create(ctx context.Context, cart *Cart) error
	// AddItem inserts the variant or adds quantity to the existing line.
	AddItem(ctx context.Context, cartID, variantID string, quantity int) error
	SetItemQuantity(ctx context.Context, cartID, itemID string, quantity int) error
	RemoveItem(ctx context.Context, cartID, itemID string) error
	// ClearItems deletes every line of the cart and reports how many went.
	ClearItems(ctx context.Context, cartID string) (int, error)
	// MergeInto moves every line of from into to, summing quantities of
	// shared variants, then deletes from.
	MergeInto(ctx context.Context, fromCartID, toCartID string) error
	AssignToUser(ctx context.Context, cartID, userID string) error
}
