package usecase

import (
	"context"
	"errors"
	"fmt"

	"storefront-backend/internal/domain"
	"storefront-backend/pkg/logger"
)

type CartUsecase struct {
	cartRepo    domain.CartRepository
	ledger      domain.InventoryLedger
	txManager   domain.TransactionManager
	maxQuantity int
}

func NewCartUsecase(cartRepo domain.CartRepository, ledger domain.InventoryLedger, txManager domain.TransactionManager, maxQuantity int) *CartUsecase {
	return &CartUsecase{
		cartRepo:    cartRepo,
		ledger:      ledger,
		txManager:   txManager,
		maxQuantity: maxQuantity,
	}
}

// GetCart returns the owner's cart, or an empty unsaved one.
func (u *CartUsecase) GetCart(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: user or session required", domain.ErrInvalidInput)
	}
	cart, err := u.cartRepo.GetByOwner(ctx, owner)
	if errors.Is(err, domain.ErrNotFound) {
		return emptyCart(owner), nil
	}
	return cart, err
}

func (u *CartUsecase) AddItem(ctx context.Context, owner domain.CartOwner, variantID string, quantity int) (*domain.Cart, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: user or session required", domain.ErrInvalidInput)
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidInput)
	}
	if _, err := u.ledger.GetVariant(ctx, variantID); err != nil {
		return nil, fmt.Errorf("variant %s: %w", variantID, err)
	}

	err := u.txManager.Do(ctx, func(txCtx context.Context) error {
		cart, err := u.getOrCreate(txCtx, owner)
		if err != nil {
			return err
		}
		existing := 0
		for _, item := range cart.Items {
			if item.VariantID == variantID {
				existing = item.Quantity
				break
			}
		}
		if u.maxQuantity > 0 && existing+quantity > u.maxQuantity {
			return fmt.Errorf("%w: quantity cannot exceed %d", domain.ErrInvalidInput, u.maxQuantity)
		}
		return u.cartRepo.AddItem(txCtx, cart.ID, variantID, quantity)
	})
	if err != nil {
		return nil, err
	}
	return u.cartRepo.GetByOwner(ctx, owner)
}

// UpdateItem sets a line's quantity; zero or less removes the line.
func (u *CartUsecase) UpdateItem(ctx context.Context, owner domain.CartOwner, itemID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return u.RemoveItem(ctx, owner, itemID)
	}
	if u.maxQuantity > 0 && quantity > u.maxQuantity {
		return nil, fmt.Errorf("%w: quantity cannot exceed %d", domain.ErrInvalidInput, u.maxQuantity)
	}
	err := u.txManager.Do(ctx, func(txCtx context.Context) error {
		cart, err := u.cartRepo.LockByOwner(txCtx, owner)
		if err != nil {
			return err
		}
		return u.cartRepo.SetItemQuantity(txCtx, cart.ID, itemID, quantity)
	})
	if err != nil {
		return nil, err
	}
	return u.cartRepo.GetByOwner(ctx, owner)
}

func (u *CartUsecase) RemoveItem(ctx context.Context, owner domain.CartOwner, itemID string) (*domain.Cart, error) {
	err := u.txManager.Do(ctx, func(txCtx context.Context) error {
		cart, err := u.cartRepo.LockByOwner(txCtx, owner)
		if err != nil {
			return err
		}
		return u.cartRepo.RemoveItem(txCtx, cart.ID, itemID)
	})
	if err != nil {
		return nil, err
	}
	return u.cartRepo.GetByOwner(ctx, owner)
}

// MergeCarts folds a guest session cart into the user's cart at login.
// Shared variants have their quantities summed and the session cart is
// removed.
func (u *CartUsecase) MergeCarts(ctx context.Context, sessionID, userID string) (*domain.Cart, error) {
	if sessionID == "" || userID == "" {
		return nil, fmt.Errorf("%w: session and user required", domain.ErrInvalidInput)
	}
	userOwner := domain.CartOwner{UserID: userID}

	err := u.txManager.Do(ctx, func(txCtx context.Context) error {
		sessionCart, err := u.cartRepo.LockByOwner(txCtx, domain.CartOwner{SessionID: sessionID})
		if errors.Is(err, domain.ErrNotFound) {
			_, err = u.getOrCreate(txCtx, userOwner)
			return err
		}
		if err != nil {
			return err
		}

		userCart, err := u.cartRepo.LockByOwner(txCtx, userOwner)
		if errors.Is(err, domain.ErrNotFound) {
			return u.cartRepo.AssignToUser(txCtx, sessionCart.ID, userID)
		}
		if err != nil {
			return err
		}
		return u.cartRepo.MergeInto(txCtx, sessionCart.ID, userCart.ID)
	})
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info().Str("user_id", userID).Msg("Guest cart merged")
	return u.cartRepo.GetByOwner(ctx, userOwner)
}

// getOrCreate returns the owner's cart locked for the rest of the transaction.
func (u *CartUsecase) getOrCreate(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	cart, err := u.cartRepo.LockByOwner(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	cart = emptyCart(owner)
	if err := u.cartRepo.Create(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func emptyCart(owner domain.CartOwner) *domain.Cart {
	cart := &domain.Cart{Items: []domain.CartItem{}}
	if owner.UserID != "" {
		uid := owner.UserID
		cart.UserID = &uid
	} else {
		sid := owner.SessionID
		cart.SessionID = &sid
	}
	return cart
}
