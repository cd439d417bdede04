package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-backend/internal/domain"
	"storefront-backend/pkg/logger"

	"github.com/shopspring/decimal"
)

// CheckoutOptions carries the business rules the orchestrator is configured with.
type CheckoutOptions struct {
	OfflinePaymentMethods []string
	// StrictPromoCodes rejects checkouts whose promo code does not apply
	// instead of silently placing them at full price.
	StrictPromoCodes bool
}

type OrderUsecase struct {
	orderRepo   domain.OrderRepository
	cartRepo    domain.CartRepository
	addressRepo domain.AddressRepository
	promoRepo   domain.PromoRepository
	ledger      domain.InventoryLedger
	promoUC     *PromoUsecase
	numbers     *OrderNumberGenerator
	payments    domain.PaymentGateway
	notifier    domain.OrderNotifier
	metrics     domain.CheckoutMetrics
	txManager   domain.TransactionManager

	offline     map[string]struct{}
	strictPromo bool
}

func NewOrderUsecase(
	orderRepo domain.OrderRepository,
	cartRepo domain.CartRepository,
	addressRepo domain.AddressRepository,
	promoRepo domain.PromoRepository,
	ledger domain.InventoryLedger,
	promoUC *PromoUsecase,
	numbers *OrderNumberGenerator,
	payments domain.PaymentGateway,
	notifier domain.OrderNotifier,
	metrics domain.CheckoutMetrics,
	txManager domain.TransactionManager,
	opts CheckoutOptions,
) *OrderUsecase {
	methods := opts.OfflinePaymentMethods
	if methods == nil {
		methods = domain.DefaultOfflinePaymentMethods
	}
	offline := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		offline[strings.ToLower(strings.TrimSpace(m))] = struct{}{}
	}

	return &OrderUsecase{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		addressRepo: addressRepo,
		promoRepo:   promoRepo,
		ledger:      ledger,
		promoUC:     promoUC,
		numbers:     numbers,
		payments:    payments,
		notifier:    notifier,
		metrics:     metrics,
		txManager:   txManager,
		offline:     offline,
		strictPromo: opts.StrictPromoCodes,
	}
}

// --- Order Logic ---

type CheckoutReq struct {
	ShippingAddress   domain.JSONB `json:"shippingAddress"`
	ShippingAddressID *string      `json:"shippingAddressId,omitempty"`
	PaymentMethod     string       `json:"paymentMethod"`
	PromoCode         string       `json:"promoCode,omitempty"`
}

// orderDraft is everything computed from the locked cart before any write.
type orderDraft struct {
	cart     *domain.Cart
	items    []domain.OrderItem
	subtotal decimal.Decimal
	discount decimal.Decimal
	promo    *domain.PromoCode
	final    decimal.Decimal
}

// Checkout turns the user's cart into an order. Stock deduction, order and
// line creation, cart clearing and promo redemption commit together or not
// at all.
func (u *OrderUsecase) Checkout(ctx context.Context, user domain.User, req CheckoutReq) (*domain.Order, error) {
	start := time.Now()
	log := logger.WithContext(ctx)

	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if method == "" {
		method = domain.PaymentMethodCOD
	}

	var (
		order *domain.Order
		err   error
	)
	// The unique constraint can still reject a number that was free when
	// allocated; one fresh attempt is enough in practice.
	for attempt := 1; attempt <= 2; attempt++ {
		order, err = u.placeOrder(ctx, user, method, req)
		if !errors.Is(err, domain.ErrDuplicateOrderNumber) {
			break
		}
		log.Warn().Int("attempt", attempt).Msg("Order number collided on insert, retrying checkout")
	}
	if errors.Is(err, domain.ErrDuplicateOrderNumber) {
		err = fmt.Errorf("%w: %v", domain.ErrOrderNumberAllocation, err)
	}

	u.metrics.ObserveCheckout(checkoutOutcome(err), time.Since(start))
	if err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("Checkout failed")
		return nil, err
	}

	if order.PromoCodeID != nil {
		u.metrics.PromoRedeemed(domain.NormalizePromoCode(req.PromoCode))
	}
	log.Info().
		Str("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Str("total", order.TotalAmount.StringFixed(domain.MoneyPlaces)).
		Msg("Order placed")

	u.notify(ctx, domain.OrderEvent{
		Type:          domain.OrderEventPlaced,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		TotalAmount:   order.TotalAmount,
		CustomerEmail: user.Email,
		CustomerName:  user.FullName,
		OccurredAt:    order.CreatedAt,
	})
	return order, nil
}

// placeOrder runs one checkout attempt in its own transaction. A payment
// authorized during a failed attempt is voided.
func (u *OrderUsecase) placeOrder(ctx context.Context, user domain.User, method string, req CheckoutReq) (*domain.Order, error) {
	var (
		order *domain.Order
		auth  *domain.PaymentAuthorization
	)

	err := u.txManager.Do(ctx, func(txCtx context.Context) error {
		// 1-5: cart, stock under lock, subtotal, promo, final amount
		draft, err := u.draft(txCtx, user.ID, req.PromoCode)
		if err != nil {
			return err
		}

		// 6. Shipping address snapshot
		address, addressID, err := u.resolveAddress(txCtx, user.ID, req)
		if err != nil {
			return err
		}

		// 7. Payment authorization
		var paymentRef *string
		if _, offline := u.offline[method]; !offline && draft.final.IsPositive() {
			auth, err = u.payments.Authorize(txCtx, domain.ToMinorUnits(draft.final), map[string]string{"user_id": user.ID})
			if err != nil {
				return fmt.Errorf("%w: %v", domain.ErrPaymentAuthorization, err)
			}
			paymentRef = &auth.ReferenceID
		}

		// 8. Order number
		number, err := u.numbers.Allocate(txCtx)
		if err != nil {
			return err
		}

		// 9. Persist
		order = &domain.Order{
			OrderNumber:       number,
			UserID:            user.ID,
			Status:            domain.OrderStatusPending,
			TotalAmount:       draft.final,
			PaymentMethod:     method,
			PaymentReference:  paymentRef,
			ShippingAddress:   address,
			ShippingAddressID: addressID,
			Items:             draft.items,
		}
		if draft.discount.IsPositive() {
			d := draft.discount
			order.DiscountAmount = &d
			order.PromoCodeID = &draft.promo.ID
		}
		if err := u.orderRepo.Create(txCtx, order); err != nil {
			return err
		}
		if err := u.ledger.Reserve(txCtx, draft.cart.StockLines(), domain.StockReasonOrderPlaced, order.ID); err != nil {
			return err
		}
		cleared, err := u.cartRepo.ClearItems(txCtx, draft.cart.ID)
		if err != nil {
			return err
		}
		if cleared != len(draft.cart.Items) {
			return fmt.Errorf("%w: consumed %d lines, cleared %d", domain.ErrCartChanged, len(draft.cart.Items), cleared)
		}
		if order.PromoCodeID != nil {
			if err := u.redeemPromo(txCtx, draft.promo.ID, user.ID, order); err != nil {
				return err
			}
		}

		reason := "Order placed"
		return u.orderRepo.CreateOrderHistory(txCtx, &domain.OrderHistory{
			OrderID:   order.ID,
			NewStatus: order.Status,
			Reason:    &reason,
			CreatedBy: &user.ID,
		})
	})
	if err != nil {
		if auth != nil {
			u.voidPayment(ctx, auth.ReferenceID)
		}
		return nil, err
	}
	return order, nil
}

func (u *OrderUsecase) draft(ctx context.Context, userID, promoCode string) (*orderDraft, error) {
	// The cart row lock serializes checkouts of the same cart; the loser
	// reads the lines only after the winner has consumed them.
	cart, err := u.cartRepo.LockByOwner(ctx, domain.CartOwner{UserID: userID})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrEmptyCart
	}
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	ids := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.VariantID)
	}
	variants, err := u.ledger.LockVariants(ctx, ids)
	if err != nil {
		return nil, err
	}

	d := &orderDraft{cart: cart, subtotal: decimal.Zero}
	for _, item := range cart.Items {
		v, ok := variants[item.VariantID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrCartItemUnavailable, item.Label())
		}
		if v.StockQuantity < item.Quantity {
			return nil, &domain.InsufficientStockError{
				VariantID: v.ID,
				SKU:       v.SKU,
				Requested: item.Quantity,
				Available: v.StockQuantity,
			}
		}
		d.subtotal = d.subtotal.Add(v.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		d.items = append(d.items, domain.OrderItem{
			VariantID:       v.ID,
			SKU:             v.SKU,
			Name:            v.Name,
			Quantity:        item.Quantity,
			PriceAtPurchase: v.Price,
		})
	}
	d.subtotal = domain.RoundMoney(d.subtotal)

	d.discount, d.promo, err = u.applyPromo(ctx, promoCode, d.subtotal, userID)
	if err != nil {
		return nil, err
	}

	d.final = d.subtotal.Sub(d.discount)
	if d.final.IsNegative() {
		d.final = decimal.Zero
	}
	return d, nil
}

// applyPromo returns a zero discount for a code that does not apply. Only
// strict mode turns that into an error.
func (u *OrderUsecase) applyPromo(ctx context.Context, code string, subtotal decimal.Decimal, userID string) (decimal.Decimal, *domain.PromoCode, error) {
	if strings.TrimSpace(code) == "" {
		return decimal.Zero, nil, nil
	}
	log := logger.WithContext(ctx)

	// A savepoint keeps a failed lookup from aborting the checkout transaction.
	var res *domain.PromoValidationResult
	err := u.txManager.Do(ctx, func(spCtx context.Context) error {
		var err error
		res, err = u.promoUC.validateLocked(spCtx, code, subtotal, userID)
		return err
	})
	if err != nil {
		if u.strictPromo {
			return decimal.Zero, nil, err
		}
		log.Warn().Err(err).Str("code", code).Msg("Promo code validation error, proceeding without discount")
		return decimal.Zero, nil, nil
	}
	if !res.Valid || res.DiscountAmount == nil || res.PromoCode == nil {
		if u.strictPromo {
			return decimal.Zero, nil, fmt.Errorf("%w: %s", domain.ErrPromoInvalid, res.Message)
		}
		log.Info().Str("code", code).Str("reason", res.Message).Msg("Promo code not applied")
		return decimal.Zero, nil, nil
	}
	return *res.DiscountAmount, res.PromoCode, nil
}

func (u *OrderUsecase) redeemPromo(ctx context.Context, promoID, userID string, order *domain.Order) error {
	if err := u.promoRepo.IncrementUsage(ctx, promoID); err != nil {
		return err
	}
	uid := userID
	return u.promoRepo.CreateUsage(ctx, &domain.PromoCodeUsage{
		PromoCodeID:    promoID,
		UserID:         &uid,
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		DiscountAmount: *order.DiscountAmount,
	})
}

// resolveAddress prefers a saved address owned by the user, then the raw
// payload. Foreign and unknown ids get the same error.
func (u *OrderUsecase) resolveAddress(ctx context.Context, userID string, req CheckoutReq) (domain.JSONB, *string, error) {
	if req.ShippingAddressID != nil && *req.ShippingAddressID != "" {
		addr, err := u.addressRepo.GetByID(ctx, *req.ShippingAddressID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrAddressNotOwned
		}
		if err != nil {
			return nil, nil, err
		}
		if addr.UserID != userID {
			return nil, nil, domain.ErrAddressNotOwned
		}
		id := addr.ID
		return addr.Snapshot(), &id, nil
	}
	if len(req.ShippingAddress) == 0 || req.ShippingAddress.IsEmpty() {
		return nil, nil, domain.ErrMissingShippingAddress
	}
	return req.ShippingAddress, nil, nil
}

func (u *OrderUsecase) voidPayment(ctx context.Context, ref string) {
	log := logger.WithContext(ctx)
	if err := u.payments.Void(context.WithoutCancel(ctx), ref); err != nil {
		log.Error().Err(err).Str("payment_reference", ref).Msg("Failed to void payment after aborted checkout")
		return
	}
	log.Info().Str("payment_reference", ref).Msg("Payment voided after aborted checkout")
}

func (u *OrderUsecase) notify(ctx context.Context, event domain.OrderEvent) {
	if err := u.notifier.Notify(ctx, event); err != nil {
		logger.WithContext(ctx).Error().Err(err).Str("order_id", event.OrderID).Str("event", event.Type).Msg("Order notification failed")
	}
}

func checkoutOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrCartChanged), errors.Is(err, domain.ErrCartItemUnavailable):
		return "cart_changed"
	case errors.Is(err, domain.ErrPaymentAuthorization):
		return "payment_failed"
	case errors.Is(err, domain.ErrMissingShippingAddress), errors.Is(err, domain.ErrAddressNotOwned):
		return "invalid_address"
	case errors.Is(err, domain.ErrPromoInvalid):
		return "invalid_promo"
	case errors.Is(err, domain.ErrOrderNumberAllocation):
		return "order_number_exhausted"
	default:
		return "error"
	}
}

// --- Customer Queries ---

func (u *OrderUsecase) GetMyOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	return u.orderRepo.GetByUserID(ctx, userID)
}

// GetMyOrder hides other users' orders behind ErrNotFound.
func (u *OrderUsecase) GetMyOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := u.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

// --- Admin Usecase ---

func (u *OrderUsecase) GetAllOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	if filter.Status != "" && !domain.IsValidOrderStatus(filter.Status) {
		return nil, 0, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, filter.Status)
	}
	return u.orderRepo.GetAll(ctx, filter)
}

func (u *OrderUsecase) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return u.orderRepo.GetByID(ctx, id)
}

func (u *OrderUsecase) GetOrderHistory(ctx context.Context, id string) ([]domain.OrderHistory, error) {
	if _, err := u.orderRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return u.orderRepo.GetOrderHistory(ctx, id)
}

func (u *OrderUsecase) UpdateOrderStatus(ctx context.Context, orderID, newStatus, note, actorID string) (*domain.Order, error) {
	order, err := u.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	oldStatus := order.Status

	if err := domain.ValidateStatusTransition(oldStatus, newStatus); err != nil {
		return nil, err
	}

	err = u.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := u.orderRepo.UpdateStatus(txCtx, orderID, newStatus); err != nil {
			return err
		}

		reason := note
		if reason == "" {
			reason = fmt.Sprintf("System: Status changed from %s to %s", oldStatus, newStatus)
		}
		history := domain.OrderHistory{
			OrderID:        orderID,
			PreviousStatus: &oldStatus,
			NewStatus:      newStatus,
			Reason:         &reason,
		}
		if actorID != "" {
			history.CreatedBy = &actorID
		}
		if err := u.orderRepo.CreateOrderHistory(txCtx, &history); err != nil {
			return fmt.Errorf("failed to record history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Status = newStatus
	u.notify(ctx, domain.OrderEvent{
		Type:        domain.OrderEventStatusChanged,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      newStatus,
		TotalAmount: order.TotalAmount,
		OccurredAt:  time.Now().UTC(),
	})
	return order, nil
}

func (u *OrderUsecase) DeleteOrder(ctx context.Context, id string) error {
	if err := u.orderRepo.Delete(ctx, id); err != nil {
		return err
	}
	logger.WithContext(ctx).Info().Str("order_id", id).Msg("Order deleted")
	return nil
}
