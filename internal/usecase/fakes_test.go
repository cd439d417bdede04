package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memState is everything a transaction can roll back.
type memState struct {
	variants  map[string]domain.Variant
	invLogs   []domain.InventoryLog
	carts     map[string]domain.Cart
	addresses map[string]domain.Address
	promos    map[string]domain.PromoCode
	usages    []domain.PromoCodeUsage
	orders    map[string]domain.Order
	history   []domain.OrderHistory
}

func (s memState) clone() memState {
	c := memState{
		variants:  make(map[string]domain.Variant, len(s.variants)),
		invLogs:   append([]domain.InventoryLog(nil), s.invLogs...),
		carts:     make(map[string]domain.Cart, len(s.carts)),
		addresses: make(map[string]domain.Address, len(s.addresses)),
		promos:    make(map[string]domain.PromoCode, len(s.promos)),
		usages:    append([]domain.PromoCodeUsage(nil), s.usages...),
		orders:    make(map[string]domain.Order, len(s.orders)),
		history:   append([]domain.OrderHistory(nil), s.history...),
	}
	for k, v := range s.variants {
		c.variants[k] = v
	}
	for k, v := range s.carts {
		v.Items = append([]domain.CartItem(nil), v.Items...)
		c.carts[k] = v
	}
	for k, v := range s.addresses {
		c.addresses[k] = v
	}
	for k, v := range s.promos {
		c.promos[k] = v
	}
	for k, v := range s.orders {
		v.Items = append([]domain.OrderItem(nil), v.Items...)
		c.orders[k] = v
	}
	return c
}

type inTxKey struct{}

// memStore is an in-memory stand-in for the database. Transactions are
// serialized and restore a snapshot on error, which is enough to observe
// atomicity and the outcome of competing checkouts. A nested Do behaves as a
// savepoint and restores only its own writes.
type memStore struct {
	txLock sync.Mutex
	mu     sync.Mutex
	state  memState

	// failure injection
	createOrderErrs []error
	historyErr      error
	promoLockErr    error
}

func newMemStore() *memStore {
	return &memStore{state: memState{}.clone()}
}

func (s *memStore) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(inTxKey{}) == nil {
		s.txLock.Lock()
		defer s.txLock.Unlock()
	}

	s.mu.Lock()
	snapshot := s.state.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, inTxKey{}, true)); err != nil {
		s.mu.Lock()
		s.state = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// --- seeding and inspection ---

func (s *memStore) addVariant(sku, price string, stock int) domain.Variant {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := domain.Variant{
		ID:            uuid.NewString(),
		ProductID:     uuid.NewString(),
		SKU:           sku,
		Name:          sku,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
	}
	s.state.variants[v.ID] = v
	return v
}

func (s *memStore) setPrice(variantID, price string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.state.variants[variantID]
	v.Price = decimal.RequireFromString(price)
	s.state.variants[variantID] = v
}

func (s *memStore) stock(variantID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.variants[variantID].StockQuantity
}

func (s *memStore) addAddress(a domain.Address) domain.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.state.addresses[a.ID] = a
	return a
}

func (s *memStore) addPromo(p domain.PromoCode) domain.PromoCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Code = domain.NormalizePromoCode(p.Code)
	s.state.promos[p.ID] = p
	return p
}

func (s *memStore) promo(id string) domain.PromoCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.promos[id]
}

func (s *memStore) usageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.usages)
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.orders)
}

func (s *memStore) removeVariant(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state.variants, id)
}

func (s *memStore) inventoryLogs() []domain.InventoryLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.InventoryLog(nil), s.state.invLogs...)
}

// --- InventoryLedger ---

type fakeLedger struct{ *memStore }

func (l fakeLedger) GetVariant(_ context.Context, id string) (*domain.Variant, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.state.variants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &v, nil
}

func (l fakeLedger) LockVariants(_ context.Context, ids []string) (map[string]domain.Variant, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]domain.Variant, len(ids))
	for _, id := range ids {
		if v, ok := l.state.variants[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (l fakeLedger) Reserve(_ context.Context, lines []domain.StockLine, reason, referenceID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	sorted := append([]domain.StockLine(nil), lines...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].VariantID < sorted[j].VariantID })
	for _, line := range sorted {
		v, ok := l.state.variants[line.VariantID]
		if !ok {
			return domain.ErrNotFound
		}
		if v.StockQuantity < line.Quantity {
			return &domain.InsufficientStockError{VariantID: v.ID, SKU: v.SKU, Requested: line.Quantity, Available: v.StockQuantity}
		}
		v.StockQuantity -= line.Quantity
		l.state.variants[v.ID] = v
		l.state.invLogs = append(l.state.invLogs, domain.InventoryLog{
			ID:           int64(len(l.state.invLogs) + 1),
			VariantID:    v.ID,
			ChangeAmount: -line.Quantity,
			Reason:       reason,
			ReferenceID:  referenceID,
			CreatedAt:    time.Now().UTC(),
		})
	}
	return nil
}

// --- CartRepository ---

type fakeCarts struct{ *memStore }

func (r fakeCarts) find(owner domain.CartOwner) (domain.Cart, bool) {
	for _, c := range r.state.carts {
		if owner.UserID != "" && c.UserID != nil && *c.UserID == owner.UserID {
			return c, true
		}
		if owner.UserID == "" && owner.SessionID != "" && c.SessionID != nil && *c.SessionID == owner.SessionID {
			return c, true
		}
	}
	return domain.Cart{}, false
}

func (r fakeCarts) GetByOwner(_ context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.find(owner)
	if !ok {
		return nil, domain.ErrNotFound
	}
	c.Items = append([]domain.CartItem{}, c.Items...)
	return &c, nil
}

func (r fakeCarts) LockByOwner(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	return r.GetByOwner(ctx, owner)
}

func (r fakeCarts) Create(_ context.Context, cart *domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart.ID = uuid.NewString()
	cart.CreatedAt = time.Now().UTC()
	cart.UpdatedAt = cart.CreatedAt
	stored := *cart
	stored.Items = nil
	r.state.carts[cart.ID] = stored
	return nil
}

func (r fakeCarts) AddItem(_ context.Context, cartID, variantID string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.state.carts[cartID]
	if !ok {
		return domain.ErrNotFound
	}
	for i := range c.Items {
		if c.Items[i].VariantID == variantID {
			c.Items[i].Quantity += quantity
			r.state.carts[cartID] = c
			return nil
		}
	}
	c.Items = append(c.Items, domain.CartItem{ID: uuid.NewString(), CartID: cartID, VariantID: variantID, Quantity: quantity})
	r.state.carts[cartID] = c
	return nil
}

func (r fakeCarts) SetItemQuantity(_ context.Context, cartID, itemID string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.state.carts[cartID]
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items[i].Quantity = quantity
			r.state.carts[cartID] = c
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r fakeCarts) RemoveItem(_ context.Context, cartID, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.state.carts[cartID]
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i:i], c.Items[i+1:]...)
			r.state.carts[cartID] = c
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r fakeCarts) ClearItems(_ context.Context, cartID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.state.carts[cartID]
	n := len(c.Items)
	c.Items = nil
	r.state.carts[cartID] = c
	return n, nil
}

func (r fakeCarts) MergeInto(_ context.Context, fromCartID, toCartID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	from, to := r.state.carts[fromCartID], r.state.carts[toCartID]
	for _, item := range from.Items {
		merged := false
		for i := range to.Items {
			if to.Items[i].VariantID == item.VariantID {
				to.Items[i].Quantity += item.Quantity
				merged = true
				break
			}
		}
		if !merged {
			item.CartID = toCartID
			to.Items = append(to.Items, item)
		}
	}
	r.state.carts[toCartID] = to
	delete(r.state.carts, fromCartID)
	return nil
}

func (r fakeCarts) AssignToUser(_ context.Context, cartID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.state.carts[cartID]
	if !ok {
		return domain.ErrNotFound
	}
	uid := userID
	c.UserID = &uid
	c.SessionID = nil
	r.state.carts[cartID] = c
	return nil
}

// --- AddressRepository ---

type fakeAddresses struct{ *memStore }

func (r fakeAddresses) GetByID(_ context.Context, id string) (*domain.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.state.addresses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

// --- PromoRepository ---

type fakePromos struct{ *memStore }

func (r fakePromos) GetActiveByCode(_ context.Context, code string, at time.Time) (*domain.PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.state.promos {
		if p.Code == code && p.ActiveAt(at) {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r fakePromos) LockActiveByCode(ctx context.Context, code string, at time.Time) (*domain.PromoCode, error) {
	if r.promoLockErr != nil {
		return nil, r.promoLockErr
	}
	return r.GetActiveByCode(ctx, code, at)
}

func (r fakePromos) IncrementUsage(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.state.promos[id]
	if !ok {
		return domain.ErrNotFound
	}
	if p.UsageExhausted() {
		return domain.ErrPromoUsageExhausted
	}
	p.UsedCount++
	r.state.promos[id] = p
	return nil
}

func (r fakePromos) CreateUsage(_ context.Context, usage *domain.PromoCodeUsage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	usage.ID = uuid.NewString()
	usage.UsedAt = time.Now().UTC()
	r.state.usages = append(r.state.usages, *usage)
	return nil
}

func (r fakePromos) ListUsages(_ context.Context, promoID string, limit, offset int) ([]domain.PromoCodeUsage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PromoCodeUsage
	for _, u := range r.state.usages {
		if u.PromoCodeID == promoID {
			out = append(out, u)
		}
	}
	return page(out, limit, offset), nil
}

func (r fakePromos) Create(_ context.Context, promo *domain.PromoCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.state.promos {
		if p.Code == promo.Code {
			return domain.ErrDuplicatePromoCode
		}
	}
	promo.ID = uuid.NewString()
	promo.CreatedAt = time.Now().UTC()
	promo.UpdatedAt = promo.CreatedAt
	r.state.promos[promo.ID] = *promo
	return nil
}

func (r fakePromos) Update(_ context.Context, promo *domain.PromoCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.state.promos[promo.ID]
	if !ok {
		return domain.ErrNotFound
	}
	for id, p := range r.state.promos {
		if id != promo.ID && p.Code == promo.Code {
			return domain.ErrDuplicatePromoCode
		}
	}
	promo.UsedCount = existing.UsedCount
	promo.UpdatedAt = time.Now().UTC()
	r.state.promos[promo.ID] = *promo
	return nil
}

func (r fakePromos) GetByID(_ context.Context, id string) (*domain.PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.state.promos[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r fakePromos) matching(filter domain.PromoFilter) []domain.PromoCode {
	var out []domain.PromoCode
	for _, p := range r.state.promos {
		if filter.Search == "" || strings.Contains(p.Code, strings.ToUpper(filter.Search)) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (r fakePromos) List(_ context.Context, filter domain.PromoFilter) ([]domain.PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return page(r.matching(filter), filter.Limit, filter.Offset), nil
}

func (r fakePromos) Count(_ context.Context, filter domain.PromoFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.matching(filter))), nil
}

func (r fakePromos) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.state.promos[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.state.promos, id)
	return nil
}

// --- OrderRepository ---

type fakeOrders struct{ *memStore }

func (r fakeOrders) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.createOrderErrs) > 0 {
		err := r.createOrderErrs[0]
		r.createOrderErrs = r.createOrderErrs[1:]
		return err
	}
	for _, o := range r.state.orders {
		if o.OrderNumber == order.OrderNumber {
			return domain.ErrDuplicateOrderNumber
		}
	}
	order.ID = uuid.NewString()
	order.CreatedAt = time.Now().UTC()
	order.UpdatedAt = order.CreatedAt
	for i := range order.Items {
		order.Items[i].ID = uuid.NewString()
		order.Items[i].OrderID = order.ID
	}
	stored := *order
	stored.Items = append([]domain.OrderItem(nil), order.Items...)
	r.state.orders[order.ID] = stored
	return nil
}

func (r fakeOrders) OrderNumberExists(_ context.Context, orderNumber string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.state.orders {
		if o.OrderNumber == orderNumber {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeOrders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.state.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	return &o, nil
}

func (r fakeOrders) GetByUserID(_ context.Context, userID string) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for _, o := range r.state.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r fakeOrders) GetAll(_ context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for _, o := range r.state.orders {
		if filter.Status == "" || o.Status == filter.Status {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (r fakeOrders) UpdateStatus(_ context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.state.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Status = status
	r.state.orders[id] = o
	return nil
}

func (r fakeOrders) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.state.orders[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.state.orders, id)
	return nil
}

func (r fakeOrders) CreateOrderHistory(_ context.Context, h *domain.OrderHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.historyErr != nil {
		return r.historyErr
	}
	h.ID = uuid.NewString()
	h.CreatedAt = time.Now().UTC()
	r.state.history = append(r.state.history, *h)
	return nil
}

func (r fakeOrders) GetOrderHistory(_ context.Context, orderID string) ([]domain.OrderHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.OrderHistory
	for _, h := range r.state.history {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out, nil
}

func page[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return nil
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

// --- collaborators ---

type fakeGateway struct {
	mu         sync.Mutex
	authorized []int64
	voided     []string
	authErr    error
}

func (g *fakeGateway) Authorize(_ context.Context, amountMinor int64, _ map[string]string) (*domain.PaymentAuthorization, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.authErr != nil {
		return nil, g.authErr
	}
	g.authorized = append(g.authorized, amountMinor)
	return &domain.PaymentAuthorization{ReferenceID: "pi_" + uuid.NewString()[:8], Status: "requires_capture"}, nil
}

func (g *fakeGateway) Void(_ context.Context, ref string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.voided = append(g.voided, ref)
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []domain.OrderEvent
	err    error
}

func (n *fakeNotifier) Notify(_ context.Context, e domain.OrderEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return n.err
}

type fakeMetrics struct {
	mu       sync.Mutex
	outcomes []string
	redeemed []string
}

func (m *fakeMetrics) ObserveCheckout(outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *fakeMetrics) PromoRedeemed(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redeemed = append(m.redeemed, code)
}

// takenNumbers reports every candidate as already used.
type takenNumbers struct{ calls int }

func (c *takenNumbers) OrderNumberExists(context.Context, string) (bool, error) {
	c.calls++
	return true, nil
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}
